package engine

import (
	"time"

	"github.com/quddusi-t/habit-tracker/clock"
	"github.com/quddusi-t/habit-tracker/models"
	"github.com/quddusi-t/habit-tracker/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// countingStatuses are the statuses that mark a day as done.
var countingStatuses = []models.LogStatus{models.LogStatusCompleted, models.LogStatusFrozen}

type CompletionResult struct {
	Success      bool             `json:"success"`
	Streak       int              `json:"streak"`
	FreezeEarned bool             `json:"freeze_earned"`
	// Per-habit freezes remaining; the field name is kept for API compatibility.
	FreezeBalance int              `json:"freeze_balance"`
	Log           *models.HabitLog `json:"log,omitempty"`
}

type ManualEntryInput struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	DurationMin *int       `json:"duration_min"`
	Notes       string     `json:"notes"`
}

// StartSession opens a timer session for the habit. A habit can have at most
// one running session at a time.
func (s *Service) StartSession(habitID uint, now time.Time) (*models.HabitLog, error) {
	var created *models.HabitLog
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.habitByID(tx, habitID); err != nil {
			return err
		}
		store := s.logs.WithTx(tx)
		active, err := store.ActiveSession(habitID)
		if err != nil {
			return err
		}
		if active != nil {
			return ErrSessionAlreadyActive
		}
		log := &models.HabitLog{
			HabitID:   habitID,
			StartTime: now,
			Status:    models.LogStatusPending,
		}
		if err := store.Create(log); err != nil {
			return err
		}
		created = log
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("session_started",
		zap.Uint("habit_id", habitID),
		zap.Uint("log_id", created.ID),
	)
	return created, nil
}

// StopSession closes a running session, records its duration and feeds the
// completion into the streak engine. Stopping a second session on a day that
// already counts does not bump the streak again.
func (s *Service) StopSession(habitID, logID uint, now time.Time) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}
		store := s.logs.WithTx(tx)
		log, err := store.ByID(habitID, logID)
		if err != nil {
			return err
		}
		if log == nil {
			return ErrSessionNotFound
		}
		if log.EndTime != nil {
			return ErrSessionAlreadyStopped
		}
		end := now
		duration := int(end.Sub(log.StartTime).Minutes())
		log.EndTime = &end
		log.DurationMin = &duration

		result, err = s.applyCompletion(tx, habit, user, log, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateManualEntry records a completed session with a caller-supplied
// duration, for habits that permit manual logging.
func (s *Service) CreateManualEntry(habitID uint, in ManualEntryInput, now time.Time) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		if habit.IsTimer && !habit.AllowManualOverride {
			return ErrManualEntryNotAllowed
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}

		start := now
		if in.StartTime != nil {
			start = in.StartTime.UTC()
		}
		end := start
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
		duration := 0
		switch {
		case in.DurationMin != nil:
			duration = *in.DurationMin
			if in.EndTime == nil {
				end = start.Add(time.Duration(duration) * time.Minute)
			}
		case end.After(start):
			duration = int(end.Sub(start).Minutes())
		}

		log := &models.HabitLog{
			HabitID:     habitID,
			StartTime:   start,
			EndTime:     &end,
			DurationMin: &duration,
			IsManual:    true,
			Notes:       in.Notes,
			Status:      models.LogStatusPending,
		}
		store := s.logs.WithTx(tx)
		if err := store.Create(log); err != nil {
			return err
		}

		result, err = s.applyCompletion(tx, habit, user, log, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Complete is the explicit "done for today" action for non-timer habits.
// Unlike the session and manual paths it rejects a second completion.
func (s *Service) Complete(habitID uint, now time.Time) (*CompletionResult, error) {
	var result *CompletionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}
		store := s.logs.WithTx(tx)
		dayStart, dayEnd := clock.DayBounds(now)
		done, err := store.ExistsInRangeWithStatus(habitID, 0, dayStart, dayEnd, countingStatuses)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCompletedToday
		}

		end := now
		duration := 0
		log := &models.HabitLog{
			HabitID:     habitID,
			StartTime:   now,
			EndTime:     &end,
			DurationMin: &duration,
			IsManual:    true,
			Status:      models.LogStatusPending,
		}
		if err := store.Create(log); err != nil {
			return err
		}

		result, err = s.applyCompletion(tx, habit, user, log, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyCompletion is the single authoritative streak/freeze transition. It
// marks the log completed and, if no other log already counts for today,
// bumps the streak and evaluates the freeze-earning milestones.
func (s *Service) applyCompletion(tx *gorm.DB, habit *models.Habit, user *models.User, log *models.HabitLog, now time.Time) (*CompletionResult, error) {
	store := s.logs.WithTx(tx)
	dayStart, dayEnd := clock.DayBounds(now)
	already, err := store.ExistsInRangeWithStatus(habit.ID, log.ID, dayStart, dayEnd, countingStatuses)
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Success: true}
	if !already {
		habit.CurrentStreak++
		user.FreezeUsedInRow = 0
		if habit.IsFreezable {
			if habit.CurrentStreak%7 == 0 && habit.FreezesRemaining < MaxFreezes {
				habit.FreezesRemaining++
				user.FreezeBalance++
				result.FreezeEarned = true
			}
			// The 14-day milestone fires independently of the 7-day one, so a
			// habit reaching streak 14 with an empty balance banks two at once.
			if habit.CurrentStreak%14 == 0 && habit.FreezesRemaining < MaxFreezes {
				habit.FreezesRemaining++
				user.FreezeBalance++
				result.FreezeEarned = true
			}
		}
	}

	log.Status = models.LogStatusCompleted
	if err := store.Save(log); err != nil {
		return nil, err
	}
	if err := tx.Save(habit).Error; err != nil {
		return nil, err
	}
	if err := tx.Save(user).Error; err != nil {
		return nil, err
	}

	result.Streak = habit.CurrentStreak
	result.FreezeBalance = habit.FreezesRemaining
	result.Log = log

	utils.CompletionsTotal.Inc()
	s.logger.Info("habit_completed",
		zap.Uint("habit_id", habit.ID),
		zap.Int("streak", habit.CurrentStreak),
		zap.Bool("first_today", !already),
		zap.Bool("freeze_earned", result.FreezeEarned),
	)
	return result, nil
}
