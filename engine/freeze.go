package engine

import (
	"time"

	"github.com/quddusi-t/habit-tracker/clock"
	"github.com/quddusi-t/habit-tracker/models"
	"github.com/quddusi-t/habit-tracker/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FreezeResult struct {
	Success         bool `json:"success"`
	FreezeBalance   int  `json:"freeze_balance"`
	FreezeUsedInRow int  `json:"freeze_used_in_row"`
}

// UseFreeze spends one freeze on today. The consecutive-use check runs before
// the balance check, so a user at the row limit gets FreezeLimitExceeded even
// with freezes in the bank.
func (s *Service) UseFreeze(habitID uint, now time.Time) (*FreezeResult, error) {
	var result *FreezeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		if !habit.IsFreezable {
			return ErrHabitNotFreezable
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}
		if user.FreezeUsedInRow >= MaxFreezeRow {
			return ErrFreezeLimitExceeded
		}
		if habit.FreezesRemaining <= 0 {
			return ErrNoFreezeAvailable
		}

		habit.FreezesRemaining--
		user.FreezeUsedInRow++
		if user.FreezeBalance > 0 {
			user.FreezeBalance--
		}

		store := s.logs.WithTx(tx)
		dayStart, dayEnd := clock.DayBounds(now)
		latest, err := store.LatestInRange(habitID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if latest != nil {
			latest.Status = models.LogStatusFrozen
			if err := store.Save(latest); err != nil {
				return err
			}
		} else {
			if err := store.Create(frozenLog(habitID, now, true)); err != nil {
				return err
			}
		}

		if err := tx.Save(habit).Error; err != nil {
			return err
		}
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		result = &FreezeResult{
			Success:         true,
			FreezeBalance:   habit.FreezesRemaining,
			FreezeUsedInRow: user.FreezeUsedInRow,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.FreezesUsedTotal.WithLabelValues("manual").Inc()
	s.logger.Info("freeze_used",
		zap.Uint("habit_id", habitID),
		zap.Int("remaining", result.FreezeBalance),
		zap.Int("used_in_row", result.FreezeUsedInRow),
	)
	return result, nil
}

// ApplyAutomaticDecay reconciles missed days since the habit's last counting
// log. It is idempotent and must run before any status classification.
//
// A gap of 3+ days is a hard streak reset, freeze balance notwithstanding.
// A gap of 1-2 days consumes at most one freeze per invocation, leaving a
// frozen log for today so repeat calls are no-ops.
func (s *Service) ApplyAutomaticDecay(habitID uint, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}
		return s.decay(tx, habit, user, now)
	})
}

func (s *Service) decay(tx *gorm.DB, habit *models.Habit, user *models.User, now time.Time) error {
	store := s.logs.WithTx(tx)
	last, err := store.LatestWithStatus(habit.ID, countingStatuses)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}

	daysSince := clock.DaysBetween(last.StartTime, now)
	switch {
	case daysSince >= 3:
		if habit.CurrentStreak == 0 {
			return nil
		}
		habit.CurrentStreak = 0
		if err := tx.Save(habit).Error; err != nil {
			return err
		}
		utils.StreakResetsTotal.Inc()
		s.logger.Info("streak_reset",
			zap.Uint("habit_id", habit.ID),
			zap.Int("days_since", daysSince),
		)
	case daysSince >= 1:
		dayStart, dayEnd := clock.DayBounds(now)
		done, err := store.ExistsInRangeWithStatus(habit.ID, 0, dayStart, dayEnd, countingStatuses)
		if err != nil {
			return err
		}
		if done || habit.FreezesRemaining <= 0 {
			return nil
		}
		habit.FreezesRemaining--
		if user.FreezeBalance > 0 {
			user.FreezeBalance--
		}
		if err := store.Create(frozenLog(habit.ID, now, false)); err != nil {
			return err
		}
		if err := tx.Save(habit).Error; err != nil {
			return err
		}
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		utils.FreezesUsedTotal.WithLabelValues("auto").Inc()
		s.logger.Info("freeze_auto_consumed",
			zap.Uint("habit_id", habit.ID),
			zap.Int("days_since", daysSince),
			zap.Int("remaining", habit.FreezesRemaining),
		)
	}
	return nil
}

func frozenLog(habitID uint, now time.Time, manual bool) *models.HabitLog {
	end := now
	duration := 0
	return &models.HabitLog{
		HabitID:     habitID,
		StartTime:   now,
		EndTime:     &end,
		DurationMin: &duration,
		IsManual:    manual,
		Status:      models.LogStatusFrozen,
	}
}
