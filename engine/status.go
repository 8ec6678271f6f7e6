package engine

import (
	"time"

	"github.com/quddusi-t/habit-tracker/clock"
	"github.com/quddusi-t/habit-tracker/models"
	"gorm.io/gorm"
)

type HabitStatus struct {
	HabitID          uint               `json:"habit_id"`
	Status           models.LogStatus   `json:"status"`
	CurrentStreak    int                `json:"current_streak"`
	Color            models.StatusColor `json:"color"`
	InDanger         bool               `json:"in_danger"`
	FreezesRemaining int                `json:"freezes_remaining"`
}

// Status runs the decay pass and classifies the habit's day: what state it is
// in, how urgent it looks and whether the streak is in danger.
func (s *Service) Status(habitID uint, now time.Time) (*HabitStatus, error) {
	var status *HabitStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		habit, err := s.habitByID(tx, habitID)
		if err != nil {
			return err
		}
		user, err := s.ownerOf(tx, habit)
		if err != nil {
			return err
		}
		if err := s.decay(tx, habit, user, now); err != nil {
			return err
		}

		store := s.logs.WithTx(tx)
		dayStart, dayEnd := clock.DayBounds(now)
		completed, err := store.ExistsInRangeWithStatus(habitID, 0, dayStart, dayEnd, []models.LogStatus{models.LogStatusCompleted})
		if err != nil {
			return err
		}
		dayState := models.LogStatusPending
		if completed {
			dayState = models.LogStatusCompleted
		} else {
			frozen, err := store.ExistsInRangeWithStatus(habitID, 0, dayStart, dayEnd, []models.LogStatus{models.LogStatusFrozen})
			if err != nil {
				return err
			}
			if frozen {
				dayState = models.LogStatusFrozen
			}
		}

		color, inDanger := Classify(habit, dayState, now)
		status = &HabitStatus{
			HabitID:          habit.ID,
			Status:           dayState,
			CurrentStreak:    habit.CurrentStreak,
			Color:            color,
			InDanger:         inDanger,
			FreezesRemaining: habit.FreezesRemaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Classify maps a habit-day state and the time of day to a color and danger
// flag. Completed days are green and never in danger; everything else,
// frozen days included, ages through the yellow/orange/red ramp.
func Classify(habit *models.Habit, dayState models.LogStatus, now time.Time) (models.StatusColor, bool) {
	if dayState == models.LogStatusCompleted {
		return models.ColorGreen, false
	}
	pct := clock.PercentOfDayElapsed(now)
	inDanger := pct >= habit.DangerStartPct
	switch {
	case pct < 0.5:
		return models.ColorYellow, inDanger
	case pct < 0.85:
		return models.ColorOrange, inDanger
	default:
		return models.ColorRed, inDanger
	}
}
