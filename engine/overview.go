package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/quddusi-t/habit-tracker/cache"
	"github.com/quddusi-t/habit-tracker/models"
	"go.uber.org/zap"
)

type OverviewHabit struct {
	HabitID uint         `json:"habit_id"`
	Name    string       `json:"name"`
	Status  *HabitStatus `json:"status"`
	err     error
}

type Overview struct {
	UserID           uint            `json:"user_id"`
	TotalHabits      int             `json:"total_habits"`
	CompletedToday   int             `json:"completed_today"`
	FrozenToday      int             `json:"frozen_today"`
	PendingToday     int             `json:"pending_today"`
	Habits           []OverviewHabit `json:"habits"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

// Overview computes the status of every habit a user owns. Each habit is
// independent, so the per-habit decay-and-classify passes run in their own
// goroutines with results collected over a channel. The aggregate is cached
// in redis for a short window; writes invalidate it.
func (s *Service) Overview(userID uint, now time.Time) (*Overview, error) {
	startTime := time.Now()

	cacheKey := fmt.Sprintf("overview:%d", userID)
	var cached Overview
	if err := cache.Get(cacheKey, &cached); err == nil {
		s.logger.Info("overview_cache_hit", zap.Uint("user_id", userID))
		return &cached, nil
	}

	var habits []models.Habit
	if err := s.db.Where("user_id = ?", userID).Find(&habits).Error; err != nil {
		return nil, err
	}

	overview := &Overview{UserID: userID, TotalHabits: len(habits)}
	if len(habits) == 0 {
		return overview, nil
	}

	results := make(chan OverviewHabit, len(habits))
	var wg sync.WaitGroup
	for _, habit := range habits {
		wg.Add(1)
		go func(h models.Habit) {
			defer wg.Done()
			status, err := s.Status(h.ID, now)
			results <- OverviewHabit{HabitID: h.ID, Name: h.Name, Status: status, err: err}
		}(habit)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for entry := range results {
		if entry.err != nil {
			s.logger.Warn("overview_habit_failed",
				zap.Uint("habit_id", entry.HabitID),
				zap.Error(entry.err),
			)
			continue
		}
		switch entry.Status.Status {
		case models.LogStatusCompleted:
			overview.CompletedToday++
		case models.LogStatusFrozen:
			overview.FrozenToday++
		default:
			overview.PendingToday++
		}
		overview.Habits = append(overview.Habits, entry)
	}
	elapsed := time.Since(startTime)
	overview.ProcessingTimeMs = elapsed.Milliseconds()

	if err := cache.Set(cacheKey, overview, time.Minute); err == nil {
		s.logger.Info("overview_cached", zap.Uint("user_id", userID))
	}

	s.logger.Info("overview_computed",
		zap.Uint("user_id", userID),
		zap.Int("habits_count", len(habits)),
		zap.Duration("duration", elapsed),
	)
	return overview, nil
}
