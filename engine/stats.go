package engine

import (
	"sort"
	"time"

	"github.com/quddusi-t/habit-tracker/clock"
	"github.com/quddusi-t/habit-tracker/models"
)

type TimerStats struct {
	SessionsCount        int     `json:"sessions_count"`
	TotalTimeMinutes     int     `json:"total_time_minutes"`
	AvgSessionMinutes    float64 `json:"avg_session_minutes"`
	MedianSessionMinutes float64 `json:"median_session_minutes"`
	BestDayMinutes       int     `json:"best_day_minutes"`
	ThisWeekMinutes      int     `json:"this_week_minutes"`
	ThisMonthMinutes     int     `json:"this_month_minutes"`
}

type ManualStats struct {
	TotalCompletions      int     `json:"total_completions"`
	DaysSinceCreated      int     `json:"days_since_created"`
	CompletionRatePercent float64 `json:"completion_rate_percent"`
	BestStreak            int     `json:"best_streak"`
}

type HabitStats struct {
	HabitID          uint        `json:"habit_id"`
	HabitType        string      `json:"habit_type"`
	Stats            interface{} `json:"stats"`
	FreezesUsed      int         `json:"freezes_used"`
	FreezesRemaining int         `json:"freezes_remaining"`
	BestStreak       int         `json:"best_streak"`
	StreakStartDate  *time.Time  `json:"streak_start_date"`
}

// Stats computes the read-side summary for a habit, dispatching on its type.
// It only reads logs; a concurrent writer may make the snapshot slightly
// stale, which is acceptable here.
func (s *Service) Stats(habitID uint, now time.Time) (*HabitStats, error) {
	habit, err := s.Habit(habitID)
	if err != nil {
		return nil, err
	}

	stats := &HabitStats{
		HabitID:          habit.ID,
		FreezesRemaining: habit.FreezesRemaining,
		BestStreak:       habit.CurrentStreak,
	}

	frozenCount, err := s.logs.CountWithStatus(habitID, models.LogStatusFrozen)
	if err != nil {
		return nil, err
	}
	stats.FreezesUsed = int(frozenCount)

	if habit.IsTimer {
		stats.HabitType = "timer"
		timer, err := s.timerStats(habitID, now)
		if err != nil {
			return nil, err
		}
		stats.Stats = timer
	} else {
		stats.HabitType = "manual"
		manual, err := s.manualStats(habit, now)
		if err != nil {
			return nil, err
		}
		stats.Stats = manual
	}

	start, err := s.streakStartDate(habit, now)
	if err != nil {
		return nil, err
	}
	stats.StreakStartDate = start
	return stats, nil
}

func (s *Service) timerStats(habitID uint, now time.Time) (*TimerStats, error) {
	sessions, err := s.logs.CompletedSessions(habitID)
	if err != nil {
		return nil, err
	}

	stats := &TimerStats{SessionsCount: len(sessions)}
	if len(sessions) == 0 {
		return stats, nil
	}

	weekCutoff := now.Add(-7 * 24 * time.Hour)
	monthCutoff := now.Add(-30 * 24 * time.Hour)

	durations := make([]int, 0, len(sessions))
	perDay := make(map[int64]int)
	for _, log := range sessions {
		minutes := 0
		if log.DurationMin != nil {
			minutes = *log.DurationMin
		}
		durations = append(durations, minutes)
		stats.TotalTimeMinutes += minutes
		perDay[dayIndex(log.StartTime)] += minutes
		if !log.StartTime.Before(weekCutoff) {
			stats.ThisWeekMinutes += minutes
		}
		if !log.StartTime.Before(monthCutoff) {
			stats.ThisMonthMinutes += minutes
		}
	}

	stats.AvgSessionMinutes = float64(stats.TotalTimeMinutes) / float64(len(sessions))
	stats.MedianSessionMinutes = median(durations)
	for _, minutes := range perDay {
		if minutes > stats.BestDayMinutes {
			stats.BestDayMinutes = minutes
		}
	}
	return stats, nil
}

func (s *Service) manualStats(habit *models.Habit, now time.Time) (*ManualStats, error) {
	logs, err := s.logs.AllForHabit(habit.ID)
	if err != nil {
		return nil, err
	}

	stats := &ManualStats{}
	daySet := make(map[int64]struct{})
	for _, log := range logs {
		if log.Status != models.LogStatusCompleted {
			continue
		}
		stats.TotalCompletions++
		daySet[dayIndex(log.StartTime)] = struct{}{}
	}

	stats.DaysSinceCreated = int(now.Sub(habit.CreatedAt).Hours() / 24)
	if stats.DaysSinceCreated > 0 {
		stats.CompletionRatePercent = float64(stats.TotalCompletions) / float64(stats.DaysSinceCreated) * 100
	}
	stats.BestStreak = longestRun(daySet)
	return stats, nil
}

// streakStartDate walks counting logs newest-first across distinct days; if
// the contiguous run matches the stored streak, it reports when it began.
func (s *Service) streakStartDate(habit *models.Habit, now time.Time) (*time.Time, error) {
	if habit.CurrentStreak == 0 {
		return nil, nil
	}
	logs, err := s.logs.InRange(habit.ID, time.Time{}, now.Add(24*time.Hour), true)
	if err != nil {
		return nil, err
	}

	runLength := 0
	var lastDay int64
	var oldest time.Time
	for _, log := range logs {
		if !log.Counts() {
			continue
		}
		day := dayIndex(log.StartTime)
		switch {
		case runLength == 0:
			runLength = 1
		case day == lastDay:
			// Another log on the same day; it is older, so it becomes the
			// run's start candidate.
		case day == lastDay-1:
			runLength++
		default:
			if runLength == habit.CurrentStreak {
				return &oldest, nil
			}
			return nil, nil
		}
		lastDay = day
		oldest = log.StartTime
	}

	if runLength == habit.CurrentStreak && runLength > 0 {
		return &oldest, nil
	}
	return nil, nil
}

func dayIndex(t time.Time) int64 {
	start, _ := clock.DayBounds(t)
	return start.Unix() / (24 * 60 * 60)
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// longestRun finds the longest stretch of consecutive day indexes in the set.
func longestRun(days map[int64]struct{}) int {
	if len(days) == 0 {
		return 0
	}
	sorted := make([]int64, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	best, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] == 1 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 1
		}
	}
	return best
}
