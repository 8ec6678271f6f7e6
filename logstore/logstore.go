package logstore

import (
	"errors"
	"time"

	"github.com/quddusi-t/habit-tracker/models"
	"gorm.io/gorm"
)

// Store is the query surface the engine needs over habit logs. Logs are
// append/update only; nothing here deletes or reorders them.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction handle.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

func (s *Store) Create(log *models.HabitLog) error {
	return s.db.Create(log).Error
}

func (s *Store) Save(log *models.HabitLog) error {
	return s.db.Save(log).Error
}

func (s *Store) ByID(habitID, logID uint) (*models.HabitLog, error) {
	var log models.HabitLog
	err := s.db.Where("id = ? AND habit_id = ?", logID, habitID).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// ActiveSession returns the habit's single log with a null end_time, if any.
func (s *Store) ActiveSession(habitID uint) (*models.HabitLog, error) {
	var log models.HabitLog
	err := s.db.Where("habit_id = ? AND end_time IS NULL", habitID).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// InRange returns logs with start_time in [start, end), ascending by default.
func (s *Store) InRange(habitID uint, start, end time.Time, desc bool) ([]models.HabitLog, error) {
	order := "start_time ASC"
	if desc {
		order = "start_time DESC"
	}
	var logs []models.HabitLog
	err := s.db.
		Where("habit_id = ? AND start_time >= ? AND start_time < ?", habitID, start, end).
		Order(order).
		Find(&logs).Error
	return logs, err
}

// ExistsInRangeWithStatus reports whether any log in [start, end) carries one
// of the given statuses. excludeID skips a single log (0 skips nothing).
func (s *Store) ExistsInRangeWithStatus(habitID, excludeID uint, start, end time.Time, statuses []models.LogStatus) (bool, error) {
	q := s.db.Model(&models.HabitLog{}).
		Where("habit_id = ? AND start_time >= ? AND start_time < ? AND status IN ?", habitID, start, end, statuses)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestWithStatus returns the most recent log carrying one of the given
// statuses, or nil if there is none.
func (s *Store) LatestWithStatus(habitID uint, statuses []models.LogStatus) (*models.HabitLog, error) {
	var log models.HabitLog
	err := s.db.
		Where("habit_id = ? AND status IN ?", habitID, statuses).
		Order("start_time DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// LatestInRange returns the most recent log in [start, end) regardless of
// status, or nil if the bucket is empty.
func (s *Store) LatestInRange(habitID uint, start, end time.Time) (*models.HabitLog, error) {
	var log models.HabitLog
	err := s.db.
		Where("habit_id = ? AND start_time >= ? AND start_time < ?", habitID, start, end).
		Order("start_time DESC").
		First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (s *Store) AllForHabit(habitID uint) ([]models.HabitLog, error) {
	var logs []models.HabitLog
	err := s.db.Where("habit_id = ?", habitID).Order("start_time ASC").Find(&logs).Error
	return logs, err
}

// CompletedSessions returns finished completed logs (non-null end_time),
// ascending by start_time. These are the rows timer stats run over.
func (s *Store) CompletedSessions(habitID uint) ([]models.HabitLog, error) {
	var logs []models.HabitLog
	err := s.db.
		Where("habit_id = ? AND status = ? AND end_time IS NOT NULL", habitID, models.LogStatusCompleted).
		Order("start_time ASC").
		Find(&logs).Error
	return logs, err
}

// CountWithStatus counts the habit's logs carrying the given status.
func (s *Store) CountWithStatus(habitID uint, status models.LogStatus) (int64, error) {
	var count int64
	err := s.db.Model(&models.HabitLog{}).
		Where("habit_id = ? AND status = ?", habitID, status).
		Count(&count).Error
	return count, err
}
