package engine

import (
	"errors"

	"github.com/quddusi-t/habit-tracker/logstore"
	"github.com/quddusi-t/habit-tracker/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxFreezes caps the per-habit freeze currency.
const MaxFreezes = 2

// MaxFreezeRow caps consecutive freeze spends without a real completion.
const MaxFreezeRow = 2

// Service is the streak & freeze engine. Every public operation runs as a
// single gorm transaction over Habit + User + HabitLog so the related
// mutations commit together.
type Service struct {
	db     *gorm.DB
	logs   *logstore.Store
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		logs:   logstore.New(db),
		logger: logger,
	}
}

// Logs exposes the read-only log query surface, used by the list endpoints.
func (s *Service) Logs() *logstore.Store {
	return s.logs
}

func (s *Service) habitByID(tx *gorm.DB, habitID uint) (*models.Habit, error) {
	var habit models.Habit
	err := tx.First(&habit, habitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrHabitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *Service) ownerOf(tx *gorm.DB, habit *models.Habit) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, habit.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Habit loads a habit outside any engine operation, for handlers that need
// ownership checks before dispatching.
func (s *Service) Habit(habitID uint) (*models.Habit, error) {
	return s.habitByID(s.db, habitID)
}
