package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// LogStatus is the lifecycle state of a single habit log.
type LogStatus string

const (
	LogStatusPending   LogStatus = "pending"
	LogStatusCompleted LogStatus = "completed"
	LogStatusFrozen    LogStatus = "frozen"
)

// StatusColor is the urgency color shown for a habit-day.
type StatusColor string

const (
	ColorGreen  StatusColor = "green"
	ColorYellow StatusColor = "yellow"
	ColorOrange StatusColor = "orange"
	ColorRed    StatusColor = "red"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"unique" json:"email"`
	PasswordHash string `json:"-"`
	Role         string `gorm:"default:user" json:"role"`
	// Legacy global freeze fields. Per-habit FreezesRemaining is authoritative
	// for the spend decision; FreezeBalance is kept as a mirror for old clients.
	FreezeBalance   int       `gorm:"default:0" json:"freeze_balance"`
	FreezeUsedInRow int       `gorm:"default:0" json:"freeze_used_in_row"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	Habits          []Habit   `gorm:"foreignKey:UserID"`
}

type Habit struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              uint       `json:"user_id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	// Boolean defaults are set at creation time, not via column defaults,
	// so an explicit false is never overridden on insert.
	IsTimer             bool       `json:"is_timer"`
	AllowManualOverride bool       `json:"allow_manual_override"`
	IsFreezable         bool       `json:"is_freezable"`
	DangerStartPct      float64    `json:"danger_start_pct"`
	CurrentStreak       int        `gorm:"default:0" json:"current_streak"`
	FreezesRemaining    int        `gorm:"default:0" json:"freezes_remaining"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Logs                []HabitLog `gorm:"foreignKey:HabitID"`
}

type HabitLog struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	HabitID     uint       `json:"habit_id"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	DurationMin *int       `json:"duration_min"`
	IsManual    bool       `gorm:"default:false" json:"is_manual"`
	Notes       string     `json:"notes"`
	Status      LogStatus  `gorm:"default:pending" json:"status"`
}

// Counts reports whether the log marks its day as done (completed or frozen).
func (l *HabitLog) Counts() bool {
	return l.Status == LogStatusCompleted || l.Status == LogStatusFrozen
}
