package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/quddusi-t/habit-tracker/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// An in-memory sqlite database is private to its connection; cap the pool
	// so concurrent engine reads share the one holding the data.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.User{}, &models.Habit{}, &models.HabitLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, zap.NewNop()), db
}

func createHabit(t *testing.T, db *gorm.DB, mutate func(*models.Habit)) *models.Habit {
	t.Helper()
	user := models.User{Email: "tester@example.com"}
	if err := db.Where(&user).FirstOrCreate(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	habit := models.Habit{
		UserID:              user.ID,
		Name:                "Test Habit",
		IsTimer:             true,
		AllowManualOverride: true,
		IsFreezable:         true,
		DangerStartPct:      0.7,
	}
	if mutate != nil {
		mutate(&habit)
	}
	if err := db.Create(&habit).Error; err != nil {
		t.Fatalf("create habit: %v", err)
	}
	return &habit
}

func reloadHabit(t *testing.T, db *gorm.DB, id uint) *models.Habit {
	t.Helper()
	var habit models.Habit
	if err := db.First(&habit, id).Error; err != nil {
		t.Fatalf("reload habit: %v", err)
	}
	return &habit
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &user
}

// noon on an arbitrary fixed day, so tests are insensitive to wall clock
var baseDay = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestCompleteIncrementsStreak(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	result, err := svc.Complete(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !result.Success || result.Streak != 1 {
		t.Fatalf("got streak %d, want 1", result.Streak)
	}
	if result.FreezeEarned {
		t.Fatalf("did not expect a freeze on day 1")
	}
	if got := reloadHabit(t, db, habit.ID).CurrentStreak; got != 1 {
		t.Fatalf("stored streak=%d, want 1", got)
	}
}

func TestCompleteTwiceSameDayFails(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	if _, err := svc.Complete(habit.ID, baseDay); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	_, err := svc.Complete(habit.ID, baseDay.Add(2*time.Hour))
	if !errors.Is(err, ErrAlreadyCompletedToday) {
		t.Fatalf("got %v, want ErrAlreadyCompletedToday", err)
	}
	if got := reloadHabit(t, db, habit.ID).CurrentStreak; got != 1 {
		t.Fatalf("streak=%d after rejected complete, want 1", got)
	}
}

func TestCompleteUnknownHabit(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Complete(999, baseDay); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("got %v, want ErrHabitNotFound", err)
	}
}

func TestSevenDayStreakEarnsFreeze(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	var last *CompletionResult
	for day := 0; day < 7; day++ {
		var err error
		last, err = svc.Complete(habit.ID, baseDay.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
		if day < 6 && last.FreezeEarned {
			t.Fatalf("freeze earned on day %d", day)
		}
	}
	if last.Streak != 7 {
		t.Fatalf("streak=%d, want 7", last.Streak)
	}
	if !last.FreezeEarned || last.FreezeBalance != 1 {
		t.Fatalf("earned=%v balance=%d, want earned with balance 1", last.FreezeEarned, last.FreezeBalance)
	}
}

func TestFourteenDayStreakCapsFreezes(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	var last *CompletionResult
	for day := 0; day < 14; day++ {
		var err error
		last, err = svc.Complete(habit.ID, baseDay.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
	}
	if last.Streak != 14 || last.FreezeBalance != 2 {
		t.Fatalf("streak=%d balance=%d, want 14 and 2", last.Streak, last.FreezeBalance)
	}

	// Seven more days: balance stays capped at 2.
	for day := 14; day < 21; day++ {
		var err error
		last, err = svc.Complete(habit.ID, baseDay.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
	}
	if last.FreezeBalance != 2 {
		t.Fatalf("balance=%d after 21 days, want capped at 2", last.FreezeBalance)
	}
}

func TestVirginHabitAtFourteenBanksTwoFreezes(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	habit.CurrentStreak = 13
	habit.FreezesRemaining = 0
	if err := db.Save(habit).Error; err != nil {
		t.Fatalf("seed streak: %v", err)
	}

	result, err := svc.Complete(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	// Both the 7-day and 14-day milestones fire on the same completion.
	if result.Streak != 14 || result.FreezeBalance != 2 {
		t.Fatalf("streak=%d balance=%d, want 14 and 2", result.Streak, result.FreezeBalance)
	}
}

func TestNonFreezableHabitNeverEarns(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.IsFreezable = false })

	for day := 0; day < 7; day++ {
		result, err := svc.Complete(habit.ID, baseDay.AddDate(0, 0, day))
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
		if result.FreezeEarned || result.FreezeBalance != 0 {
			t.Fatalf("non-freezable habit earned a freeze on day %d", day)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	log, err := svc.StartSession(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if log.EndTime != nil || log.Status != models.LogStatusPending {
		t.Fatalf("fresh session should be pending with no end time")
	}

	if _, err := svc.StartSession(habit.ID, baseDay.Add(time.Minute)); !errors.Is(err, ErrSessionAlreadyActive) {
		t.Fatalf("second start: got %v, want ErrSessionAlreadyActive", err)
	}

	result, err := svc.StopSession(habit.ID, log.ID, baseDay.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if result.Streak != 1 {
		t.Fatalf("streak=%d after first session, want 1", result.Streak)
	}
	if result.Log.DurationMin == nil || *result.Log.DurationMin != 45 {
		t.Fatalf("duration=%v, want 45", result.Log.DurationMin)
	}
	if result.Log.Status != models.LogStatusCompleted {
		t.Fatalf("status=%s, want completed", result.Log.Status)
	}

	if _, err := svc.StopSession(habit.ID, log.ID, baseDay.Add(time.Hour)); !errors.Is(err, ErrSessionAlreadyStopped) {
		t.Fatalf("double stop: got %v, want ErrSessionAlreadyStopped", err)
	}
	if _, err := svc.StopSession(habit.ID, 999, baseDay); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing log: got %v, want ErrSessionNotFound", err)
	}
}

func TestSecondSessionSameDayDoesNotBumpStreak(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	first, err := svc.StartSession(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("start first: %v", err)
	}
	if _, err := svc.StopSession(habit.ID, first.ID, baseDay.Add(30*time.Minute)); err != nil {
		t.Fatalf("stop first: %v", err)
	}

	second, err := svc.StartSession(habit.ID, baseDay.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("start second: %v", err)
	}
	result, err := svc.StopSession(habit.ID, second.ID, baseDay.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("stop second: %v", err)
	}
	if result.Streak != 1 {
		t.Fatalf("streak=%d after second same-day session, want 1", result.Streak)
	}
}

func TestManualEntry(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	duration := 25
	result, err := svc.CreateManualEntry(habit.ID, ManualEntryInput{DurationMin: &duration, Notes: "lunch walk"}, baseDay)
	if err != nil {
		t.Fatalf("CreateManualEntry: %v", err)
	}
	if result.Streak != 1 {
		t.Fatalf("streak=%d, want 1", result.Streak)
	}
	if !result.Log.IsManual || result.Log.Notes != "lunch walk" {
		t.Fatalf("manual log not recorded as manual with notes")
	}
	if result.Log.DurationMin == nil || *result.Log.DurationMin != 25 {
		t.Fatalf("duration=%v, want 25", result.Log.DurationMin)
	}

	// A second manual entry on the same day records a log but not a streak bump.
	again, err := svc.CreateManualEntry(habit.ID, ManualEntryInput{DurationMin: &duration}, baseDay.Add(time.Hour))
	if err != nil {
		t.Fatalf("second manual entry: %v", err)
	}
	if again.Streak != 1 {
		t.Fatalf("streak=%d after second entry, want 1", again.Streak)
	}
}

func TestManualEntryRejectedWithoutOverride(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.AllowManualOverride = false })

	_, err := svc.CreateManualEntry(habit.ID, ManualEntryInput{}, baseDay)
	if !errors.Is(err, ErrManualEntryNotAllowed) {
		t.Fatalf("got %v, want ErrManualEntryNotAllowed", err)
	}
}

func TestUseFreeze(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	habit.CurrentStreak = 7
	habit.FreezesRemaining = 1
	if err := db.Save(habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}

	result, err := svc.UseFreeze(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("UseFreeze: %v", err)
	}
	if result.FreezeBalance != 0 || result.FreezeUsedInRow != 1 {
		t.Fatalf("balance=%d row=%d, want 0 and 1", result.FreezeBalance, result.FreezeUsedInRow)
	}

	var frozen models.HabitLog
	if err := db.Where("habit_id = ? AND status = ?", habit.ID, models.LogStatusFrozen).First(&frozen).Error; err != nil {
		t.Fatalf("expected a frozen log for today: %v", err)
	}
	if !frozen.IsManual {
		t.Fatalf("player-initiated freeze should create a manual log")
	}
}

func TestUseFreezeMarksExistingLog(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.FreezesRemaining = 1 })

	log, err := svc.StartSession(habit.ID, baseDay)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := svc.UseFreeze(habit.ID, baseDay.Add(time.Hour)); err != nil {
		t.Fatalf("UseFreeze: %v", err)
	}

	var reloaded models.HabitLog
	if err := db.First(&reloaded, log.ID).Error; err != nil {
		t.Fatalf("reload log: %v", err)
	}
	if reloaded.Status != models.LogStatusFrozen {
		t.Fatalf("existing log status=%s, want frozen", reloaded.Status)
	}
}

func TestUseFreezeErrors(t *testing.T) {
	svc, db := newTestService(t)

	notFreezable := createHabit(t, db, func(h *models.Habit) {
		h.IsFreezable = false
		h.FreezesRemaining = 2
	})
	if _, err := svc.UseFreeze(notFreezable.ID, baseDay); !errors.Is(err, ErrHabitNotFreezable) {
		t.Fatalf("got %v, want ErrHabitNotFreezable", err)
	}

	broke := createHabit(t, db, func(h *models.Habit) { h.Name = "Broke" })
	if _, err := svc.UseFreeze(broke.ID, baseDay); !errors.Is(err, ErrNoFreezeAvailable) {
		t.Fatalf("got %v, want ErrNoFreezeAvailable", err)
	}
}

func TestFreezeRowLimitBeatsBalance(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.FreezesRemaining = 2 })

	user := reloadUser(t, db, habit.UserID)
	user.FreezeUsedInRow = 2
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// Balance is available but the consecutive-use limit wins.
	_, err := svc.UseFreeze(habit.ID, baseDay)
	if !errors.Is(err, ErrFreezeLimitExceeded) {
		t.Fatalf("got %v, want ErrFreezeLimitExceeded", err)
	}
	if got := reloadHabit(t, db, habit.ID).FreezesRemaining; got != 2 {
		t.Fatalf("balance=%d after rejected freeze, want untouched 2", got)
	}
}

func TestTwoFreezesInARowThenBlocked(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.FreezesRemaining = 2 })

	r1, err := svc.UseFreeze(habit.ID, baseDay)
	if err != nil || r1.FreezeUsedInRow != 1 {
		t.Fatalf("first freeze: %v row=%d", err, r1.FreezeUsedInRow)
	}
	r2, err := svc.UseFreeze(habit.ID, baseDay.AddDate(0, 0, 1))
	if err != nil || r2.FreezeUsedInRow != 2 {
		t.Fatalf("second freeze: %v row=%d", err, r2.FreezeUsedInRow)
	}
	if _, err := svc.UseFreeze(habit.ID, baseDay.AddDate(0, 0, 2)); !errors.Is(err, ErrFreezeLimitExceeded) {
		t.Fatalf("third freeze: got %v, want ErrFreezeLimitExceeded", err)
	}
}

func TestCompletionResetsFreezeRow(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.FreezesRemaining = 2 })

	if _, err := svc.UseFreeze(habit.ID, baseDay); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if _, err := svc.Complete(habit.ID, baseDay.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := reloadUser(t, db, habit.UserID).FreezeUsedInRow; got != 0 {
		t.Fatalf("freeze_used_in_row=%d after completion, want 0", got)
	}
}

func TestDecayTwoDayGapConsumesFreeze(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	if _, err := svc.Complete(habit.ID, baseDay); err != nil {
		t.Fatalf("complete: %v", err)
	}
	habit = reloadHabit(t, db, habit.ID)
	habit.FreezesRemaining = 1
	if err := db.Save(habit).Error; err != nil {
		t.Fatalf("seed freeze: %v", err)
	}

	twoDaysLater := baseDay.AddDate(0, 0, 2)
	if err := svc.ApplyAutomaticDecay(habit.ID, twoDaysLater); err != nil {
		t.Fatalf("decay: %v", err)
	}

	habit = reloadHabit(t, db, habit.ID)
	if habit.CurrentStreak != 1 {
		t.Fatalf("streak=%d after frozen gap, want preserved 1", habit.CurrentStreak)
	}
	if habit.FreezesRemaining != 0 {
		t.Fatalf("freezes=%d, want exactly one consumed", habit.FreezesRemaining)
	}

	var frozen models.HabitLog
	if err := db.Where("habit_id = ? AND status = ?", habit.ID, models.LogStatusFrozen).First(&frozen).Error; err != nil {
		t.Fatalf("expected auto frozen log: %v", err)
	}
	if frozen.IsManual {
		t.Fatalf("auto-consumed freeze should not be a manual log")
	}

	// Repeat call on the same day is a no-op: today already has a frozen log.
	if err := svc.ApplyAutomaticDecay(habit.ID, twoDaysLater.Add(time.Hour)); err != nil {
		t.Fatalf("second decay: %v", err)
	}
	if got := reloadHabit(t, db, habit.ID).FreezesRemaining; got != 0 {
		t.Fatalf("freezes=%d after repeat decay, want still 0", got)
	}
}

func TestDecayThreeDayGapResetsStreak(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	if _, err := svc.Complete(habit.ID, baseDay); err != nil {
		t.Fatalf("complete: %v", err)
	}
	habit = reloadHabit(t, db, habit.ID)
	habit.CurrentStreak = 9
	habit.FreezesRemaining = 2
	if err := db.Save(habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}

	if err := svc.ApplyAutomaticDecay(habit.ID, baseDay.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("decay: %v", err)
	}

	habit = reloadHabit(t, db, habit.ID)
	if habit.CurrentStreak != 0 {
		t.Fatalf("streak=%d after 3-day gap, want 0", habit.CurrentStreak)
	}
	// A hard reset is terminal; the freeze balance is not spent on it.
	if habit.FreezesRemaining != 2 {
		t.Fatalf("freezes=%d after hard reset, want untouched 2", habit.FreezesRemaining)
	}
}

func TestDecayWithoutFreezeLeavesStreakUntilHardReset(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, nil)

	if _, err := svc.Complete(habit.ID, baseDay); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// One-day gap with no freeze: nothing changes on this pass.
	if err := svc.ApplyAutomaticDecay(habit.ID, baseDay.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("decay day 1: %v", err)
	}
	if got := reloadHabit(t, db, habit.ID).CurrentStreak; got != 1 {
		t.Fatalf("streak=%d after day-1 pass, want 1", got)
	}

	// The gap keeps growing; day 3 is the hard reset.
	if err := svc.ApplyAutomaticDecay(habit.ID, baseDay.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("decay day 3: %v", err)
	}
	if got := reloadHabit(t, db, habit.ID).CurrentStreak; got != 0 {
		t.Fatalf("streak=%d after day-3 pass, want 0", got)
	}
}

func TestDecaySameDayAndNoHistoryAreNoOps(t *testing.T) {
	svc, db := newTestService(t)
	habit := createHabit(t, db, func(h *models.Habit) { h.FreezesRemaining = 2 })

	// No counting log at all: nothing to decay.
	if err := svc.ApplyAutomaticDecay(habit.ID, baseDay); err != nil {
		t.Fatalf("decay without history: %v", err)
	}
	if got := reloadHabit(t, db, habit.ID).FreezesRemaining; got != 2 {
		t.Fatalf("freezes=%d, want untouched 2", got)
	}

	if _, err := svc.Complete(habit.ID, baseDay); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := svc.ApplyAutomaticDecay(habit.ID, baseDay.Add(4*time.Hour)); err != nil {
		t.Fatalf("same-day decay: %v", err)
	}
	habit = reloadHabit(t, db, habit.ID)
	if habit.CurrentStreak != 1 || habit.FreezesRemaining != 2 {
		t.Fatalf("same-day decay mutated state: streak=%d freezes=%d", habit.CurrentStreak, habit.FreezesRemaining)
	}
}
