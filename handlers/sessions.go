package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quddusi-t/habit-tracker/engine"
	"github.com/quddusi-t/habit-tracker/middleware"
)

// StartSession opens a timer session for the habit.
func StartSession(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	log, err := Engine.StartSession(habit.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "start_session", err)
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusCreated, log)
}

// StopSession closes a running session and records the completion.
func StopSession(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}
	logID, err := strconv.ParseUint(c.Param("logID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log id"})
		return
	}

	result, err := Engine.StopSession(habit.ID, uint(logID), time.Now().UTC())
	if err != nil {
		engineError(c, "stop_session", err)
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusOK, result)
}

// CreateManualEntry records a completed session with a caller-supplied
// duration.
func CreateManualEntry(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	var input engine.ManualEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}

	result, err := Engine.CreateManualEntry(habit.ID, input, time.Now().UTC())
	if err != nil {
		engineError(c, "create_manual_entry", err)
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusCreated, result)
}

// GetLogs lists every log for a habit, oldest first.
func GetLogs(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	logs, err := Engine.Logs().AllForHabit(habit.ID)
	if err != nil {
		engineError(c, "get_logs", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetActiveSession returns the running session, if any.
func GetActiveSession(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	log, err := Engine.Logs().ActiveSession(habit.ID)
	if err != nil {
		engineError(c, "get_active_session", err)
		return
	}
	c.JSON(http.StatusOK, log)
}
