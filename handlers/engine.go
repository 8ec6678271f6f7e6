package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quddusi-t/habit-tracker/middleware"
)

// CompleteHabit is the explicit "done for today" action.
func CompleteHabit(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	result, err := Engine.Complete(habit.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "complete_habit", err)
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusOK, result)
}

// UseFreeze spends one freeze on today.
func UseFreeze(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	result, err := Engine.UseFreeze(habit.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "use_freeze", err)
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusOK, result)
}

// GetStatus reconciles missed days, then classifies the habit's day.
func GetStatus(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	status, err := Engine.Status(habit.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "get_status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetStats returns the timer or manual stats summary for a habit.
func GetStats(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	stats, err := Engine.Stats(habit.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "get_stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetOverview returns today's status across all of the caller's habits.
func GetOverview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	overview, err := Engine.Overview(user.ID, time.Now().UTC())
	if err != nil {
		engineError(c, "get_overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
