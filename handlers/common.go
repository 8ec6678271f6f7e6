package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quddusi-t/habit-tracker/engine"
	"github.com/quddusi-t/habit-tracker/models"
	"github.com/quddusi-t/habit-tracker/utils"
	"go.uber.org/zap"
)

// Engine is the shared streak/freeze engine instance, set from main.
var Engine *engine.Service

func currentUser(c *gin.Context) (models.User, bool) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.User{}, false
	}
	return userInterface.(models.User), true
}

func habitIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid habit id"})
		return 0, false
	}
	return uint(id), true
}

// ownedHabit loads the habit and enforces that the caller owns it (admins see
// everything).
func ownedHabit(c *gin.Context) (*models.Habit, bool) {
	id, ok := habitIDParam(c)
	if !ok {
		return nil, false
	}
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}
	habit, err := Engine.Habit(id)
	if err != nil {
		engineError(c, "get_habit", err)
		return nil, false
	}
	if habit.UserID != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": engine.ErrHabitNotFound.Error()})
		return nil, false
	}
	return habit, true
}

// engineError maps the engine's sentinel errors to HTTP responses.
func engineError(c *gin.Context, handler string, err error) {
	switch {
	case errors.Is(err, engine.ErrHabitNotFound),
		errors.Is(err, engine.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrAlreadyCompletedToday):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrHabitNotFreezable),
		errors.Is(err, engine.ErrNoFreezeAvailable),
		errors.Is(err, engine.ErrFreezeLimitExceeded),
		errors.Is(err, engine.ErrSessionAlreadyStopped),
		errors.Is(err, engine.ErrSessionAlreadyActive),
		errors.Is(err, engine.ErrManualEntryNotAllowed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		utils.ErrorCount.WithLabelValues(handler, "internal").Inc()
		utils.Logger.Error("handler_failed", zap.String("handler", handler), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
