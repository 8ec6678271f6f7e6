package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quddusi-t/habit-tracker/db"
	"github.com/quddusi-t/habit-tracker/middleware"
	"github.com/quddusi-t/habit-tracker/models"
)

type createHabitInput struct {
	Name                string   `json:"name" validate:"required"`
	Description         string   `json:"description"`
	IsTimer             *bool    `json:"is_timer"`
	AllowManualOverride *bool    `json:"allow_manual_override"`
	IsFreezable         *bool    `json:"is_freezable"`
	DangerStartPct      *float64 `json:"danger_start_pct" validate:"omitempty,gte=0,lte=1"`
}

func CreateHabit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input createHabitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
		return
	}
	if err := middleware.ValidateStruct(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit := models.Habit{
		UserID:              user.ID,
		Name:                input.Name,
		Description:         input.Description,
		IsTimer:             true,
		AllowManualOverride: true,
		IsFreezable:         true,
		DangerStartPct:      0.7,
	}
	if input.IsTimer != nil {
		habit.IsTimer = *input.IsTimer
	}
	if input.AllowManualOverride != nil {
		habit.AllowManualOverride = *input.AllowManualOverride
	}
	if input.IsFreezable != nil {
		habit.IsFreezable = *input.IsFreezable
	}
	if input.DangerStartPct != nil {
		habit.DangerStartPct = *input.DangerStartPct
	}

	if err := db.DB.Create(&habit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create habit"})
		return
	}

	middleware.InvalidateUserCache(user.ID)
	c.JSON(http.StatusCreated, habit)
}

func GetHabits(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var habits []models.Habit
	query := db.DB

	if user.Role != models.RoleAdmin {
		query = query.Where("user_id = ?", user.ID)
	} else {
		userID := c.Query("user_id")
		if userID != "" {
			query = query.Where("user_id = ?", userID)
		}
	}

	if err := query.Find(&habits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch habits"})
		return
	}
	c.JSON(http.StatusOK, habits)
}

func GetHabit(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, habit)
}

func UpdateHabit(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	var input struct {
		Name                *string  `json:"name"`
		Description         *string  `json:"description"`
		IsTimer             *bool    `json:"is_timer"`
		AllowManualOverride *bool    `json:"allow_manual_override"`
		IsFreezable         *bool    `json:"is_freezable"`
		DangerStartPct      *float64 `json:"danger_start_pct"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if input.Name != nil {
		habit.Name = *input.Name
	}
	if input.Description != nil {
		habit.Description = *input.Description
	}
	if input.IsTimer != nil {
		habit.IsTimer = *input.IsTimer
	}
	if input.AllowManualOverride != nil {
		habit.AllowManualOverride = *input.AllowManualOverride
	}
	if input.IsFreezable != nil {
		habit.IsFreezable = *input.IsFreezable
	}
	if input.DangerStartPct != nil && *input.DangerStartPct >= 0 && *input.DangerStartPct <= 1 {
		habit.DangerStartPct = *input.DangerStartPct
	}

	if err := db.DB.Save(habit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update habit"})
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Habit updated", "habit": habit})
}

func DeleteHabit(c *gin.Context) {
	habit, ok := ownedHabit(c)
	if !ok {
		return
	}

	if err := db.DB.Delete(habit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete habit"})
		return
	}

	middleware.InvalidateUserCache(habit.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Habit deleted"})
}
