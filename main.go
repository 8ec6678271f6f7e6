package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quddusi-t/habit-tracker/cache"
	"github.com/quddusi-t/habit-tracker/db"
	"github.com/quddusi-t/habit-tracker/engine"
	"github.com/quddusi-t/habit-tracker/handlers"
	"github.com/quddusi-t/habit-tracker/middleware"
	"github.com/quddusi-t/habit-tracker/models"
	"github.com/quddusi-t/habit-tracker/routes"
	"github.com/quddusi-t/habit-tracker/utils"
	"go.uber.org/zap"
)

func main() {
	utils.InitLogger()
	defer utils.Logger.Sync()
	utils.InitMetrics()

	utils.Logger.Info("starting_application")

	db.Connect()
	if err := db.DB.AutoMigrate(
		&models.User{},
		&models.Habit{},
		&models.HabitLog{},
	); err != nil {
		utils.Logger.Fatal("migration_failed", zap.Error(err))
	}

	// Cache is optional; the engine falls through to the database without it.
	if err := cache.InitRedis(utils.Logger); err != nil {
		utils.Logger.Warn("redis_unavailable", zap.Error(err))
	}
	defer cache.Close()

	handlers.Engine = engine.NewService(db.DB, utils.Logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimitMiddleware(100, time.Minute))
	if key := os.Getenv("CSRF_AUTH_KEY"); key != "" {
		r.Use(middleware.CSRFProtection([]byte(key)))
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now(),
			"database":  "connected",
		})
	})

	r.POST("/api/register", routes.Register)
	r.POST("/api/login", routes.Login)

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/profile", routes.Profile)
		api.PUT("/profile", routes.UpdateProfile)

		api.GET("/overview", middleware.CacheMiddleware(time.Minute), handlers.GetOverview)

		api.POST("/habits", handlers.CreateHabit)
		api.GET("/habits", handlers.GetHabits)
		api.GET("/habits/:id", handlers.GetHabit)
		api.PUT("/habits/:id", handlers.UpdateHabit)
		api.DELETE("/habits/:id", handlers.DeleteHabit)

		api.POST("/habits/:id/logs/start", handlers.StartSession)
		api.PATCH("/habits/:id/logs/:logID/stop", handlers.StopSession)
		api.POST("/habits/:id/logs", handlers.CreateManualEntry)
		api.GET("/habits/:id/logs", handlers.GetLogs)
		api.GET("/habits/:id/logs/active", handlers.GetActiveSession)

		// Cross-user habit listing (?user_id=), admin only.
		api.GET("/admin/habits", middleware.RoleMiddleware(models.RoleAdmin), handlers.GetHabits)

		api.POST("/habits/:id/complete", handlers.CompleteHabit)
		api.POST("/habits/:id/freeze", handlers.UseFreeze)
		api.GET("/habits/:id/status", handlers.GetStatus)
		api.GET("/habits/:id/stats", middleware.CacheMiddleware(time.Minute), handlers.GetStats)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	startServer(r)
}

func startServer(router *gin.Engine) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	utils.Logger.Info("starting_http_server", zap.String("port", port))
	fmt.Printf("Habit tracker listening on http://localhost:%s\n", port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting_down_server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Fatal("server_forced_shutdown", zap.Error(err))
	}

	utils.Logger.Info("server_stopped")
}
