package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/services"
)

// Services bundles the business services the HTTP layer depends on.
type Services struct {
	Auth    *services.AuthService
	Task    *services.TaskService
	WorkLog *services.WorkLogService
	Report  *services.ReportService
}

// RegisterRoutes mounts the API under /api. Session middleware must already be installed on r.
func RegisterRoutes(r *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth, svc.Report)
	userHandler := NewUserHandler(svc.Auth)
	taskHandler := NewTaskHandler(svc.Task)
	workLogHandler := NewWorkLogHandler(svc.WorkLog)
	reportHandler := NewReportHandler(svc.Report)

	requireAuth := middleware.RequireAuth(svc.Auth)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Tracking agent routes (device token in body)
		api.POST("/track", workLogHandler.Track)
		api.POST("/aw_activity", workLogHandler.ReportActivity)

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/by-department", userHandler.UsernamesByDepartment)
			users.POST("", middleware.RequireAdmin(), userHandler.Register)
			users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
		}
		api.GET("/departments", requireAuth, userHandler.Departments)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", middleware.RequireAdmin(), taskHandler.CreateTask)
			tasks.POST("/draft", middleware.RequireAdmin(), taskHandler.DraftTasks)
			tasks.POST("/:id/claim", middleware.ParseTaskID(), taskHandler.ClaimTask)
			tasks.POST("/:id/complete", middleware.ParseTaskID(), taskHandler.CompleteTask)
			tasks.POST("/:id/adjust", middleware.RequireAdmin(), middleware.ParseTaskID(), taskHandler.AdjustPoints)
		}

		// Admin routes (protected)
		admin := api.Group("/admin")
		admin.Use(requireAuth, middleware.RequireAdmin())
		{
			admin.POST("/manual_entry", workLogHandler.ManualEntry)
			admin.GET("/time_report", reportHandler.TimeReport)
			admin.GET("/time_report/export", reportHandler.ExportTimeReport)
			admin.GET("/completed_tasks", reportHandler.CompletedTasks)
		}
	}
}
