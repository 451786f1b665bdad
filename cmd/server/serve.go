package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/worktime-api/internal/audit"
	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/constants"
	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/handlers"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/notifier"
	"github.com/yukikurage/worktime-api/internal/repository"
	"github.com/yukikurage/worktime-api/internal/services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if err := database.Migrate(a.db, a.log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Superadmin.Username != "" && a.cfg.Superadmin.Password != "" {
		if err := bootstrapSuperadmin(ctx, a); err != nil {
			return err
		}
	}

	router, err := newRouter(a)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", zap.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.log.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRouter(a *app) (*gin.Engine, error) {
	gin.SetMode(a.cfg.Server.GinMode)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(a.log))

	store, err := newSessionStore(a.cfg)
	if err != nil {
		return nil, err
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	userRepo := repository.NewUserRepository(a.db)
	taskRepo := repository.NewTaskRepository(a.db)
	workLogRepo := repository.NewWorkLogRepository(a.db)

	// Initialize AI service
	var aiService *services.AIService
	if a.cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(a.cfg.OpenAI.APIKey)
	}

	n := notifier.New(a.cfg.Telegram, a.log)
	recorder := audit.NewDailyLog(a.cfg.Audit.Dir, a.log)

	handlers.RegisterRoutes(r, handlers.Services{
		Auth:    services.NewAuthService(userRepo, a.cfg.Org, a.log),
		Task:    services.NewTaskService(taskRepo, userRepo, n, aiService, a.cfg.Org, a.log),
		WorkLog: services.NewWorkLogService(workLogRepo, userRepo, recorder, a.cfg.Org, a.log),
		Report:  services.NewReportService(workLogRepo, taskRepo, userRepo, a.log),
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Worktime API is running",
		})
	})

	return r, nil
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Session.Store {
	case "redis":
		s, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			cfg.Redis.Addr(),
			"", // username (empty for default user)
			cfg.Redis.Password,
			[]byte(cfg.Session.Secret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = s
	default:
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Server.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
