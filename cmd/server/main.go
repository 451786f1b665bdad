package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yukikurage/worktime-api/internal/config"
	"github.com/yukikurage/worktime-api/internal/database"
	applogger "github.com/yukikurage/worktime-api/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "Worktime API",
	Long:  `Time tracking and task management for the newsroom departments.`,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config/config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func setup() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := applogger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	gormLevel := logger.Info
	if cfg.Server.GinMode == "release" {
		gormLevel = logger.Warn
	}

	db, err := database.Connect(cfg.Database, gormLevel, log)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Failed to close database", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
