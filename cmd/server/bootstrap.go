package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/worktime-api/internal/database"
	"github.com/yukikurage/worktime-api/internal/repository"
	"github.com/yukikurage/worktime-api/internal/services"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Migrate and create the superadmin account if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.Migrate(a.db, a.log); err != nil {
			return err
		}
		return bootstrapSuperadmin(cmd.Context(), a)
	},
}

func bootstrapSuperadmin(ctx context.Context, a *app) error {
	sa := a.cfg.Superadmin
	if sa.Username == "" || sa.Password == "" {
		return errors.New("superadmin.username and superadmin.password must be set")
	}

	authService := services.NewAuthService(repository.NewUserRepository(a.db), a.cfg.Org, a.log)
	user, created, err := authService.BootstrapSuperadmin(ctx, sa.Username, sa.Password, sa.Token)
	if err != nil {
		return err
	}

	if created {
		a.log.Info("Superadmin created", zap.Uint64("user_id", user.ID), zap.String("username", user.Username))
	} else {
		a.log.Info("Superadmin already exists", zap.String("username", sa.Username))
	}
	return nil
}
