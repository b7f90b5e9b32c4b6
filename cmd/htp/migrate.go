package main

import (
	"fmt"

	"github.com/samber/do"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/bootstrap"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/chatchain"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/utils/tokens"
)

var devUser string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed personas",
	Long: `migrate creates the vector extension, the tables and the HNSW index, then
aligns the persona table with the prompt catalog.

Use --dev-user to create an active user and print a bearer token for it.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&devUser, "dev-user", "", "create a user with this nickname and print its token")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	inj := newContainer()
	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer func() { _ = log.Sync() }()

	d := do.MustInvoke[*gorm.DB](inj)
	// auto_migrate already ran inside the container
	if !cfg.Database.AutoMigrate {
		if err := bootstrap.Migrate(ctx, d, cfg, log); err != nil {
			return err
		}
	}
	if err := bootstrap.EnsurePersonasSeeded(ctx,
		do.MustInvoke[service.PersonaService](inj),
		do.MustInvoke[*chatchain.Catalog](inj),
		log,
	); err != nil {
		return err
	}

	if devUser == "" {
		return nil
	}
	u, err := do.MustInvoke[service.UserService](inj).Create(ctx, devUser)
	if err != nil {
		return fmt.Errorf("create dev user: %w", err)
	}
	token := tokens.IssueUserToken(cfg.Auth.TokenPrefix, cfg.Auth.SecretPepper, u.ID)
	log.Info("dev user created", zap.Uint("user_id", u.ID), zap.String("nickname", u.Nickname))
	fmt.Fprintf(cmd.OutOrStdout(), "Authorization: Bearer %s\n", token)
	return nil
}
