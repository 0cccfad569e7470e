package main

import (
	"fmt"
	"os"
	"time"

	"projectx-be/internal/config"
	"projectx-be/internal/model"
	"projectx-be/pkg/database"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database schema and housekeeping for the ProjectX backend",
	Long: `migrate manages the auth schema (users, providers, verification
codes, sessions) and removes rows that can no longer be used.

Examples:
  migrate up                  # create or update tables
  migrate prune               # drop expired codes and dead sessions
  migrate prune --older 72h   # keep dead sessions for three days`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update tables",
	RunE:  runUp,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired verification codes and revoked or expired sessions",
	RunE:  runPrune,
}

func init() {
	pruneCmd.Flags().Duration("older", 24*time.Hour, "only delete sessions that ended at least this long ago")
	rootCmd.AddCommand(upCmd, pruneCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func connect() (*gorm.DB, error) {
	cfg := config.Load()
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runUp(cmd *cobra.Command, args []string) error {
	db, err := connect()
	if err != nil {
		return err
	}

	color.Cyan("Step 1: Setting up extensions...")
	// gen_random_uuid() is built in from Postgres 13; older servers need pgcrypto
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		color.Yellow("Warn: Failed to create pgcrypto extension: %v. Continuing...", err)
	}

	models := []interface{}{
		&model.User{},
		&model.UserProvider{},
		&model.EmailVerificationToken{},
		&model.UserSession{},
	}

	color.Cyan("Step 2: Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	color.Green("Success: Database migration completed.")
	return nil
}

func runPrune(cmd *cobra.Command, args []string) error {
	older, err := cmd.Flags().GetDuration("older")
	if err != nil {
		return err
	}

	db, err := connect()
	if err != nil {
		return err
	}

	now := time.Now()

	codes := db.Where("expires_at < ?", now).Delete(&model.EmailVerificationToken{})
	if codes.Error != nil {
		return fmt.Errorf("failed to prune verification codes: %w", codes.Error)
	}
	color.Green("Removed %d expired verification codes", codes.RowsAffected)

	cutoff := now.Add(-older)
	sessions := db.Where("expires_at < ? OR (revoked = ? AND created_at < ?)", cutoff, true, cutoff).
		Delete(&model.UserSession{})
	if sessions.Error != nil {
		return fmt.Errorf("failed to prune sessions: %w", sessions.Error)
	}
	color.Green("Removed %d ended sessions", sessions.RowsAffected)

	return nil
}
