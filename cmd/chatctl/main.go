// Command chatctl administers the brokerage chat backend: schema migration,
// operator accounts, tokens and a live view of the operator feed.
package main

import (
	"fmt"
	"os"

	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/internal/service"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatctl",
		Short:         "Administer the brokerage chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newMigrateCmd(), newOperatorCmd(), newTokenCmd(), newFeedCmd())
	return root
}

// openDB connects with the same configuration the server uses
func openDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Load()
	logger.SetGlobal(logger.New(logger.Config{Level: "warn", JSON: false}))

	db, err := config.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func operatorService(cfg *config.Config, db *gorm.DB) *service.OperatorService {
	tokens := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	return service.NewOperatorService(repository.NewGormOperatorRepository(db), tokens, nil)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)
			if err := repository.Migrate(db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
