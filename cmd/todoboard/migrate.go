package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoboard/pkg/config"
	"todoboard/pkg/logger"
)

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	store, err := openStore(cfg, log)
	if err != nil {
		log.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	log.Info("Migration complete", zap.String("driver", cfg.Store.Driver))
	return nil
}
