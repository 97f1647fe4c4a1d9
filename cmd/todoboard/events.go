package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"todoboard/internal/mqhandler"
	"todoboard/pkg/config"
	"todoboard/pkg/logger"
	"todoboard/pkg/mq"
)

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	if cfg.MQ.URL == "" {
		return errors.New("mq.url is not configured")
	}

	consumer, err := mq.NewConsumer(cfg.MQ.URL, "", eventPattern, log)
	if err != nil {
		log.Error("Failed to init consumer", zap.Error(err))
		return err
	}
	defer consumer.Close()

	consumer.SetHandler(mqhandler.NewBoardEventHandler(log).Handle)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Following board events", zap.String("exchange", mq.ExchangeName), zap.String("pattern", eventPattern))
	return consumer.StartConsuming(ctx)
}
