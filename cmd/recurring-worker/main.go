package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"debtbook/internal/config"
	"debtbook/internal/database"
	"debtbook/internal/events"
	"debtbook/internal/logger"
	"debtbook/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Named("recurring-worker")
	log.Info("Starting recurring-worker")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Warnw("Failed to initialize AMQP publisher, continuing without events", "error", err)
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	db := dbManager.DB()
	ledgerService := services.NewLedgerService(db, publisher, services.NewAuditService(db))
	processor := services.NewRecurringProcessor(ledgerService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("Recurring processor configured", "interval", cfg.RecurringInterval, "driver", cfg.DBDriver)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	log.Info("Running initial recurring processing...")
	if count, err := processor.ProcessAll(ctx, time.Now().UTC()); err != nil {
		log.Errorw("Initial processing failed", "error", err)
	} else {
		log.Infow("Initial processing complete", "transactions_created", count)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				count, err := processor.ProcessAll(ctx, now.UTC())
				if err != nil {
					log.Errorw("Periodic processing failed", "error", err)
					continue
				}
				log.Infow("Periodic processing complete",
					"transactions_created", count,
					"next_check", now.Add(cfg.RecurringInterval).Format(time.TimeOnly))
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Infow("Shutdown signal received", "signal", sig.String())

	cancel()
	select {
	case <-done:
		log.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		log.Warn("Shutdown timeout reached")
	}
	return nil
}
