package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/timetracking/internal/config"
	"example.com/timetracking/internal/consumer"
	"example.com/timetracking/internal/domain"
	"example.com/timetracking/internal/persistence/sqlstore"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "time-tracking-consumer").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := sqlstore.Open(cfg.DatabaseType, cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer store.Close()

	activityRepo := sqlstore.NewActivityRepository(store)
	slotRepo := sqlstore.NewTimeSlotRepository(store)
	employeeRepo := sqlstore.NewEmployeeRepository(store)
	projectRepo := sqlstore.NewProjectRepository(store)

	activities := domain.NewActivityService(activityRepo, slotRepo, employeeRepo, projectRepo, log)
	handler := consumer.NewBulkSaveHandler(activities, log)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		log.Info().Str("address", cfg.MetricsAddress).Msg("consumer metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           cfg.ConsumerTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(log))

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		log.Info().Str("topic", cfg.ConsumerTopic).Str("group", cfg.ConsumerGroupID).Msg("consumer started")
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Str("topic", cfg.ConsumerTopic).Msg("consumer stopped with error")
		}
	}()

	<-stop
	log.Info().Msg("consumer shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown error")
	}

	wg.Wait()
}
