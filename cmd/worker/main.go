package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reysilvaa/PBL-SportCentre-sub000/config"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/cache"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/kafka"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/notifier"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/propagate"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/realtime"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/repository"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/payment"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.AvailabilityTTLSecs)*time.Second)
	publisher := realtime.NewPublisher(redisCache.Client())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	propagator := propagate.NewPropagator(redisCache, publisher, producer, cfg.Kafka.PaymentEventsTopic, logger)

	paymentSvc := payment.NewPaymentService(
		paymentRepo, bookingRepo, redisCache, propagator, redisCache,
		cfg.Gateway.ServerKey, cfg.Gateway.TrustUnsigned,
		time.Duration(cfg.Booking.LockTTLSecs)*time.Second, logger,
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PaymentEventsTopic)
	defer consumer.Close()

	sink := notifier.New(logger)

	go func() {
		if err := consumer.ConsumePaymentEvents(ctx, sink.Notify); err != nil && ctx.Err() == nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	interval := time.Duration(cfg.Worker.SweepIntervalSeconds) * time.Second
	if interval == 0 {
		interval = time.Minute
	}
	sweepTicker := time.NewTicker(interval)
	defer sweepTicker.Stop()

	logger.Info("expiry sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-sweepTicker.C:
			swept, err := paymentSvc.SweepExpired(ctx)
			if err != nil {
				logger.Error("sweep expired payments", zap.Error(err))
				continue
			}
			if swept > 0 {
				logger.Info("reclaimed expired payments", zap.Int("count", swept))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
