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
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/bootstrap"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/cache"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/gateway"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/kafka"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/pricing"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/propagate"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/realtime"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/repository"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/booking"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/fields"
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

	fieldRepo := repository.NewFieldRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	propagator := propagate.NewPropagator(redisCache, publisher, producer, cfg.Kafka.PaymentEventsTopic, logger)
	gatewayClient := gateway.NewHTTPClient(cfg.Gateway)

	dayWindow := pricing.DefaultDayWindow
	if cfg.Booking.DayEndHour > 0 {
		dayWindow = pricing.DayWindow{StartHour: cfg.Booking.DayStartHour, EndHour: cfg.Booking.DayEndHour}
	}

	fieldSvc := fields.NewFieldService(fieldRepo, redisCache)
	bookingSvc := booking.NewBookingService(
		bookingRepo, fieldRepo, paymentRepo, redisCache, gatewayClient, propagator, redisCache,
		dayWindow, cfg.Booking.PaymentExpiryMins,
		time.Duration(cfg.Booking.LockTTLSecs)*time.Second, logger,
	)
	paymentSvc := payment.NewPaymentService(
		paymentRepo, bookingRepo, redisCache, propagator, redisCache,
		cfg.Gateway.ServerKey, cfg.Gateway.TrustUnsigned,
		time.Duration(cfg.Booking.LockTTLSecs)*time.Second, logger,
	)

	if err := bootstrap.Run(ctx, cfg, fieldSvc, bookingSvc, paymentSvc); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
