package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/api"
	"github.com/reysilvaa/PBL-SportCentre-sub000/config"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/metrics"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/booking"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/fields"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/payment"
)

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, fieldSvc fields.FieldUseCase, bookingSvc booking.BookingUseCase, paymentSvc payment.PaymentUseCase) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", metrics.PrometheusHandler())

	api.NewFieldHandler(fieldSvc).Register(router.Group("/fields"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewPaymentHandler(paymentSvc).Register(router.Group("/payments"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
