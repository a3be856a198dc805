// The worker runs the expiry sweeper as a standalone process. It is the
// single writer of time-based transitions; the API servers never expire
// records themselves.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	couponUsecases "sealpay/internal/application/coupon/usecases"
	paymentUsecases "sealpay/internal/application/payment/usecases"
	"sealpay/internal/infrastructure/config"
	"sealpay/internal/infrastructure/database"
	"sealpay/internal/infrastructure/metrics"
	"sealpay/internal/infrastructure/repository"
	"sealpay/internal/infrastructure/scheduler"
	"sealpay/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting expiry sweeper worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	intentRepo := repository.NewIntentRepository(database.Get())
	couponRepo := repository.NewCouponRepository(database.Get())

	expireIntents := paymentUsecases.NewExpireIntentsUseCase(intentRepo, log)
	expireCoupons := couponUsecases.NewExpireCouponsUseCase(couponRepo, log)

	metricsRegistry := metrics.NewRegistry()

	manager, err := scheduler.NewSweepManager(log, metricsRegistry)
	if err != nil {
		log.Fatalw("failed to create sweep manager", "error", err)
	}

	if err := manager.RegisterExpirySweeps(cfg.Sweeper.Interval, expireIntents, expireCoupons); err != nil {
		log.Fatalw("failed to register expiry sweeps", "error", err)
	}

	manager.Start()
	log.Infow("expiry sweeper started", "interval", cfg.Sweeper.Interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Infow("shutting down expiry sweeper")
	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop sweep manager", "error", err)
	}
	log.Infow("expiry sweeper exited")
}
