// Package server implements the HTTP server command.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	couponThreshold "sealpay/internal/application/coupon/threshold"
	couponUsecases "sealpay/internal/application/coupon/usecases"
	paymentRate "sealpay/internal/application/payment/rate"
	paymentUsecases "sealpay/internal/application/payment/usecases"
	vo "sealpay/internal/domain/intent/valueobjects"
	"sealpay/internal/infrastructure/authz"
	"sealpay/internal/infrastructure/cache"
	"sealpay/internal/infrastructure/chain"
	"sealpay/internal/infrastructure/config"
	"sealpay/internal/infrastructure/database"
	"sealpay/internal/infrastructure/events"
	"sealpay/internal/infrastructure/exchangerate"
	"sealpay/internal/infrastructure/metrics"
	"sealpay/internal/infrastructure/persistence/migrations"
	"sealpay/internal/infrastructure/repository"
	"sealpay/internal/infrastructure/threshold"
	httpRouter "sealpay/internal/interfaces/http"
	"sealpay/internal/interfaces/http/handlers"
	sharedConfig "sealpay/internal/shared/config"
	"sealpay/internal/shared/logger"
)

var (
	env         string
	autoMigrate bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the sealpay HTTP server with the configured chain, rate and threshold backends.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run database migrations on startup")

	return cmd
}

func run(_ *cobra.Command, _ []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.NewLogger()

	log.Infow("starting server", "environment", env, "auto_migrate", autoMigrate)

	gin.DefaultWriter = io.Discard

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if autoMigrate {
		if err := migrations.MigrateAll(database.Get()); err != nil {
			return fmt.Errorf("auto-migration failed: %w", err)
		}
		log.Infow("auto-migration completed")
	}

	metricsRegistry := metrics.NewRegistry()

	intentRepo := repository.NewIntentRepository(database.Get())
	couponRepo := repository.NewCouponRepository(database.Get())

	ctx := context.Background()

	chains, err := chain.NewRegistry(ctx, &cfg.Payment, metricsRegistry)
	if err != nil {
		return fmt.Errorf("failed to build chain clients: %w", err)
	}

	oracle, err := buildOracle(&cfg.RateOracle, log)
	if err != nil {
		return err
	}

	disclosure, err := buildThresholdClient(&cfg.Threshold, log)
	if err != nil {
		return err
	}

	verifier, err := authz.NewJWTVerifier(cfg.Auth.ProofSecret)
	if err != nil {
		return fmt.Errorf("failed to build proof verifier: %w", err)
	}

	revealCache, closeCache, err := buildRevealCache(&cfg.Redis, log)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, err := events.NewPublisher(cfg.NATS.URL, log)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer publisher.Close()

	policy := policyFromConfig(&cfg.Payment)

	createUC := paymentUsecases.NewCreateIntentUseCase(intentRepo, oracle, policy, log)
	verifyUC := paymentUsecases.NewVerifyIntentUseCase(intentRepo, chains, policy, publisher, log)
	getIntentUC := paymentUsecases.NewGetIntentUseCase(intentRepo)

	sealUC := couponUsecases.NewSealCouponUseCase(couponRepo, log)
	revealUC := couponUsecases.NewRevealCouponUseCase(couponRepo, disclosure, verifier, revealCache, log)
	claimUC := couponUsecases.NewClaimCouponUseCase(couponRepo, verifier, publisher, log)
	getCouponUC := couponUsecases.NewGetCouponUseCase(couponRepo)

	intentHandler := handlers.NewIntentHandler(createUC, verifyUC, getIntentUC, metricsRegistry, log)
	couponHandler := handlers.NewCouponHandler(sealUC, revealUC, claimUC, getCouponUC, metricsRegistry, log)

	router := httpRouter.NewRouter(cfg.Server.Mode, intentHandler, couponHandler, metricsRegistry, log)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "address", cfg.Server.GetAddr(), "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Infow("server exited gracefully")
	return nil
}

func buildOracle(cfg *sharedConfig.RateOracleConfig, log logger.Interface) (paymentRate.Oracle, error) {
	switch cfg.Provider {
	case "fixed":
		return exchangerate.NewFixedRateOracle(cfg.FixedRates), nil
	case "coingecko", "":
		return exchangerate.NewCoinGeckoOracle(cfg.FiatCode, log), nil
	default:
		return nil, fmt.Errorf("unsupported rate oracle provider: %s", cfg.Provider)
	}
}

func buildThresholdClient(cfg *sharedConfig.ThresholdConfig, log logger.Interface) (couponThreshold.Client, error) {
	switch cfg.Mode {
	case "mock":
		return threshold.NewMockClient(), nil
	case "coordinator", "":
		return threshold.NewCoordinatorClient(threshold.CoordinatorConfig{
			BaseURL:        cfg.CoordinatorURL,
			APIKey:         cfg.APIKey,
			RequestTimeout: cfg.RequestTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported threshold mode: %s", cfg.Mode)
	}
}

func buildRevealCache(cfg *sharedConfig.RedisConfig, log logger.Interface) (couponUsecases.RevealCache, func(), error) {
	if !cfg.Enabled {
		return cache.NewMemoryRevealCache(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.GetAddr())

	return cache.NewRedisRevealCache(client, log), func() { client.Close() }, nil
}

func policyFromConfig(cfg *sharedConfig.PaymentConfig) paymentUsecases.Policy {
	policy := paymentUsecases.DefaultPolicy()

	if cfg.IntentWindow > 0 {
		policy.IntentWindow = cfg.IntentWindow
	}
	if cfg.AmountToleranceBps > 0 {
		policy.AmountToleranceBps = cfg.AmountToleranceBps
	}
	if cfg.ReorgDepth > 0 {
		policy.ReorgDepth = cfg.ReorgDepth
	}

	if len(cfg.EnabledCurrencies) > 0 {
		enabled := make(map[vo.Currency]bool)
		for _, code := range cfg.EnabledCurrencies {
			if currency, err := vo.NewCurrency(code); err == nil {
				enabled[currency] = true
			}
		}
		policy.EnabledCurrencies = enabled
	}

	for code, address := range cfg.DestinationAddresses {
		if currency, err := vo.NewCurrency(code); err == nil {
			policy.DestinationAddresses[currency] = address
		}
	}

	for code, chainCfg := range cfg.Chains {
		if currency, err := vo.NewCurrency(code); err == nil && chainCfg.RequiredConfirmations > 0 {
			policy.RequiredConfirmations[currency] = chainCfg.RequiredConfirmations
		}
	}

	return policy
}
