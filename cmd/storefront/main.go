package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/fyz_store/internal/cart"
	"github.com/fjod/fyz_store/internal/catalog"
	"github.com/fjod/fyz_store/internal/checkout"
	"github.com/fjod/fyz_store/internal/config"
	"github.com/fjod/fyz_store/internal/confirmation"
	h "github.com/fjod/fyz_store/internal/http"
	"github.com/fjod/fyz_store/internal/orders"
	"github.com/fjod/fyz_store/internal/payment"
	"github.com/fjod/fyz_store/internal/publisher"
	"github.com/fjod/fyz_store/internal/slots"
	"github.com/fjod/fyz_store/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx := context.Background()

	// Session slots
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Fatal("redis connection failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	store := slots.NewRedisStore(redisClient, cfg.SessionTTL)
	lg.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	// Order documents
	mongoDB, err := orders.Connect(ctx, orders.MongoConfig{
		URI:                    cfg.MongoURI,
		Database:               cfg.MongoDatabase,
		AppName:                "fyz-storefront",
		ConnectTimeout:         cfg.MongoConnectTimeout,
		ServerSelectionTimeout: cfg.MongoSelectionTimeout,
		MaxPoolSize:            cfg.MongoMaxPoolSize,
		MinPoolSize:            cfg.MongoMinPoolSize,
	})
	if err != nil {
		lg.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())
	orderRepo := orders.NewMongoRepository(mongoDB)
	if err := orderRepo.CreateIndexes(ctx); err != nil {
		lg.Warn("failed to create order indexes", zap.Error(err))
	}
	lg.Info("connected to mongodb", zap.String("database", cfg.MongoDatabase))

	// Catalog
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDriver, cfg.CatalogDSN)
	if err != nil {
		lg.Fatal("failed to open catalog", zap.String("driver", cfg.CatalogDriver), zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(); err != nil {
		lg.Fatal("failed to run catalog migrations", zap.Error(err))
	}

	// Order events
	var events publisher.Publisher = publisher.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := publisher.NewKafkaPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		events = kp
		lg.Info("publishing order events", zap.String("topic", cfg.OrdersTopic), zap.Strings("brokers", cfg.KafkaBrokers))
	}

	// Payment providers
	var (
		providers []payment.Provider
		sdk       *payment.SDK
	)
	if cfg.PayPalEnabled() {
		pp, err := payment.NewPayPalProvider(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalSandbox, lg)
		if err != nil {
			lg.Fatal("failed to create paypal client", zap.Error(err))
		}
		providers = append(providers, pp)
		sdk = payment.NewSDK(payment.SDKConfig{
			ClientID: cfg.PayPalClientID,
			Currency: cfg.PaymentCurrency,
			Locale:   cfg.PayPalLocale,
			Sandbox:  cfg.PayPalSandbox,
			Timeout:  cfg.SDKLoadTimeout,
		}, pp.Warmup, lg)
	}
	if cfg.StripeEnabled() {
		providers = append(providers, payment.NewStripeProvider(cfg.StripeSecretKey, lg))
	}
	if len(providers) == 0 {
		lg.Warn("no payment provider configured, checkout cannot take payments")
	}

	carts := cart.NewService(store, lg)
	persister := payment.NewPersister(orderRepo, store, carts, events, cfg.PersistTimeout, lg)

	payCfg := payment.DefaultConfig()
	payCfg.PaymentCurrency = cfg.PaymentCurrency
	payCfg.FXRate = cfg.FXRate
	payCfg.RedirectDelay = cfg.ConfirmRedirect
	adapter := payment.NewAdapter(payCfg, carts, store, sdk, persister, lg, providers...)

	router, err := h.NewRouter(h.Services{
		Catalog:      catalog.NewService(catalogRepo),
		Carts:        carts,
		Checkout:     checkout.NewOrchestrator(store, carts, adapter, lg),
		Payments:     adapter,
		Confirmation: confirmation.NewReader(store, orderRepo, carts, lg),
		Orders:       orderRepo,
	}, h.Options{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		SessionTTL:         cfg.SessionTTL,
		SecureCookies:      cfg.SecureCookies,
		StripeKey:          cfg.StripePublishableKey,
		EmptyCartRedirect:  cfg.EmptyCartRedirect,
	}, lg)
	if err != nil {
		lg.Fatal("failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}

	lg.Info("server exited")
}
