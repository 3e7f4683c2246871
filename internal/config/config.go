package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	SecureCookies      bool
	LogLevel           string

	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	MongoURI              string
	MongoDatabase         string
	MongoConnectTimeout   time.Duration
	MongoSelectionTimeout time.Duration
	MongoMaxPoolSize      uint64
	MongoMinPoolSize      uint64

	CatalogDriver string
	CatalogDSN    string

	KafkaBrokers []string
	OrdersTopic  string

	PayPalClientID string
	PayPalSecret   string
	PayPalSandbox  bool
	PayPalLocale   string

	StripeSecretKey      string
	StripePublishableKey string

	PaymentCurrency string
	FXRate          decimal.Decimal

	SDKLoadTimeout    time.Duration
	PersistTimeout    time.Duration
	EmptyCartRedirect time.Duration
	ConfirmRedirect   time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first if present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fx, err := decimal.NewFromString(getEnv("PAYPAL_FX_RATE", "520"))
	if err != nil || !fx.IsPositive() {
		return nil, fmt.Errorf("invalid PAYPAL_FX_RATE %q", os.Getenv("PAYPAL_FX_RATE"))
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		SecureCookies:      getBool("SECURE_COOKIES", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    getDuration("SESSION_TTL", 30*24*time.Hour),

		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getEnv("MONGO_DATABASE", "fyz_store"),
		MongoConnectTimeout:   getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		MongoSelectionTimeout: getDuration("MONGO_SERVER_SELECTION_TIMEOUT", 5*time.Second),
		MongoMaxPoolSize:      getUint("MONGO_MAX_POOL_SIZE", 20),
		MongoMinPoolSize:      getUint("MONGO_MIN_POOL_SIZE", 0),

		CatalogDriver: getEnv("CATALOG_DRIVER", "sqlite"),
		CatalogDSN:    getEnv("CATALOG_DSN", "file:catalog.db"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		OrdersTopic:  getEnv("KAFKA_ORDERS_TOPIC", "orders-captured"),

		PayPalClientID: getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalSecret:   getEnv("PAYPAL_SECRET", ""),
		PayPalSandbox:  getEnv("PAYPAL_ENV", "sandbox") != "live",
		PayPalLocale:   getEnv("PAYPAL_LOCALE", "es_ES"),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),

		PaymentCurrency: getEnv("PAYPAL_CURRENCY", "USD"),
		FXRate:          fx,

		SDKLoadTimeout:    getDuration("PAYPAL_SDK_TIMEOUT", 20*time.Second),
		PersistTimeout:    getDuration("ORDER_PERSIST_TIMEOUT", 5*time.Second),
		EmptyCartRedirect: 2 * time.Second,
		ConfirmRedirect:   1500 * time.Millisecond,
	}
	return cfg, nil
}

func (c *Config) PayPalEnabled() bool {
	return c.PayPalClientID != "" && c.PayPalSecret != ""
}

func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripePublishableKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getUint(key string, defaultValue uint64) uint64 {
	if n, err := strconv.ParseUint(os.Getenv(key), 10, 64); err == nil {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
