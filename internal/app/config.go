package app

import (
	"os"
	"strconv"
	"time"
)

// StorageDriver выбирает реализацию хранилища pay-записей.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverRedis    StorageDriver = "redis"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	MetricsAddr string

	// ProductID — продукт, которым управляет сервис.
	ProductID string
	// Namespace — префикс ключей pay-записей (обычно bundle id приложения).
	Namespace string
	// StoreProductID — идентификатор продукта в каталоге платформы;
	// пустое значение означает, что он совпадает с ProductID.
	StoreProductID string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	// KafkaBrokers — список брокеров через запятую; пустое значение
	// отключает публикацию событий.
	KafkaBrokers string

	// SubmitURL — endpoint backend'а для submission чеков; пустое
	// значение отключает воркер reconcile.
	SubmitURL string

	ReconcileInterval  time.Duration
	ReconcileBatchSize int
}

// DefaultConfig возвращает конфигурацию для локального запуска.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:         ":9090",
		ProductID:           "demo-course",
		Namespace:           "com.example.app",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		RedisAddr:           "localhost:6379",
		ReconcileInterval:   5 * time.Minute,
		ReconcileBatchSize:  100,
	}
}

// ConfigFromEnv читает конфигурацию из окружения поверх значений по умолчанию.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("IAP_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("IAP_PRODUCT_ID"); v != "" {
		cfg.ProductID = v
	}
	if v := os.Getenv("IAP_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("IAP_STORE_PRODUCT_ID"); v != "" {
		cfg.StoreProductID = v
	}
	if v := os.Getenv("IAP_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = StorageDriver(v)
	}
	if v := os.Getenv("IAP_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("IAP_POSTGRES_AUTO_MIGRATE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v := os.Getenv("IAP_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("IAP_REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("IAP_REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.RedisDB = parsed
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("IAP_SUBMIT_URL"); v != "" {
		cfg.SubmitURL = v
	}
	if v := os.Getenv("IAP_RECONCILE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			cfg.ReconcileInterval = parsed
		}
	}
	if v := os.Getenv("IAP_RECONCILE_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.ReconcileBatchSize = parsed
		}
	}

	return cfg
}
