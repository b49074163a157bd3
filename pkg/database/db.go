package database

import (
	"fmt"
	"os"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB      *gorm.DB
	once    sync.Once
	connErr error
)

// Connect opens the shared postgres connection from the DB_* variables.
func Connect() (*gorm.DB, error) {
	once.Do(func() {
		db, err := gorm.Open(postgres.Open(DSN()), &gorm.Config{
			Logger:                 logger.Default.LogMode(logLevel()),
			SkipDefaultTransaction: true,
			TranslateError:         true,
		})
		if err != nil {
			connErr = fmt.Errorf("failed to connect database: %w", err)
			return
		}
		DB = db
	})

	return DB, connErr
}

func DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		valueOrDefault("DB_HOST", "localhost"),
		valueOrDefault("DB_USER", "postgres"),
		os.Getenv("DB_PASS"),
		valueOrDefault("DB_NAME", "storefront"),
		valueOrDefault("DB_PORT", "5432"),
		valueOrDefault("DB_SSLMODE", "disable"),
	)
}

func logLevel() logger.LogLevel {
	if os.Getenv("APP_ENV") == "development" {
		return logger.Warn
	}
	return logger.Error
}

func valueOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
