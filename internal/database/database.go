// Package database owns the PostgreSQL connection and schema
// migrations. It stays silent on success; callers decide how to log.
package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"newsrec/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the shared connection handle, set by Connect.
var DB *gorm.DB

// Config holds the PostgreSQL connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadConfig reads the connection settings from environment variables,
// falling back to local-development defaults.
func LoadConfig() *Config {
	return &Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "newsrec"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN renders the keyword/value connection string. The password key is
// omitted entirely when unset so peer authentication keeps working.
func (c *Config) DSN() string {
	parts := []string{
		"host=" + c.Host,
		"port=" + c.Port,
		"user=" + c.User,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	parts = append(parts, "dbname="+c.DBName, "sslmode="+c.SSLMode)
	return strings.Join(parts, " ")
}

// Connect opens the PostgreSQL connection and configures the pool.
// Query logging is off unless DB_LOG_QUERIES is set; the application
// logs through its own logger, not gorm's.
func Connect(config *Config) error {
	logMode := gormlogger.Default.LogMode(gormlogger.Warn)
	if os.Getenv("DB_LOG_QUERIES") != "" {
		logMode = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{Logger: logMode})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	return nil
}

// Migrate creates or updates the schema for every registered model.
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := models.AutoMigrate(DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
