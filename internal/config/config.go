package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config 应用配置
type Config struct {
	Port      string
	JWTSecret string

	DB DatabaseConfig

	DatasetPath string
	Workers     int // 并发导入的用户数

	LogLevel  string
	LogFormat string
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string // "sqlite" 或 "pgx"
	Path     string // sqlite 文件路径
	DSN      string // pgx 连接串，为空时由下列字段拼接
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int

	BusyTimeoutMS int // sqlite busy_timeout，毫秒
}

// GetDSN returns the data source name for the configured driver
func (c DatabaseConfig) GetDSN() string {
	if c.Driver != "pgx" {
		return c.Path
	}
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "./data/geolife.db"),
			DSN:      os.Getenv("DB_DSN"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: getEnv("DB_DATABASE", "geolife"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),

			BusyTimeoutMS: getEnvInt("DB_BUSY_TIMEOUT_MS", 10000),
		},
		DatasetPath: getEnv("DATASET_PATH", "./dataset"),
		Workers:     getEnvInt("INGEST_WORKERS", 8),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
