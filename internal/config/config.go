package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config структура конфигурации сервера
type Config struct {
	TelegramBotToken string
	JWTSecret        string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	Server           ServerConfig
	Realtime         RealtimeConfig
	LogLevel         string
	AppEnv           string
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ServerConfig содержит адреса HTTP API
type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

// RealtimeConfig содержит настройки канала push-уведомлений
type RealtimeConfig struct {
	Port          string
	NotifyChannel string
}

// LoadConfig загружает переменные из .env и окружения
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "aqar_user"),
		Password: getEnv("PGPASSWORD", "aqar_pass"),
		Name:     getEnv("PGDATABASE", "aqar"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      getEnv("DATABASE_URL", dbConfig.URL()),
		DatabaseConfig:   dbConfig,
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		},
		Realtime: RealtimeConfig{
			Port:          getEnv("REALTIME_PORT", "8081"),
			NotifyChannel: getEnv("REALTIME_NOTIFY_CHANNEL", "favorites_changed"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AppEnv:   getEnv("APP_ENV", "production"),
	}

	if cfg.TelegramBotToken == "" || cfg.JWTSecret == "" {
		return nil, errors.New("не заданы обязательные переменные окружения TELEGRAM_BOT_TOKEN и JWT_SECRET")
	}

	return cfg, nil
}

// URL формирует строку подключения к базе данных
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// IsDevelopment сообщает, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
