package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Client описывает настройки терминального клиента.
// Файл по умолчанию: ~/.config/aqar/client.toml
type Client struct {
	APIURL        string
	RealtimeURL   string
	StorePath     string
	LogLevel      string
	SessionMaxAge time.Duration
}

const (
	defaultClientConfigPath = "~/.config/aqar/client.toml"
	defaultAPIURL           = "http://127.0.0.1:8080"
	defaultRealtimeURL      = "ws://127.0.0.1:8081/realtime/favorites"
	defaultStorePath        = "~/.local/share/aqar/store.db"
	defaultClientLogLevel   = "warn"
	defaultSessionMaxAge    = 24 * time.Hour
)

// DefaultClientPath возвращает путь к файлу настроек клиента по умолчанию
func DefaultClientPath() string {
	return defaultClientConfigPath
}

// DefaultClient возвращает настройки клиента по умолчанию
func DefaultClient() Client {
	return Client{
		APIURL:        defaultAPIURL,
		RealtimeURL:   defaultRealtimeURL,
		StorePath:     mustExpand(defaultStorePath),
		LogLevel:      defaultClientLogLevel,
		SessionMaxAge: defaultSessionMaxAge,
	}
}

// LoadClient читает настройки клиента; отсутствующий файл означает значения по умолчанию
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()

	resolved, err := expandPath(firstNonEmpty(path, defaultClientConfigPath))
	if err != nil {
		return Client{}, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Client{}, fmt.Errorf("read client config: %w", err)
	}

	var raw struct {
		APIURL        string `toml:"api_url"`
		RealtimeURL   string `toml:"realtime_url"`
		StorePath     string `toml:"store_path"`
		LogLevel      string `toml:"log_level"`
		SessionMaxAge string `toml:"session_max_age"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Client{}, fmt.Errorf("parse client config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.RealtimeURL); v != "" {
		cfg.RealtimeURL = v
	}
	if v := strings.TrimSpace(raw.StorePath); v != "" {
		cfg.StorePath = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(raw.SessionMaxAge); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Client{}, fmt.Errorf("invalid session_max_age %q", v)
		}
		cfg.SessionMaxAge = d
	}

	return cfg, nil
}

// SaveClient записывает настройки клиента, создавая каталоги при необходимости
func SaveClient(path string, c Client) error {
	resolved, err := expandPath(firstNonEmpty(path, defaultClientConfigPath))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw := struct {
		APIURL        string `toml:"api_url"`
		RealtimeURL   string `toml:"realtime_url"`
		StorePath     string `toml:"store_path"`
		LogLevel      string `toml:"log_level"`
		SessionMaxAge string `toml:"session_max_age"`
	}{
		APIURL:        c.APIURL,
		RealtimeURL:   c.RealtimeURL,
		StorePath:     c.StorePath,
		LogLevel:      c.LogLevel,
		SessionMaxAge: c.SessionMaxAge.String(),
	}
	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal client config: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write client config: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
