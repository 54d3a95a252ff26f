package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config настройки сервера
type Config struct {
	Environment string
	HTTPAddr    string
	DBDSN       string // пусто - хранилище в памяти
	Migrations  bool

	RedisAddr     string // пусто - рассылка кадров только внутри процесса
	RedisPassword string
	RedisChannel  string

	JWTSecret     string // пусто - идентификация по X-User-Id/X-User-Role
	TelegramToken string // пусто - бот выключен

	WSWriteTimeout time.Duration
	WSBufferSize   int
}

// ClientConfig настройки клиента уведомлений
type ClientConfig struct {
	Environment  string
	APIBaseURL   string
	WSBaseURL    string
	UserID       int64
	UserRole     string
	APIToken     string
	LocalDBPath  string
	PollInterval time.Duration
}

// loadDotEnv пытается загрузить .env файл (игнорируем ошибку, если файла нет)
func loadDotEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}
}

func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Environment:   getenv("ENV", EnvDevelopment),
		HTTPAddr:      getenv("HTTP_ADDR", ":8000"),
		DBDSN:         os.Getenv("DB_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisChannel:  getenv("REDIS_CHANNEL", "mentorship:frames"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.Migrations, err = parseSwitch("MIGRATIONS", true); err != nil {
		return nil, err
	}
	if cfg.WSWriteTimeout, err = parseDuration("WS_WRITE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.WSBufferSize, err = parseInt("WS_BUFFER_SIZE", 100); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s, addr=%s)\n", cfg.Environment, cfg.HTTPAddr)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IsProduction() && c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required in production")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.WSBufferSize <= 0 {
		return fmt.Errorf("WS_BUFFER_SIZE must be positive, got %d", c.WSBufferSize)
	}
	if c.WSWriteTimeout <= 0 {
		return fmt.Errorf("WS_WRITE_TIMEOUT must be positive, got %s", c.WSWriteTimeout)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// UseMemoryStore без DB_DSN сервер работает на хранилище в памяти
func (c *Config) UseMemoryStore() bool {
	return c.DBDSN == ""
}

func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		Environment: getenv("ENV", EnvDevelopment),
		APIBaseURL:  strings.TrimRight(getenv("API_BASE_URL", "http://localhost:8000"), "/"),
		UserRole:    getenv("USER_ROLE", "student"),
		APIToken:    os.Getenv("API_TOKEN"),
		LocalDBPath: getenv("LOCAL_DB_PATH", "mentorship_client.db"),
	}
	cfg.WSBaseURL = strings.TrimRight(getenv("WS_BASE_URL", wsFromHTTP(cfg.APIBaseURL)), "/")

	rawID := os.Getenv("USER_ID")
	if rawID == "" {
		return nil, fmt.Errorf("USER_ID is required but not set")
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("USER_ID must be a positive integer, got %q", rawID)
	}
	cfg.UserID = id

	if cfg.PollInterval, err = parseDuration("POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive, got %s", cfg.PollInterval)
	}

	return cfg, nil
}

// wsFromHTTP http://host -> ws://host, https://host -> wss://host
func wsFromHTTP(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// parseSwitch понимает on/off, true/false, 1/0
func parseSwitch(key string, fallback bool) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "":
		return fallback, nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("parse %s: unexpected value %q", key, raw)
	}
}
