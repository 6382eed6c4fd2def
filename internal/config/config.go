package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	// devJWTSecret signs cookies when ENV=development and no secret is set.
	devJWTSecret = "medicare-development-secret"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	StorageDriver    string        `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBConnectRetries int           `mapstructure:"DB_CONNECT_RETRIES"`
	GrokAPIKey       string        `mapstructure:"GROK_API_KEY"`
	AIModel          string        `mapstructure:"AI_MODEL"`
	AIBaseURL        string        `mapstructure:"AI_BASE_URL"`
	AITimeout        time.Duration `mapstructure:"AI_TIMEOUT"`
	HistoryCap       int           `mapstructure:"ANALYSIS_HISTORY_CAP"`
	JWTSecret        string        `mapstructure:"JWT_SECRET_KEY"`
	JWTExpires       time.Duration `mapstructure:"JWT_EXPIRES"`
	CookieExpireDays int           `mapstructure:"COOKIE_EXPIRE"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	TelegramToken    string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	DoctorChatID     int64         `mapstructure:"DOCTOR_CHAT_ID"`
	ReportFontPath   string        `mapstructure:"REPORT_FONT_PATH"`
	SeedDemoUsers    bool          `mapstructure:"SEED_DEMO_USERS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("DB_CONNECT_RETRIES", 10)
	v.SetDefault("AI_MODEL", "llama-3.3-70b-versatile")
	v.SetDefault("AI_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("AI_TIMEOUT", "30s")
	v.SetDefault("ANALYSIS_HISTORY_CAP", 50)
	v.SetDefault("JWT_EXPIRES", "168h")
	v.SetDefault("COOKIE_EXPIRE", 7)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:5174")
	v.SetDefault("SEED_DEMO_USERS", false)

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORAGE_DRIVER", "DATABASE_URL", "DB_CONNECT_RETRIES",
		"GROK_API_KEY", "AI_MODEL", "AI_BASE_URL", "AI_TIMEOUT", "ANALYSIS_HISTORY_CAP",
		"JWT_SECRET_KEY", "JWT_EXPIRES", "COOKIE_EXPIRE", "CORS_ORIGINS",
		"TELEGRAM_BOT_TOKEN", "DOCTOR_CHAT_ID", "REPORT_FONT_PATH", "SEED_DEMO_USERS",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.JWTSecret == "" && cfg.IsDev() {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TelegramEnabled reports whether doctor alerts can be delivered.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.DoctorChatID != 0
}

// Validate checks that the configuration is consistent enough to start
// the server.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StoragePostgres, c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required when ENV=%q", c.Env)
	}
	if c.HistoryCap <= 0 {
		return fmt.Errorf("ANALYSIS_HISTORY_CAP must be positive, got %d", c.HistoryCap)
	}
	if c.JWTExpires <= 0 {
		return fmt.Errorf("JWT_EXPIRES must be a positive duration")
	}
	return nil
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
