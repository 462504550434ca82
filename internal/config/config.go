package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type MediaConfig struct {
	Dir           string
	MaxFiles      int
	MaxVideoBytes int64
}

type AnalysisConfig struct {
	WebhookURL string
	Workers    int
	QueueSize  int
	Timeout    time.Duration
}

type CaptureConfig struct {
	TTL time.Duration
}

type ClaimsConfig struct {
	AmountThreshold  float64
	RecentWindowDays int
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Media       MediaConfig
	Analysis    AnalysisConfig
	Capture     CaptureConfig
	Claims      ClaimsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Media: MediaConfig{
			Dir:           v.GetString("MEDIA_DIR"),
			MaxFiles:      v.GetInt("MEDIA_MAX_FILES"),
			MaxVideoBytes: v.GetInt64("MEDIA_MAX_VIDEO_MB") * 1024 * 1024,
		},
		Analysis: AnalysisConfig{
			WebhookURL: v.GetString("ANALYSIS_WEBHOOK_URL"),
			Workers:    v.GetInt("ANALYSIS_WORKERS"),
			QueueSize:  v.GetInt("ANALYSIS_QUEUE_SIZE"),
			Timeout:    v.GetDuration("ANALYSIS_TIMEOUT"),
		},
		Capture: CaptureConfig{
			TTL: v.GetDuration("CAPTURE_TTL"),
		},
		Claims: ClaimsConfig{
			AmountThreshold:  v.GetFloat64("CLAIMS_AMOUNT_THRESHOLD"),
			RecentWindowDays: v.GetInt("CLAIMS_RECENT_WINDOW_DAYS"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = "./data/evidence"
	}
	if cfg.Media.MaxFiles == 0 {
		cfg.Media.MaxFiles = 5
	}
	if cfg.Media.MaxVideoBytes == 0 {
		cfg.Media.MaxVideoBytes = 30 * 1024 * 1024
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = 2
	}
	if cfg.Analysis.QueueSize == 0 {
		cfg.Analysis.QueueSize = 64
	}
	if cfg.Analysis.Timeout == 0 {
		cfg.Analysis.Timeout = 30 * time.Second
	}
	if cfg.Capture.TTL == 0 {
		cfg.Capture.TTL = 10 * time.Minute
	}
	if cfg.Claims.AmountThreshold == 0 {
		cfg.Claims.AmountThreshold = 100000
	}
	if cfg.Claims.RecentWindowDays == 0 {
		cfg.Claims.RecentWindowDays = 30
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Media.MaxFiles < 1 {
		return fmt.Errorf("MEDIA_MAX_FILES must be at least 1")
	}
	if cfg.Claims.AmountThreshold <= 0 {
		return fmt.Errorf("CLAIMS_AMOUNT_THRESHOLD must be positive")
	}
	return nil
}
