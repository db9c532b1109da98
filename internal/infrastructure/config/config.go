package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all client configuration.
type Config struct {
	Backend   BackendConfig
	Bridge    BridgeConfig
	Auth      AuthConfig
	Polling   PollingConfig
	Cooldowns CooldownConfig
	Bindings  BindingsConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// BackendConfig holds vision-backend connection configuration.
type BackendConfig struct {
	BaseURL        string        `envconfig:"BACKEND_URL" default:"http://localhost:5000"`
	DataConnectURL string        `envconfig:"DATACONNECT_URL" default:"http://localhost:9399"`
	Timeout        time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`
}

// BridgeConfig holds the local UI bridge server configuration.
type BridgeConfig struct {
	Host string `envconfig:"BRIDGE_HOST" default:"127.0.0.1"`
	Port string `envconfig:"BRIDGE_PORT" default:"7420"`
}

// AuthConfig holds identity-provider configuration.
type AuthConfig struct {
	IdentityURL     string        `envconfig:"IDENTITY_URL" default:"http://localhost:9099"`
	RefreshInterval time.Duration `envconfig:"TOKEN_REFRESH_INTERVAL" default:"50m"`
}

// PollingConfig holds the recurring poll intervals.
type PollingConfig struct {
	CameraStatus   time.Duration `envconfig:"POLL_CAMERA_STATUS" default:"1s"`
	Gesture        time.Duration `envconfig:"POLL_GESTURE" default:"200ms"`
	GestureMinGap  time.Duration `envconfig:"GESTURE_MIN_GAP" default:"350ms"`
	Drawing        time.Duration `envconfig:"POLL_DRAWING" default:"80ms"`
	HandPosition   time.Duration `envconfig:"POLL_HAND_POSITION" default:"100ms"`
	ArcadeState    time.Duration `envconfig:"POLL_ARCADE_STATE" default:"500ms"`
	FruitState     time.Duration `envconfig:"POLL_FRUIT_STATE" default:"400ms"`
	FrameProcess   time.Duration `envconfig:"POLL_FRAME_PROCESS" default:"150ms"`
	StatusSnapshot time.Duration `envconfig:"POLL_STATUS_SNAPSHOT" default:"1s"`
}

// CooldownConfig holds the per-action gesture cooldowns. The observed
// values differ per feature with no single correct number, so each is
// independently tunable.
type CooldownConfig struct {
	ColorChange  time.Duration `envconfig:"COOLDOWN_COLOR_CHANGE" default:"500ms"`
	Shot         time.Duration `envconfig:"COOLDOWN_SHOT" default:"900ms"`
	SlideNav     time.Duration `envconfig:"COOLDOWN_SLIDE_NAV" default:"1200ms"`
	ClearRelease time.Duration `envconfig:"COOLDOWN_CLEAR_RELEASE" default:"200ms"`
}

// BindingsConfig holds gesture-binding profile configuration.
type BindingsConfig struct {
	ProfilePath string `envconfig:"BINDINGS_PROFILE" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds bridge rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:5000",
			DataConnectURL: "http://localhost:9399",
			Timeout:        30 * time.Second,
		},
		Bridge: BridgeConfig{
			Host: "127.0.0.1",
			Port: "7420",
		},
		Auth: AuthConfig{
			IdentityURL:     "http://localhost:9099",
			RefreshInterval: 50 * time.Minute,
		},
		Polling: PollingConfig{
			CameraStatus:   time.Second,
			Gesture:        200 * time.Millisecond,
			GestureMinGap:  350 * time.Millisecond,
			Drawing:        80 * time.Millisecond,
			HandPosition:   100 * time.Millisecond,
			ArcadeState:    500 * time.Millisecond,
			FruitState:     400 * time.Millisecond,
			FrameProcess:   150 * time.Millisecond,
			StatusSnapshot: time.Second,
		},
		Cooldowns: CooldownConfig{
			ColorChange:  500 * time.Millisecond,
			Shot:         900 * time.Millisecond,
			SlideNav:     1200 * time.Millisecond,
			ClearRelease: 200 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
