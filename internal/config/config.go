package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ChannelAccessToken string `envconfig:"LINE_CHANNEL_ACCESS_TOKEN" required:"true"`
	CWAAPIKey          string `envconfig:"CWA_API_KEY" required:"true"`

	DBPath   string `envconfig:"DB_PATH" default:"./data/weatherbot.db"`
	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	Timezone    string `envconfig:"TIMEZONE" default:"Asia/Taipei"`
	DefaultCity string `envconfig:"DEFAULT_CITY" default:"臺北市"`

	TickInterval    time.Duration `envconfig:"TICK_INTERVAL" default:"1m"`
	DispatchWorkers int           `envconfig:"DISPATCH_WORKERS" default:"8"`
	AttemptTimeout  time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"30s"`
	DrainTimeout    time.Duration `envconfig:"DRAIN_TIMEOUT" default:"30s"`
	DedupTTL        time.Duration `envconfig:"DEDUP_TTL" default:"48h"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
