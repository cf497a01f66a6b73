package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port            int           `envconfig:"PORT" default:"8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL     string        `envconfig:"DATABASE_URL" required:"true"`
	SupabaseURL     string        `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseKey     string        `envconfig:"SUPABASE_SERVICE_ROLE_KEY" required:"true"`
	JWTSecret       string        `envconfig:"SUPABASE_JWT_SECRET" default:""`
	SupabaseTimeout time.Duration `envconfig:"SUPABASE_TIMEOUT" default:"10s"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" default:""`
	RateLimit       int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`
	TrustProxy      bool          `envconfig:"TRUST_PROXY" default:"false"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"5m"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"15m"`
	RefreshWindow   int           `envconfig:"REFRESH_WINDOW_DAYS" default:"28"`
	BcryptCost      int           `envconfig:"BCRYPT_COST" default:"12"`
	InviteTTL       time.Duration `envconfig:"INVITE_TTL" default:"720h"`
	OTelEndpoint    string        `envconfig:"OTEL_ENDPOINT" default:""`
	ConnectRetries  int           `envconfig:"CONNECT_RETRIES" default:"3"`
	ConnectBackoff  time.Duration `envconfig:"CONNECT_BACKOFF" default:"1s"`
}

// devOrigins are allowed when ALLOWED_ORIGINS is empty.
var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8081",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:8081",
}

// Load reads configuration from environment variables into a Config struct.
// A .env file (ENV_FILE, default ".env") is loaded first when present; variables
// already set in the environment win.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	return &cfg, nil
}

func normalizeOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), devOrigins...)
	}
	return out
}
