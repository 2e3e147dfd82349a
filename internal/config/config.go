package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

const defaultJWTSecret = "mindnest-dev-secret-change-in-production"

type Config struct {
	Environment string `env:"ENV,default=development"`
	Port        string `env:"PORT,default=8080"`
	Host        string `env:"HOST,default=http://localhost:8080"` // Public backend URL
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	PostgresURI string `env:"POSTGRES_URI,default=postgres://localhost:5432/mindnest?sslmode=disable"`
	RedisURI    string `env:"REDIS_URI,default=redis://localhost:6379/0"`
	MongoURI    string `env:"MONGODB_URI"` // Audit log; disabled when empty

	JWTSecret   string        `env:"JWT_SECRET,default=mindnest-dev-secret-change-in-production"`
	JWTIssuer   string        `env:"JWT_ISSUER,default=mindnest-api"`
	JWTAudience string        `env:"JWT_AUDIENCE,default=mindnest-client"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY,default=720h"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	MaxPinnedEntries int `env:"MAX_PINNED_ENTRIES,default=5"`

	FrontendURL       string `env:"FRONTEND_URL,default=http://localhost:5173"`
	RawAllowedOrigins string `env:"ALLOWED_ORIGINS"`

	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS, else FRONTEND_URL
	AllowedHost    string   // Hostname only for strict host check (production only)
}

// Load reads the configuration from the environment. Call godotenv first to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))

	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}

	cfg.AllowedOrigins = parseOrigins(cfg.RawAllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		if u := strings.TrimSpace(cfg.FrontendURL); u != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, u)
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:5173"}
	}

	return cfg, nil
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" && !containsOrigin(out, part) {
			out = append(out, part)
		}
	}
	return out
}

func containsOrigin(list []string, o string) bool {
	o = strings.TrimSpace(strings.ToLower(o))
	for _, v := range list {
		if strings.TrimSpace(strings.ToLower(v)) == o {
			return true
		}
	}
	return false
}

// hostname strips scheme, path and port from a URL-ish host string.
func hostname(host string) string {
	host = strings.TrimSpace(host)
	for _, prefix := range []string{"https://", "http://"} {
		host = strings.TrimPrefix(host, prefix)
	}
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return strings.TrimSpace(host)
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// UsesDefaultSecret reports whether JWT_SECRET was left at the development default.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// CloudinaryEnabled reports whether all Cloudinary credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
