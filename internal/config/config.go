package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

type Config struct {
	Environment  string `env:"ENV,default=development"` // production, development, etc.
	Port         string `env:"PORT,default=8080"`
	Host         string `env:"HOST,default=http://localhost:8080"` // e.g. https://api.clubhub.app
	StoreBackend string `env:"STORE_BACKEND,default=mongo"`        // mongo or memory

	MongoURI      string `env:"MONGODB_URI,default=mongodb://localhost:27017/clubhub"`
	MongoDatabase string `env:"MONGODB_DATABASE"`
	PostgresURI   string `env:"POSTGRES_URI,default=postgres://localhost:5432/clubhub?sslmode=disable"`
	RedisURI      string `env:"REDIS_URI,default=redis://localhost:6379/0"`

	JWTSecret string        `env:"JWT_SECRET,default=your-secret-key-change-in-production"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`

	FrontendURL    string `env:"FRONTEND_URL,default=http://localhost:3000"`
	FrontendURL2   string `env:"FRONTEND_URL_2"`
	FrontendURL3   string `env:"FRONTEND_URL_3"`
	RawOrigins     string `env:"ALLOWED_ORIGINS"`
	AllowedOrigins []string
	AllowedHost    string // Hostname only for strict host check (production only)

	CloudinaryName      string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	MessageCostCoins  int64         `env:"MESSAGE_COST_COINS,default=1"`
	VIPPriceCoins     int64         `env:"VIP_PRICE_COINS,default=99"`
	VIPDuration       time.Duration `env:"VIP_DURATION,default=720h"`
	InviteBonusCoins  int64         `env:"INVITE_BONUS_COINS,default=10"`
	ClubResetSchedule string        `env:"CLUB_RESET_SCHEDULE,default=0 0 * * *"`
	ClubResetTimezone string        `env:"CLUB_RESET_TIMEZONE,default=UTC"`
}

// Load decodes the environment into a Config and fills in the derived
// CORS origins and production host.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// AllowedHost is only set in production; host check is skipped in development
	if cfg.IsProduction() {
		cfg.AllowedHost = hostname(cfg.Host)
	}
	cfg.AllowedOrigins = cfg.origins()
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be mongo or memory, got %q", c.StoreBackend)
	}
	if c.MessageCostCoins < 0 || c.VIPPriceCoins < 0 || c.InviteBonusCoins < 0 {
		return errors.New("coin amounts must not be negative")
	}
	if c.VIPDuration <= 0 {
		return errors.New("VIP_DURATION must be positive")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "your-secret-key-change-in-production") {
		return errors.New("JWT_SECRET must be set in production")
	}
	return nil
}

// origins lists ALLOWED_ORIGINS, or the FRONTEND_URLs, plus https://domain
// and https://www.domain when HOST is a backend subdomain.
func (c *Config) origins() []string {
	allowed := parseOrigins(c.RawOrigins)
	if len(allowed) == 0 {
		for _, u := range []string{c.FrontendURL, c.FrontendURL2, c.FrontendURL3} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowed = append(allowed, u)
			}
		}
	}

	host := hostname(c.Host)
	if host != "" && host != "localhost" {
		parts := strings.Split(host, ".")
		if len(parts) >= 2 {
			domain := strings.Join(parts[1:], ".")
			if len(parts) == 2 {
				domain = host
			}
			for _, origin := range []string{"https://" + domain, "https://www." + domain} {
				if !containsOrigin(allowed, origin) {
					allowed = append(allowed, origin)
				}
			}
		}
	}
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}
	return allowed
}

// hostname strips scheme, path and port from a URL-ish HOST value.
func hostname(raw string) string {
	h := strings.TrimSpace(raw)
	for _, prefix := range []string{"https://", "http://"} {
		h = strings.TrimPrefix(h, prefix)
	}
	if idx := strings.Index(h, "/"); idx != -1 {
		h = h[:idx]
	}
	if idx := strings.Index(h, ":"); idx != -1 {
		h = h[:idx]
	}
	return strings.TrimSpace(h)
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
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

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all three Cloudinary credentials are set.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// ResetLocation resolves CLUB_RESET_TIMEZONE.
func (c *Config) ResetLocation() (*time.Location, error) {
	return time.LoadLocation(c.ClubResetTimezone)
}
