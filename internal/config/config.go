package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort          = "3001"
	DefaultTimeZone      = "Europe/Istanbul"
	DefaultSyncSchedule  = "*/5 * * * *"
	DefaultAPITimeout    = 30 * time.Second
	DefaultCORSOrigin    = "http://localhost:3000"
	DefaultServicesFile  = "services.yaml"
	DefaultDBDriver      = "pgx"
	DefaultDBSSLMode     = "disable"
	BreakerMaxFailures   = 5
	BreakerResetTimeout  = 10 * time.Minute
	MaxUploadBytes       = 32 << 20
	ShutdownGracePeriod  = 15 * time.Second
	StartupSyncTimeout   = 2 * time.Minute
	ScheduledSyncTimeout = 4 * time.Minute
)

// Config is the process configuration read from the environment.
type Config struct {
	Port string

	TokenURL    string
	DataURL     string
	Username    string
	Password    string
	APITimeout  time.Duration
	InsecureTLS bool

	CORSOrigins []string

	DBDriver    string
	DatabaseURL string

	AccountNamesFile string
	ServicesFile     string
	SyncSchedule     string
	SyncTimeZone     string
}

// Load reads the environment. Call godotenv.Load first to pick up a .env file.
func Load() (Config, error) {
	c := Config{
		Port:             getenv("PORT", DefaultPort),
		TokenURL:         os.Getenv("API_TOKEN_URL"),
		DataURL:          os.Getenv("API_DATA_URL"),
		Username:         os.Getenv("API_USERNAME"),
		Password:         os.Getenv("API_PASSWORD"),
		APITimeout:       DefaultAPITimeout,
		CORSOrigins:      splitList(getenv("CORS_ORIGINS", DefaultCORSOrigin)),
		DBDriver:         getenv("DB_DRIVER", DefaultDBDriver),
		AccountNamesFile: os.Getenv("ACCOUNT_NAMES_FILE"),
		ServicesFile:     getenv("SERVICES_FILE", DefaultServicesFile),
		SyncSchedule:     getenv("SYNC_SCHEDULE", DefaultSyncSchedule),
		SyncTimeZone:     getenv("SYNC_TIMEZONE", DefaultTimeZone),
	}

	if v := os.Getenv("API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("invalid API_TIMEOUT %q: %w", v, err)
		}
		c.APITimeout = d
	}
	if v := os.Getenv("API_INSECURE_TLS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("invalid API_INSECURE_TLS %q: %w", v, err)
		}
		c.InsecureTLS = b
	}

	switch c.DBDriver {
	case "pgx", "postgres":
		c.DatabaseURL = databaseURL()
		if c.DatabaseURL == "" {
			return c, fmt.Errorf("DB_DRIVER=%s requires DATABASE_URL or DB_HOST/DB_NAME", c.DBDriver)
		}
	case "memory":
	default:
		return c, fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}

// RemoteConfigured reports whether both remote endpoints are set.
func (c Config) RemoteConfigured() bool {
	return c.TokenURL != "" && c.DataURL != ""
}

// databaseURL prefers DATABASE_URL and otherwise assembles a URL from the
// DB_* variables.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + name,
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		u.Host = host + ":" + port
	}
	if user := os.Getenv("DB_USER"); user != "" {
		u.User = url.UserPassword(user, os.Getenv("DB_PASSWORD"))
	}
	q := url.Values{}
	q.Set("sslmode", getenv("DB_SSLMODE", DefaultDBSSLMode))
	u.RawQuery = q.Encode()
	return u.String()
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
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
