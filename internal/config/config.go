// Package config loads and validates all environment variables at startup.
// Every other package receives typed values — nothing reads os.Getenv directly.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mail providers accepted in MAIL_PROVIDER.
const (
	MailProviderSMTP   = "smtp"
	MailProviderResend = "resend"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port            string        // default "50051"; gRPC and HTTP share it
	Env             string        // "development" | "staging" | "production"
	ShutdownTimeout time.Duration // default 20s

	// ── Order store ───────────────────────────────────────────────────────────
	// StoreURL selects the backend by scheme:
	// mongodb://, mongodb+srv:// or postgres://, postgresql://
	StoreURL         string
	StoreDatabase    string // MongoDB only, default "pizzeria"
	OrdersCollection string // MongoDB only, default "orders"
	UsersCollection  string // MongoDB only, default "users"
	StoreTimeout     time.Duration

	// ── Mail ──────────────────────────────────────────────────────────────────
	MailProvider string // "smtp" (default) | "resend"
	MailTimeout  time.Duration

	SMTPHost     string // default "smtp.gmail.com"
	SMTPPort     int    // default 587
	SMTPUsername string
	SMTPPassword string

	ResendAPIKey string

	EmailFromAddr string // default SMTP_USERNAME
	EmailFromName string // default "Pizzeria"

	// ── Change feed ───────────────────────────────────────────────────────────
	WatchEnabled bool          // default true
	WorkerCount  int           // default 4
	QueueSize    int           // default WorkerCount*2
	JobTimeout   time.Duration // default 30s
}

// Load reads all environment variables and returns a validated Config.
// It automatically loads a .env file from the working directory when present,
// so plain `go run ./cmd/notifier` works in development without any wrapper.
// Real environment variables always take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv(".env")

	c := &Config{
		Port:             getEnv("PORT", "50051"),
		Env:              getEnv("ENV", "development"),
		ShutdownTimeout:  getEnvAsDuration("SHUTDOWN_TIMEOUT", 20*time.Second),
		StoreURL:         os.Getenv("STORE_URL"),
		StoreDatabase:    getEnv("STORE_DATABASE", "pizzeria"),
		OrdersCollection: getEnv("ORDERS_COLLECTION", "orders"),
		UsersCollection:  getEnv("USERS_COLLECTION", "users"),
		StoreTimeout:     getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		MailProvider:     strings.ToLower(getEnv("MAIL_PROVIDER", MailProviderSMTP)),
		MailTimeout:      getEnvAsDuration("MAIL_TIMEOUT", 15*time.Second),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Pizzeria"),
		WatchEnabled:     getEnvAsBool("WATCH_ENABLED", true),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 4),
		JobTimeout:       getEnvAsDuration("JOB_TIMEOUT", 30*time.Second),
	}
	c.EmailFromAddr = getEnv("EMAIL_FROM_ADDR", c.SMTPUsername)
	c.QueueSize = getEnvAsInt("QUEUE_SIZE", c.WorkerCount*2)

	return c, c.validate()
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	var errs []error

	switch {
	case c.StoreURL == "":
		errs = append(errs, fmt.Errorf("missing required env var: STORE_URL"))
	case !hasAnyPrefix(c.StoreURL, "mongodb://", "mongodb+srv://", "postgres://", "postgresql://"):
		errs = append(errs, fmt.Errorf("STORE_URL must be a mongodb:// or postgres:// connection string"))
	}

	switch c.MailProvider {
	case MailProviderSMTP:
		required := map[string]string{
			"SMTP_USERNAME": c.SMTPUsername,
			"SMTP_PASSWORD": c.SMTPPassword,
		}
		for name, val := range required {
			if val == "" {
				errs = append(errs, fmt.Errorf("missing required env var: %s", name))
			}
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT out of range: %d", c.SMTPPort))
		}
	case MailProviderResend:
		if c.ResendAPIKey == "" {
			errs = append(errs, fmt.Errorf("missing required env var: RESEND_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_PROVIDER must be %q or %q, got %q", MailProviderSMTP, MailProviderResend, c.MailProvider))
	}

	if c.EmailFromAddr == "" {
		errs = append(errs, fmt.Errorf("missing required env var: EMAIL_FROM_ADDR"))
	}

	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("QUEUE_SIZE must be positive, got %d", c.QueueSize))
	}

	return errors.Join(errs...)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ─── DOT-ENV LOADER ──────────────────────────────────────────────────────────

// loadDotEnv reads key=value pairs from path and sets them in the environment,
// but only for keys that are not already set. This means real env vars (e.g.
// from Docker or your shell) always win over the file.
// Missing file, blank lines, and #-comments are all silently ignored.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return // file absent — that's fine
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Strip optional surrounding quotes: KEY="value" or KEY='value'
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		// Only set if the key isn't already present in the environment.
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration syntax ("5s", "1m") or a plain integer
// number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
