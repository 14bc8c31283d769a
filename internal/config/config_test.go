package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test. t.Setenv restores the originals afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENV", "SHUTDOWN_TIMEOUT", "STORE_URL", "STORE_DATABASE",
		"ORDERS_COLLECTION", "USERS_COLLECTION", "STORE_TIMEOUT", "MAIL_PROVIDER",
		"MAIL_TIMEOUT", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD",
		"RESEND_API_KEY", "EMAIL_FROM_ADDR", "EMAIL_FROM_NAME", "WATCH_ENABLED",
		"WORKER_COUNT", "QUEUE_SIZE", "JOB_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir()) // no stray .env
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "mongodb://localhost:27017")
	t.Setenv("SMTP_USERNAME", "kitchen@example.com")
	t.Setenv("SMTP_PASSWORD", "app-password")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "50051", c.Port)
	assert.Equal(t, "development", c.Env)
	assert.Equal(t, "pizzeria", c.StoreDatabase)
	assert.Equal(t, "orders", c.OrdersCollection)
	assert.Equal(t, "users", c.UsersCollection)
	assert.Equal(t, MailProviderSMTP, c.MailProvider)
	assert.Equal(t, "smtp.gmail.com", c.SMTPHost)
	assert.Equal(t, 587, c.SMTPPort)
	assert.Equal(t, "kitchen@example.com", c.EmailFromAddr, "sender defaults to the SMTP account")
	assert.Equal(t, "Pizzeria", c.EmailFromName)
	assert.True(t, c.WatchEnabled)
	assert.Equal(t, 4, c.WorkerCount)
	assert.Equal(t, 8, c.QueueSize)
	assert.Equal(t, 5*time.Second, c.StoreTimeout)
	assert.Equal(t, 15*time.Second, c.MailTimeout)
	assert.Equal(t, 30*time.Second, c.JobTimeout)
	assert.Equal(t, 20*time.Second, c.ShutdownTimeout)
	assert.False(t, c.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "postgres://notifier@localhost/pizzeria?sslmode=disable")
	t.Setenv("MAIL_PROVIDER", "Resend")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("EMAIL_FROM_ADDR", "orders@pizzeria.example")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("JOB_TIMEOUT", "45")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, MailProviderResend, c.MailProvider)
	assert.False(t, c.WatchEnabled)
	assert.Equal(t, 2, c.WorkerCount)
	assert.Equal(t, 4, c.QueueSize)
	assert.Equal(t, 250*time.Millisecond, c.StoreTimeout)
	assert.Equal(t, 45*time.Second, c.JobTimeout)
}

func TestLoad_ReportsEveryProblem(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("QUEUE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)

	for _, want := range []string{"STORE_URL", "SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM_ADDR", "WORKER_COUNT", "QUEUE_SIZE"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidate_StoreScheme(t *testing.T) {
	c := &Config{
		StoreURL:      "mysql://root@localhost/pizzeria",
		MailProvider:  MailProviderResend,
		ResendAPIKey:  "re_test",
		EmailFromAddr: "orders@pizzeria.example",
		WorkerCount:   1,
		QueueSize:     1,
	}
	assert.ErrorContains(t, c.validate(), "STORE_URL must be")

	c.StoreURL = "mongodb+srv://cluster0.example.mongodb.net/"
	assert.NoError(t, c.validate())
}

func TestValidate_UnknownMailProvider(t *testing.T) {
	c := &Config{
		StoreURL:      "mongodb://localhost",
		MailProvider:  "sendgrid",
		EmailFromAddr: "orders@pizzeria.example",
		WorkerCount:   1,
		QueueSize:     1,
	}
	assert.ErrorContains(t, c.validate(), "MAIL_PROVIDER")
}

func TestLoadDotEnv_RealEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_HOST", "smtp.internal")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
# comment
SMTP_HOST=smtp.from-file
EMAIL_FROM_NAME="Luigi's"
SMTP_PORT = 2525
`), 0o600))

	loadDotEnv(path)

	assert.Equal(t, "smtp.internal", os.Getenv("SMTP_HOST"))
	assert.Equal(t, "Luigi's", os.Getenv("EMAIL_FROM_NAME"))
	assert.Equal(t, "2525", os.Getenv("SMTP_PORT"))
}
