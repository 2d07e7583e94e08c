// config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// QuickBooks OAuth endpoints per environment.
const (
	authURL = "https://appcenter.intuit.com/connect/oauth2"

	sandboxTokenURL   = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	sandboxRevokeURL  = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"
	sandboxAPIBaseURL = "https://sandbox-quickbooks.api.intuit.com"

	productionTokenURL   = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
	productionRevokeURL  = "https://developer.api.intuit.com/v2/oauth2/tokens/revoke"
	productionAPIBaseURL = "https://quickbooks.api.intuit.com"
)

// QuickBooksConfig holds OAuth credentials and environment selection
type QuickBooksConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Environment  string // "sandbox" or "production"
	Scopes       []string

	// Signing secret for webhook verification (the app's verifier token)
	WebhookVerifierToken string

	// Default ledger accounts used by bill sync
	DefaultExpenseAccountID string
	DefaultAPAccountID      string

	AuthURL    string
	TokenURL   string
	RevokeURL  string
	APIBaseURL string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addresses []string
	Password  string
	DB        int
	KeyPrefix string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port          string
	Timeout       int // seconds
	SessionSecret string
}

// OverlayConfig holds optimistic-override settings
type OverlayConfig struct {
	PatchTTL time.Duration
}

// Config is the top-level application configuration
type Config struct {
	QuickBooks QuickBooksConfig
	Redis      RedisConfig
	Server     ServerConfig
	Overlay    OverlayConfig
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (Config, error) {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg := Config{
		QuickBooks: QuickBooksConfig{
			ClientID:                os.Getenv("QBO_CLIENT_ID"),
			ClientSecret:            os.Getenv("QBO_CLIENT_SECRET"),
			RedirectURI:             os.Getenv("QBO_REDIRECT_URI"),
			Environment:             getenvDefault("QBO_ENVIRONMENT", "sandbox"),
			Scopes:                  splitScopes(getenvDefault("QBO_SCOPES", "com.intuit.quickbooks.accounting")),
			WebhookVerifierToken:    os.Getenv("QBO_WEBHOOK_VERIFIER_TOKEN"),
			DefaultExpenseAccountID: os.Getenv("QBO_DEFAULT_EXPENSE_ACCOUNT_ID"),
			DefaultAPAccountID:      os.Getenv("QBO_DEFAULT_AP_ACCOUNT_ID"),
		},
		Redis: RedisConfig{
			Addresses: strings.Split(getenvDefault("REDIS_ADDRESSES", "localhost:6379"), ","),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getenvInt("REDIS_DB", 0),
			KeyPrefix: getenvDefault("REDIS_KEY_PREFIX", "invoicedesk"),
		},
		Server: ServerConfig{
			Port:          getenvDefault("SERVER_PORT", "8080"),
			Timeout:       getenvInt("SERVER_TIMEOUT", 15),
			SessionSecret: os.Getenv("SESSION_SECRET"),
		},
		Overlay: OverlayConfig{
			PatchTTL: getenvDuration("OVERLAY_PATCH_TTL", 15*time.Minute),
		},
	}

	if err := cfg.resolveEnvironment(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolveEnvironment() error {
	qb := &c.QuickBooks
	qb.AuthURL = authURL
	switch qb.Environment {
	case "sandbox":
		qb.TokenURL = sandboxTokenURL
		qb.RevokeURL = sandboxRevokeURL
		qb.APIBaseURL = sandboxAPIBaseURL
	case "production":
		qb.TokenURL = productionTokenURL
		qb.RevokeURL = productionRevokeURL
		qb.APIBaseURL = productionAPIBaseURL
	default:
		return fmt.Errorf("config: unknown QBO_ENVIRONMENT %q (want sandbox or production)", qb.Environment)
	}
	return nil
}

func (c *Config) validate() error {
	var missing []string
	if c.QuickBooks.ClientID == "" {
		missing = append(missing, "QBO_CLIENT_ID")
	}
	if c.QuickBooks.ClientSecret == "" {
		missing = append(missing, "QBO_CLIENT_SECRET")
	}
	if c.QuickBooks.RedirectURI == "" {
		missing = append(missing, "QBO_REDIRECT_URI")
	}
	if c.Server.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Redact masks a secret for logging, keeping only a trailing fragment.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitScopes(s string) []string {
	var scopes []string
	for _, part := range strings.Fields(s) {
		scopes = append(scopes, part)
	}
	return scopes
}
