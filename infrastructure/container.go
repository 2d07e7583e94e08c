// infrastructure/container.go
package infrastructure

import (
	"context"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/config"
	"github.com/pcsdental/invoicedesk/infrastructure/redis"
	"github.com/pcsdental/invoicedesk/internal/api"
	"github.com/pcsdental/invoicedesk/internal/auth"
	"github.com/pcsdental/invoicedesk/internal/invoice"
	"github.com/pcsdental/invoicedesk/internal/overlay"
	"github.com/pcsdental/invoicedesk/internal/sync"
	"github.com/pcsdental/invoicedesk/internal/webhook"
	"github.com/pcsdental/invoicedesk/pkg/qbclient"
)

// Container provides application dependencies
type Container struct {
	// Services
	AuthService *auth.Service
	Resolver    *sync.Resolver
	SyncEngine  *sync.Engine
	Reconciler  *overlay.Reconciler

	// Handlers
	AuthHandler    *auth.Handler
	APIHandler     *api.Handler
	WebhookHandler *webhook.Handler

	// Infrastructure
	RedisClient  goredis.UniversalClient
	RedisHealth  *redis.HealthChecker
	TokenStore   auth.TokenStore
	InvoiceStore invoice.Store
	Sessions     *auth.SessionStore
	QBClient     *qbclient.Client

	logger *zap.Logger
}

// NewContainer creates and initializes the dependency container
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{logger: logger}

	redisCfg := redis.DefaultConfig()
	redisCfg.Addresses = cfg.Redis.Addresses
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	c.RedisClient = redis.NewUniversalClient(redisCfg)
	c.RedisHealth = redis.NewHealthChecker(c.RedisClient, 30*time.Second)

	fallbackStore := auth.NewFallbackTokenStore(c.RedisClient, cfg.Redis.KeyPrefix, c.RedisHealth.IsHealthy, logger)
	fallbackStore.StartReplicationRoutine(ctx)
	c.TokenStore = fallbackStore

	c.Sessions = auth.NewSessionStore([]byte(cfg.Server.SessionSecret))

	c.AuthService = auth.NewService(auth.OAuthConfig{
		ClientID:     cfg.QuickBooks.ClientID,
		ClientSecret: cfg.QuickBooks.ClientSecret,
		RedirectURI:  cfg.QuickBooks.RedirectURI,
		Scopes:       cfg.QuickBooks.Scopes,
		AuthURL:      cfg.QuickBooks.AuthURL,
		TokenURL:     cfg.QuickBooks.TokenURL,
		RevokeURL:    cfg.QuickBooks.RevokeURL,
		APIBaseURL:   cfg.QuickBooks.APIBaseURL,
	}, c.TokenStore, logger)

	c.QBClient = qbclient.NewClient(cfg.QuickBooks.APIBaseURL, c.AuthService, logger)

	c.InvoiceStore = invoice.NewRedisStore(c.RedisClient, cfg.Redis.KeyPrefix)
	c.Reconciler = overlay.NewReconciler(cfg.Overlay.PatchTTL, logger)

	c.Resolver = sync.NewResolver(c.QBClient, logger)
	c.SyncEngine = sync.NewEngine(c.Resolver, c.QBClient, c.InvoiceStore, sync.Options{
		DefaultExpenseAccountID: cfg.QuickBooks.DefaultExpenseAccountID,
		DefaultAPAccountID:      cfg.QuickBooks.DefaultAPAccountID,
	}, logger)

	c.AuthHandler = auth.NewHandler(c.AuthService, c.Sessions, logger)
	c.APIHandler = api.NewHandler(c.InvoiceStore, c.Reconciler, c.SyncEngine, logger)

	deduper := webhook.NewDeduper(c.RedisClient, cfg.Redis.KeyPrefix, logger)
	consumer := api.NewChangeConsumer(c.InvoiceStore, c.Reconciler, logger)
	c.WebhookHandler = webhook.NewHandler(cfg.QuickBooks.WebhookVerifierToken, deduper, consumer, logger)

	logger.Info("container initialized",
		zap.String("environment", cfg.QuickBooks.Environment),
		zap.String("client_id", config.Redact(cfg.QuickBooks.ClientID)))

	return c, nil
}

// Shutdown gracefully closes connections
func (c *Container) Shutdown() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.logger.Warn("error closing redis connection", zap.Error(err))
		}
	}
}
