// webhook/dedup.go
package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// dedupWindow is how long a processed entity change suppresses identical
// redeliveries. Provider delivery is at-least-once.
const dedupWindow = 24 * time.Hour

// Deduper makes webhook consumption idempotent by remembering processed
// entity changes in Redis for a delivery window.
type Deduper struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewDeduper creates a Redis-backed webhook deduplicator
func NewDeduper(client redis.UniversalClient, prefix string, logger *zap.Logger) *Deduper {
	return &Deduper{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (d *Deduper) key(realmID string, e Entity) string {
	return fmt.Sprintf("%s:webhook:%s:%s:%s:%s", d.prefix, realmID, e.Name, e.Operation, e.ID)
}

// Seen records an entity change and reports whether it was already
// processed within the window. On Redis failure it reports unseen:
// double-processing is recoverable, dropping a change is not.
func (d *Deduper) Seen(ctx context.Context, realmID string, e Entity) bool {
	added, err := d.client.SetNX(ctx, d.key(realmID, e), time.Now().Unix(), dedupWindow).Result()
	if err != nil {
		d.logger.Warn("webhook dedup check failed, processing anyway",
			zap.String("entity", e.Name), zap.String("id", e.ID), zap.Error(err))
		return false
	}
	return !added
}
