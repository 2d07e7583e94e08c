package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingConsumer struct {
	changes []Entity
}

func (c *recordingConsumer) HandleChange(_ context.Context, _ string, entity Entity) error {
	c.changes = append(c.changes, entity)
	return nil
}

func newTestDeduper(t *testing.T) *Deduper {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewDeduper(client, "test", zap.NewNop())
}

func postWebhook(h *Handler, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/quickbooks", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	return rec
}

func TestReceiveRejectsMissingSignature(t *testing.T) {
	consumer := &recordingConsumer{}
	h := NewHandler("s3cret", newTestDeduper(t), consumer, zap.NewNop())

	rec := postWebhook(h, sampleBody, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, consumer.changes)
}

func TestReceiveRejectsBadSignature(t *testing.T) {
	consumer := &recordingConsumer{}
	h := NewHandler("s3cret", newTestDeduper(t), consumer, zap.NewNop())

	rec := postWebhook(h, sampleBody, sign([]byte(sampleBody), "wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, consumer.changes)
}

func TestReceiveDistinguishesMalformedFromUnauthenticated(t *testing.T) {
	consumer := &recordingConsumer{}
	h := NewHandler("s3cret", newTestDeduper(t), consumer, zap.NewNop())

	body := `{"eventNotifications":`
	rec := postWebhook(h, body, sign([]byte(body), "s3cret"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, consumer.changes)
}

func TestReceiveProcessesVerifiedDelivery(t *testing.T) {
	consumer := &recordingConsumer{}
	h := NewHandler("s3cret", newTestDeduper(t), consumer, zap.NewNop())

	rec := postWebhook(h, sampleBody, sign([]byte(sampleBody), "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, consumer.changes, 1)
	assert.Equal(t, "55", consumer.changes[0].ID)
}

func TestReceiveSuppressesRedelivery(t *testing.T) {
	consumer := &recordingConsumer{}
	h := NewHandler("s3cret", newTestDeduper(t), consumer, zap.NewNop())
	signature := sign([]byte(sampleBody), "s3cret")

	require.Equal(t, http.StatusOK, postWebhook(h, sampleBody, signature).Code)
	require.Equal(t, http.StatusOK, postWebhook(h, sampleBody, signature).Code)

	// At-least-once delivery, at-most-once processing.
	assert.Len(t, consumer.changes, 1)
}

func TestDeduperTracksDistinctChanges(t *testing.T) {
	d := newTestDeduper(t)
	ctx := context.Background()

	update := Entity{Name: "Bill", Operation: OpUpdate, ID: "7"}
	assert.False(t, d.Seen(ctx, "9130", update))
	assert.True(t, d.Seen(ctx, "9130", update))

	// Same entity, different operation: a distinct change.
	assert.False(t, d.Seen(ctx, "9130", Entity{Name: "Bill", Operation: OpDelete, ID: "7"}))
	// Same change in another realm is also distinct.
	assert.False(t, d.Seen(ctx, "4242", update))
}
