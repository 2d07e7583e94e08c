package invoice

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, "test")
}

func sampleInvoice(number string) *Invoice {
	return &Invoice{
		Number:   number,
		Vendor:   "Exodus Dental Solutions",
		ClinicID: "SandySprings",
		Status:   StatusNew,
		Lines: []LineItem{{
			Description: "Crown Prep",
			Quantity:    decimal.NewFromInt(4),
			UnitPrice:   decimal.RequireFromString("200.00"),
			Total:       decimal.RequireFromString("800.00"),
		}},
		Total: decimal.RequireFromString("800.00"),
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleInvoice("4307")))

	got, err := store.Get(ctx, "4307")
	require.NoError(t, err)
	assert.Equal(t, "Exodus Dental Solutions", got.Vendor)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("800.00")))
	assert.Equal(t, StatusNew, got.Status)
}

func TestStoreRejectsDuplicateNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleInvoice("4307")))

	dup := sampleInvoice("4307")
	dup.Vendor = "Someone Else"
	assert.ErrorIs(t, store.Save(ctx, dup), ErrDuplicate)

	// The original record is untouched.
	got, err := store.Get(ctx, "4307")
	require.NoError(t, err)
	assert.Equal(t, "Exodus Dental Solutions", got.Vendor)
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListSortedByNumber(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, n := range []string{"4309", "4307", "4308"} {
		require.NoError(t, store.Save(ctx, sampleInvoice(n)))
	}

	invoices, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 3)
	assert.Equal(t, "4307", invoices[0].Number)
	assert.Equal(t, "4308", invoices[1].Number)
	assert.Equal(t, "4309", invoices[2].Number)
}

func TestStoreUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := sampleInvoice("4307")
	require.NoError(t, store.Save(ctx, inv))

	inv.Status = StatusApproved
	inv.Approved = true
	require.NoError(t, store.Update(ctx, inv))

	got, err := store.Get(ctx, "4307")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	assert.True(t, got.Approved)
}

func TestStoreSetBillRef(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleInvoice("4307")))
	require.NoError(t, store.SetBillRef(ctx, "4307", "bill-99"))

	got, err := store.Get(ctx, "4307")
	require.NoError(t, err)
	assert.Equal(t, "bill-99", got.BillID)
	assert.True(t, got.Synced())

	assert.ErrorIs(t, store.SetBillRef(ctx, "missing", "bill-1"), ErrNotFound)
}

func TestStoreRemove(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleInvoice("4307")))
	require.NoError(t, store.Remove(ctx, "4307"))

	_, err := store.Get(ctx, "4307")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing an absent record is a no-op.
	require.NoError(t, store.Remove(ctx, "4307"))
}
