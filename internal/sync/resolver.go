// sync/resolver.go
package sync

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/pcsdental/invoicedesk/pkg/qbclient"
)

// vendorAPI is the slice of the QuickBooks client the resolver needs.
type vendorAPI interface {
	FindVendorByName(ctx context.Context, realmID, name string) (*qbclient.Vendor, error)
	CreateVendor(ctx context.Context, realmID, name string) (*qbclient.Vendor, error)
	FindAccountByName(ctx context.Context, realmID, name string) (*qbclient.Account, error)
}

// Resolver finds or creates remote business objects idempotently. Only
// remote identifiers are kept locally, enough to avoid duplicate creation
// on retry.
type Resolver struct {
	api    vendorAPI
	logger *zap.Logger

	mu           sync.RWMutex
	vendorCache  map[string]string // realm + display name → remote id
	accountCache map[string]string // realm + account name → remote id
}

// cacheKey scopes a cached remote id to its realm. Remote ids are only
// meaningful inside the company that issued them.
func cacheKey(realmID, name string) string {
	return realmID + "\x00" + name
}

// NewResolver creates a resolver over the QuickBooks client
func NewResolver(api vendorAPI, logger *zap.Logger) *Resolver {
	return &Resolver{
		api:          api,
		logger:       logger,
		vendorCache:  make(map[string]string),
		accountCache: make(map[string]string),
	}
}

// GetOrCreateVendor returns the remote vendor for a display name,
// creating a minimal record when none exists. Two concurrent syncs may
// race on the same new name; the provider's uniqueness constraint on
// display name acts as the lock, and a duplicate-name rejection falls
// back to re-querying the now-existing vendor.
func (r *Resolver) GetOrCreateVendor(ctx context.Context, realmID, name string) (*qbclient.Vendor, error) {
	r.mu.RLock()
	id, cached := r.vendorCache[cacheKey(realmID, name)]
	r.mu.RUnlock()
	if cached {
		return &qbclient.Vendor{ID: id, DisplayName: name}, nil
	}

	vendor, err := r.api.FindVendorByName(ctx, realmID, name)
	if err != nil {
		return nil, &ResolutionError{Kind: "vendor", Name: name, Err: err}
	}
	if vendor == nil {
		vendor, err = r.api.CreateVendor(ctx, realmID, name)
		if err != nil {
			var apiErr *qbclient.APIError
			if !errors.As(err, &apiErr) || !apiErr.IsDuplicateName() {
				return nil, &ResolutionError{Kind: "vendor", Name: name, Err: err}
			}
			// Lost the create race; the vendor exists now.
			r.logger.Info("vendor create conflicted, re-querying",
				zap.String("vendor", name))
			vendor, err = r.api.FindVendorByName(ctx, realmID, name)
			if err != nil || vendor == nil {
				return nil, &ResolutionError{Kind: "vendor", Name: name, Err: err}
			}
		}
	}

	r.mu.Lock()
	r.vendorCache[cacheKey(realmID, name)] = vendor.ID
	r.mu.Unlock()
	return vendor, nil
}

// FindAccountByName returns the expense account for a category name, or
// nil when no match exists so the caller can apply the configured
// default.
func (r *Resolver) FindAccountByName(ctx context.Context, realmID, name string) (*qbclient.Account, error) {
	r.mu.RLock()
	id, cached := r.accountCache[cacheKey(realmID, name)]
	r.mu.RUnlock()
	if cached {
		return &qbclient.Account{ID: id, Name: name}, nil
	}

	account, err := r.api.FindAccountByName(ctx, realmID, name)
	if err != nil {
		return nil, &ResolutionError{Kind: "account", Name: name, Err: err}
	}
	if account == nil {
		return nil, nil
	}

	r.mu.Lock()
	r.accountCache[cacheKey(realmID, name)] = account.ID
	r.mu.Unlock()
	return account, nil
}
