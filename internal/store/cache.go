package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"scrapconnect/sync-client/internal/model"
)

// SessionKey names the single persisted session record.
const SessionKey = "scrapconnect_user"

const opTimeout = 2 * time.Second

// Cache is the local persistence boundary for the session snapshot.
// Durability is advisory: write failures are logged and swallowed, and a record
// that cannot be read or decoded is treated as absent.
type Cache struct {
	backend Backend
	logger  *zap.Logger
}

// NewCache wraps backend.
func NewCache(backend Backend, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{backend: backend, logger: logger}
}

// Save persists snap, best effort.
func (c *Cache) Save(ctx context.Context, snap model.Snapshot) {
	if snap.Listings == nil {
		snap.Listings = []model.Listing{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("failed to encode session snapshot", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.backend.Put(ctx, SessionKey, data); err != nil {
		c.logger.Warn("failed to save to storage", zap.Error(err))
	}
}

// Load returns the stored snapshot, or false when none is stored or it is unreadable.
func (c *Cache) Load(ctx context.Context) (model.Snapshot, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	raw, err := c.backend.Get(ctx, SessionKey)
	if errors.Is(err, ErrNotFound) {
		return model.Snapshot{}, false
	}
	if err != nil {
		c.logger.Warn("failed to load from storage", zap.Error(err))
		return model.Snapshot{}, false
	}

	var snap model.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.Warn("discarding corrupt session record", zap.Error(err))
		return model.Snapshot{}, false
	}
	return snap, true
}

// Clear removes the stored snapshot, best effort.
func (c *Cache) Clear(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := c.backend.Delete(ctx, SessionKey); err != nil {
		c.logger.Warn("failed to clear storage", zap.Error(err))
	}
}
