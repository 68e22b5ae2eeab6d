// Package cache keeps each user's sharing preferences for a bounded time so
// reads can skip the preferences API. The whole entry expires at once.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/models"
	"trustverify/pkg/platform/sentinel"
)

// DefaultTTL is how long an entry stays valid after its last sync.
const DefaultTTL = 24 * time.Hour

// KeyPrefix namespaces cache entries per user.
const KeyPrefix = "sharing_preferences_cache_"

// Key returns the backend key for userID.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Cache is a per-user preference cache over a pluggable Backend. A Cache with
// a nil backend is valid: reads miss and writes are dropped. Backend failures
// are logged and treated the same way.
type Cache struct {
	backend Backend
	ttl     time.Duration
	clock   func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		ttl:     DefaultTTL,
		clock:   time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached preferences. ok is false when nothing is cached or
// the entry is older than the TTL; an expired entry is deleted on the way out.
func (c *Cache) Get(ctx context.Context, userID string) ([]models.SharingPreference, bool) {
	entry, ok := c.load(ctx, userID)
	if !ok {
		c.metrics.IncrementCacheLookup("miss")
		return nil, false
	}
	if c.expired(entry) {
		c.metrics.IncrementCacheLookup("expired")
		c.delete(ctx, userID)
		return nil, false
	}
	c.metrics.IncrementCacheLookup("hit")
	return entry.Preferences, true
}

// Set replaces the entry and stamps it as synced now.
func (c *Cache) Set(ctx context.Context, userID string, prefs []models.SharingPreference) {
	if c.backend == nil {
		return
	}
	entry := models.CacheEntry{
		Preferences: append([]models.SharingPreference{}, prefs...),
		LastSync:    c.clock().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to encode sharing cache entry", "user_id", userID, "error", err)
		return
	}
	if err := c.backend.Set(ctx, Key(userID), data, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to write sharing cache entry", "user_id", userID, "error", err)
	}
}

// Upsert replaces the preference for the same recipient or appends it. A
// missing or expired entry counts as empty.
func (c *Cache) Upsert(ctx context.Context, userID string, pref models.SharingPreference) {
	prefs, _ := c.Get(ctx, userID)
	prefs = slices.Clone(prefs)
	i := slices.IndexFunc(prefs, func(p models.SharingPreference) bool {
		return p.SameRecipient(pref.RecipientEmail)
	})
	if i >= 0 {
		prefs[i] = pref
	} else {
		prefs = append(prefs, pref)
	}
	c.Set(ctx, userID, prefs)
}

// Remove drops the preference for recipientEmail and persists the rest.
func (c *Cache) Remove(ctx context.Context, userID, recipientEmail string) {
	prefs, _ := c.Get(ctx, userID)
	prefs = slices.DeleteFunc(slices.Clone(prefs), func(p models.SharingPreference) bool {
		return p.SameRecipient(recipientEmail)
	})
	c.Set(ctx, userID, prefs)
}

// Clear deletes the user's entry.
func (c *Cache) Clear(ctx context.Context, userID string) {
	c.delete(ctx, userID)
}

// ForceSync makes the next read go to the remote.
func (c *Cache) ForceSync(ctx context.Context, userID string) {
	c.delete(ctx, userID)
}

// IsValid reports whether a non-expired entry exists. It never deletes.
func (c *Cache) IsValid(ctx context.Context, userID string) bool {
	entry, ok := c.load(ctx, userID)
	return ok && !c.expired(entry)
}

func (c *Cache) expired(entry models.CacheEntry) bool {
	return c.clock().Sub(entry.LastSync) > c.ttl
}

func (c *Cache) load(ctx context.Context, userID string) (models.CacheEntry, bool) {
	if c.backend == nil {
		return models.CacheEntry{}, false
	}
	data, err := c.backend.Get(ctx, Key(userID))
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "failed to read sharing cache entry", "user_id", userID, "error", err)
		}
		return models.CacheEntry{}, false
	}
	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WarnContext(ctx, "discarding corrupt sharing cache entry", "user_id", userID, "error", err)
		c.delete(ctx, userID)
		return models.CacheEntry{}, false
	}
	if entry.Preferences == nil {
		entry.Preferences = []models.SharingPreference{}
	}
	return entry, true
}

func (c *Cache) delete(ctx context.Context, userID string) {
	if c.backend == nil {
		return
	}
	if err := c.backend.Delete(ctx, Key(userID)); err != nil {
		c.logger.WarnContext(ctx, "failed to delete sharing cache entry", "user_id", userID, "error", err)
	}
}
