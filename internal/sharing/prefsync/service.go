// Package prefsync keeps the sharing preference cache and the preferences
// API in step: cache-aside reads, optimistic writes with rollback.
package prefsync

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustverify/internal/sharing/cache"
	"trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/models"
	dErrors "trustverify/pkg/domain-errors"
	"trustverify/pkg/requestcontext"
)

// Service orchestrates the cache and the remote. Concurrent writes for the
// same user are not serialized; the remote decides the final state.
type Service struct {
	cache    *cache.Cache
	remote   Remote
	logger   *slog.Logger
	metrics  *metrics.Metrics
	observer Observer
	clock    func() time.Time

	mu      sync.Mutex
	pending map[string]*PendingWrite
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithObserver registers a hook called on every pending-write transition.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(c *cache.Cache, remote Remote, opts ...Option) *Service {
	s := &Service{
		cache:   c,
		remote:  remote,
		logger:  slog.Default(),
		clock:   time.Now,
		pending: make(map[string]*PendingWrite),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPreferences serves a valid cache entry unless forceRefresh is set.
// Otherwise it asks the remote and refreshes the cache. When the remote
// fails, a still-valid cache entry is returned instead of the error.
func (s *Service) GetPreferences(ctx context.Context, userID string, forceRefresh bool) ([]models.SharingPreference, error) {
	if !forceRefresh {
		if prefs, ok := s.cache.Get(ctx, userID); ok {
			return prefs, nil
		}
	}

	prefs, err := s.remote.List(ctx, userID)
	if err != nil {
		if cached, ok := s.cache.Get(ctx, userID); ok {
			s.logger.WarnContext(ctx, "preferences API failed, serving cached preferences",
				"user_id", userID,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			s.metrics.IncrementStaleFallback()
			return cached, nil
		}
		return nil, err
	}
	if prefs == nil {
		prefs = []models.SharingPreference{}
	}
	s.cache.Set(ctx, userID, prefs)
	return prefs, nil
}

// SavePreference applies pref to the cache first, then to the remote. If the
// remote rejects it the cache goes back to what it held before: the previous
// preference for that recipient, an entry without it, or no entry at all.
func (s *Service) SavePreference(ctx context.Context, pref models.SharingPreference) (models.SharingPreference, error) {
	if pref.UserID == "" {
		return models.SharingPreference{}, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	pref.RecipientEmail = models.NormalizeEmail(pref.RecipientEmail)

	var prior *models.SharingPreference
	cached, hadEntry := s.cache.Get(ctx, pref.UserID)
	if i := slices.IndexFunc(cached, func(p models.SharingPreference) bool {
		return p.SameRecipient(pref.RecipientEmail)
	}); i >= 0 {
		prior = &cached[i]
	}

	w := s.begin(ctx, OpSave, pref.UserID, pref.RecipientEmail)
	s.cache.Upsert(ctx, pref.UserID, pref)

	saved, err := s.remote.Save(ctx, pref)
	if err != nil {
		switch {
		case prior != nil:
			s.cache.Upsert(ctx, pref.UserID, *prior)
		case hadEntry:
			s.cache.Remove(ctx, pref.UserID, pref.RecipientEmail)
		default:
			s.cache.Clear(ctx, pref.UserID)
		}
		s.finish(ctx, w, err)
		return models.SharingPreference{}, err
	}

	s.cache.Upsert(ctx, pref.UserID, saved)
	s.finish(ctx, w, nil)
	return saved, nil
}

// DeletePreference removes the preference from the cache, then from the
// remote. A failed remote delete cannot be undone locally, so the cache is
// rebuilt from the remote instead. The original error is returned.
func (s *Service) DeletePreference(ctx context.Context, userID, recipientEmail string) error {
	recipientEmail = models.NormalizeEmail(recipientEmail)
	w := s.begin(ctx, OpDelete, userID, recipientEmail)
	s.cache.Remove(ctx, userID, recipientEmail)

	if err := s.remote.Delete(ctx, userID, recipientEmail); err != nil {
		s.cache.ForceSync(ctx, userID)
		if _, syncErr := s.GetPreferences(ctx, userID, true); syncErr != nil {
			s.logger.WarnContext(ctx, "resync after failed delete also failed",
				"user_id", userID,
				"error", syncErr,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		s.finish(ctx, w, err)
		return err
	}
	s.finish(ctx, w, nil)
	return nil
}

// SyncWithServer refreshes the cache from the remote.
func (s *Service) SyncWithServer(ctx context.Context, userID string) error {
	_, err := s.GetPreferences(ctx, userID, true)
	return err
}

// QueueOfflineWrite accepts a write for later delivery. Nothing is persisted
// yet; the call only records that a write was dropped.
func (s *Service) QueueOfflineWrite(ctx context.Context, pref models.SharingPreference) {
	s.logger.InfoContext(ctx, "offline write queue not available, write dropped",
		"user_id", pref.UserID,
		"recipient_email", models.NormalizeEmail(pref.RecipientEmail),
		"request_id", requestcontext.RequestID(ctx),
	)
}

// Pending returns a snapshot of writes still waiting on the remote.
func (s *Service) Pending() []PendingWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingWrite, 0, len(s.pending))
	for _, w := range s.pending {
		out = append(out, *w)
	}
	slices.SortFunc(out, func(a, b PendingWrite) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

func (s *Service) begin(ctx context.Context, op WriteOp, userID, recipientEmail string) *PendingWrite {
	w := &PendingWrite{
		ID:             uuid.NewString(),
		Op:             op,
		UserID:         userID,
		RecipientEmail: recipientEmail,
		State:          StatePending,
		StartedAt:      s.clock(),
	}
	s.mu.Lock()
	s.pending[w.ID] = w
	s.mu.Unlock()
	s.notify(*w)
	return w
}

func (s *Service) finish(ctx context.Context, w *PendingWrite, cause error) {
	s.mu.Lock()
	var err error
	if cause != nil {
		err = w.revert(cause, s.clock())
	} else {
		err = w.commit(s.clock())
	}
	delete(s.pending, w.ID)
	snapshot := *w
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "pending write transition rejected", "write_id", w.ID, "error", err)
		return
	}
	if snapshot.State == StateReverted {
		s.metrics.IncrementRollback(string(snapshot.Op))
		s.logger.WarnContext(ctx, "optimistic write reverted",
			"write_id", snapshot.ID,
			"op", snapshot.Op,
			"user_id", snapshot.UserID,
			"error", cause,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.notify(snapshot)
}

func (s *Service) notify(w PendingWrite) {
	if s.observer != nil {
		s.observer(w)
	}
}
