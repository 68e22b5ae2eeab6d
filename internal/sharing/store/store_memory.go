package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustverify/internal/sharing/models"
)

type prefKey struct {
	userID string
	email  string
}

// InMemoryStore keeps preferences and history in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	prefs   map[prefKey]models.SharingPreference
	history []models.SharingHistory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{prefs: make(map[prefKey]models.SharingPreference)}
}

func (s *InMemoryStore) UpsertPreference(_ context.Context, pref models.SharingPreference, now time.Time) (models.SharingPreference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := prefKey{userID: pref.UserID, email: models.NormalizeEmail(pref.RecipientEmail)}
	active := true
	stored, ok := s.prefs[key]
	if !ok {
		created := now
		stored = models.SharingPreference{
			ID:             uuid.NewString(),
			UserID:         key.userID,
			RecipientEmail: key.email,
			CreatedAt:      &created,
		}
	}
	updated := now
	stored.ShareName = pref.ShareName
	stored.SharePhone = pref.SharePhone
	stored.IsActive = &active
	stored.UpdatedAt = &updated
	s.prefs[key] = stored
	return stored, nil
}

func (s *InMemoryStore) ListActive(_ context.Context, userID string) ([]models.SharingPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.SharingPreference{}
	for key, pref := range s.prefs {
		if key.userID == userID && pref.Active() {
			out = append(out, pref)
		}
	}
	slices.SortFunc(out, func(a, b models.SharingPreference) int {
		return strings.Compare(a.RecipientEmail, b.RecipientEmail)
	})
	return out, nil
}

func (s *InMemoryStore) FindActive(_ context.Context, userID, recipientEmail string) (models.SharingPreference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.prefs[prefKey{userID: userID, email: models.NormalizeEmail(recipientEmail)}]
	if !ok || !pref.Active() {
		return models.SharingPreference{}, ErrNotFound
	}
	return pref, nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, userID, recipientEmail string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := prefKey{userID: userID, email: models.NormalizeEmail(recipientEmail)}
	pref, ok := s.prefs[key]
	if !ok || !pref.Active() {
		return ErrNotFound
	}
	inactive := false
	updated := now
	pref.IsActive = &inactive
	pref.UpdatedAt = &updated
	s.prefs[key] = pref
	return nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, entry models.SharingHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entry)
	return nil
}

// ListHistory returns the user's entries newest first.
func (s *InMemoryStore) ListHistory(_ context.Context, userID string) ([]models.SharingHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.SharingHistory{}
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].UserID == userID {
			out = append(out, s.history[i])
		}
	}
	slices.SortStableFunc(out, func(a, b models.SharingHistory) int {
		return b.SharedAt.Compare(a.SharedAt)
	})
	return out, nil
}
