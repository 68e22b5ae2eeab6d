package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustverify/internal/sharing/models"
)

func TestInMemoryPreferences(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.UpsertPreference(ctx, models.SharingPreference{
		UserID: "alice", RecipientEmail: "Bob@Example.com", ShareName: true,
	}, t0)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "bob@example.com", first.RecipientEmail)
	assert.True(t, first.Active())
	assert.Equal(t, t0, *first.CreatedAt)

	t.Run("upsert keeps identity", func(t *testing.T) {
		t1 := t0.Add(time.Hour)
		second, err := s.UpsertPreference(ctx, models.SharingPreference{
			UserID: "alice", RecipientEmail: "bob@example.com", SharePhone: true,
		}, t1)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.False(t, second.ShareName)
		assert.True(t, second.SharePhone)
		assert.Equal(t, t0, *second.CreatedAt)
		assert.Equal(t, t1, *second.UpdatedAt)
	})

	t.Run("list is per user and sorted", func(t *testing.T) {
		_, err := s.UpsertPreference(ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "aaron@example.com"}, t0)
		require.NoError(t, err)
		_, err = s.UpsertPreference(ctx, models.SharingPreference{UserID: "carol", RecipientEmail: "bob@example.com"}, t0)
		require.NoError(t, err)

		prefs, err := s.ListActive(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, prefs, 2)
		assert.Equal(t, "aaron@example.com", prefs[0].RecipientEmail)
		assert.Equal(t, "bob@example.com", prefs[1].RecipientEmail)
	})

	t.Run("soft delete hides and reactivation restores", func(t *testing.T) {
		require.NoError(t, s.Deactivate(ctx, "alice", "BOB@example.com", t0))
		assert.ErrorIs(t, s.Deactivate(ctx, "alice", "bob@example.com", t0), ErrNotFound)

		_, err := s.FindActive(ctx, "alice", "bob@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		prefs, err := s.ListActive(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, prefs, 1)

		back, err := s.UpsertPreference(ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com"}, t0)
		require.NoError(t, err)
		assert.Equal(t, first.ID, back.ID)
		assert.True(t, back.Active())
	})

	t.Run("unknown user", func(t *testing.T) {
		prefs, err := s.ListActive(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, prefs)
		assert.Empty(t, prefs)
	})
}

func TestInMemoryHistory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.SharingHistory{
		{ID: "1", UserID: "alice", RecipientEmail: "bob@example.com", Status: models.HistoryPending, SharedAt: t0},
		{ID: "2", UserID: "alice", RecipientEmail: "bob@example.com", Status: models.HistorySent, SharedAt: t0},
		{ID: "3", UserID: "carol", RecipientEmail: "bob@example.com", Status: models.HistorySent, SharedAt: t0},
		{ID: "4", UserID: "alice", RecipientEmail: "dave@example.com", Status: models.HistoryFailed, SharedAt: t0.Add(time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendHistory(ctx, e))
	}

	got, err := s.ListHistory(ctx, "alice")
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"4", "2", "1"}, ids)
}
