package prefsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustverify/internal/sharing/cache"
	"trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/models"
	"trustverify/internal/sharing/prefsync/mocks"
	dErrors "trustverify/pkg/domain-errors"
	"trustverify/pkg/platform/sentinel"
)

//go:generate mockgen -source=remote.go -destination=mocks/mocks.go -package=mocks Remote
type SyncSuite struct {
	suite.Suite
	ctx     context.Context
	now     time.Time
	remote  *mocks.MockRemote
	cache   *cache.Cache
	metrics *metrics.Metrics
	service *Service

	mu          sync.Mutex
	transitions []PendingWrite
}

func TestSyncSuite(t *testing.T) {
	suite.Run(t, new(SyncSuite))
}

func (s *SyncSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.transitions = nil
	clock := func() time.Time { return s.now }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctrl := gomock.NewController(s.T())
	s.remote = mocks.NewMockRemote(ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = cache.New(cache.NewMemoryBackend(), cache.WithClock(clock), cache.WithLogger(logger))
	s.service = New(s.cache, s.remote,
		WithLogger(logger),
		WithMetrics(s.metrics),
		WithClock(clock),
		WithObserver(func(w PendingWrite) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.transitions = append(s.transitions, w)
		}),
	)
}

func (s *SyncSuite) states() []WriteState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WriteState, 0, len(s.transitions))
	for _, w := range s.transitions {
		out = append(out, w.State)
	}
	return out
}

func bobPref() models.SharingPreference {
	return models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", ShareName: true}
}

func (s *SyncSuite) cached() []models.SharingPreference {
	prefs, ok := s.cache.Get(s.ctx, "alice")
	s.Require().True(ok, "expected a valid cache entry")
	return prefs
}

func (s *SyncSuite) TestGetPreferencesUsesValidCache() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})

	prefs, err := s.service.GetPreferences(s.ctx, "alice", false)

	s.Require().NoError(err)
	s.Equal([]models.SharingPreference{bobPref()}, prefs)
}

func (s *SyncSuite) TestGetPreferencesFillsCacheOnMiss() {
	s.remote.EXPECT().List(gomock.Any(), "alice").Return([]models.SharingPreference{bobPref()}, nil)

	prefs, err := s.service.GetPreferences(s.ctx, "alice", false)

	s.Require().NoError(err)
	s.Len(prefs, 1)
	s.Equal(prefs, s.cached())
}

func (s *SyncSuite) TestGetPreferencesRefetchesAfterExpiry() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	s.now = s.now.Add(25 * time.Hour)
	s.remote.EXPECT().List(gomock.Any(), "alice").Return(nil, nil)

	prefs, err := s.service.GetPreferences(s.ctx, "alice", false)

	s.Require().NoError(err)
	s.NotNil(prefs)
	s.Empty(prefs)
}

func (s *SyncSuite) TestForceRefreshBypassesCache() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	s.remote.EXPECT().List(gomock.Any(), "alice").Return([]models.SharingPreference{}, nil)

	prefs, err := s.service.GetPreferences(s.ctx, "alice", true)

	s.Require().NoError(err)
	s.Empty(prefs)
	s.Empty(s.cached())
}

func (s *SyncSuite) TestRemoteFailureFallsBackToValidCache() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	s.remote.EXPECT().List(gomock.Any(), "alice").Return(nil, errors.New("connection refused"))

	prefs, err := s.service.GetPreferences(s.ctx, "alice", true)

	s.Require().NoError(err)
	s.Equal([]models.SharingPreference{bobPref()}, prefs)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.StaleFallbacks))
}

func (s *SyncSuite) TestRemoteFailureWithoutValidCachePropagates() {
	remoteErr := dErrors.New(dErrors.CodeUnavailable, "preferences API unreachable")

	s.Run("no entry", func() {
		s.remote.EXPECT().List(gomock.Any(), "alice").Return(nil, remoteErr)
		_, err := s.service.GetPreferences(s.ctx, "alice", false)
		s.ErrorIs(err, remoteErr)
	})

	s.Run("expired entry", func() {
		s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
		s.now = s.now.Add(25 * time.Hour)
		s.remote.EXPECT().List(gomock.Any(), "alice").Return(nil, remoteErr)
		_, err := s.service.GetPreferences(s.ctx, "alice", true)
		s.ErrorIs(err, remoteErr)
	})
}

func (s *SyncSuite) TestSavePreferenceCommits() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{})
	active := true
	canonical := bobPref()
	canonical.ID = "pref-1"
	canonical.IsActive = &active

	s.remote.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.SharingPreference) (models.SharingPreference, error) {
			s.Equal("bob@example.com", p.RecipientEmail)
			s.Equal([]models.SharingPreference{p}, s.cached(), "optimistic entry visible before the remote answers")
			pending := s.service.Pending()
			s.Require().Len(pending, 1)
			s.Equal(StatePending, pending[0].State)
			s.Equal(OpSave, pending[0].Op)
			return canonical, nil
		})

	pref := bobPref()
	pref.RecipientEmail = " Bob@Example.com "
	saved, err := s.service.SavePreference(s.ctx, pref)

	s.Require().NoError(err)
	s.Equal(canonical, saved)
	s.Equal([]models.SharingPreference{canonical}, s.cached())
	s.Equal([]WriteState{StatePending, StateCommitted}, s.states())
	s.Empty(s.service.Pending())
}

func (s *SyncSuite) TestSavePreferenceOnEmptyCache() {
	canonical := bobPref()
	canonical.ID = "pref-1"

	s.remote.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.SharingPreference) (models.SharingPreference, error) {
			s.Equal([]models.SharingPreference{p}, s.cached(), "optimistic entry visible before the remote answers")
			return canonical, nil
		})

	_, err := s.service.SavePreference(s.ctx, bobPref())

	s.Require().NoError(err)
	s.Equal([]models.SharingPreference{canonical}, s.cached(), "server record replaces the optimistic one")
}

func (s *SyncSuite) TestSavePreferenceOnEmptyCacheRollsBackToNoEntry() {
	remoteErr := errors.New("503 from preferences API")
	s.remote.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p models.SharingPreference) (models.SharingPreference, error) {
			s.Equal([]models.SharingPreference{p}, s.cached())
			return models.SharingPreference{}, remoteErr
		})

	_, err := s.service.SavePreference(s.ctx, bobPref())

	s.ErrorIs(err, remoteErr)
	s.False(s.cache.IsValid(s.ctx, "alice"), "next read goes to the remote")
	s.Equal([]WriteState{StatePending, StateReverted}, s.states())
}

func (s *SyncSuite) TestSavePreferenceRollsBackNewEntry() {
	carol := models.SharingPreference{UserID: "alice", RecipientEmail: "carol@example.com", SharePhone: true}
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{carol})
	remoteErr := errors.New("500 from preferences API")
	s.remote.EXPECT().Save(gomock.Any(), gomock.Any()).Return(models.SharingPreference{}, remoteErr)

	_, err := s.service.SavePreference(s.ctx, bobPref())

	s.ErrorIs(err, remoteErr)
	s.Equal([]models.SharingPreference{carol}, s.cached(), "optimistic entry removed")
	s.Equal([]WriteState{StatePending, StateReverted}, s.states())
	s.ErrorIs(s.transitions[1].Err, remoteErr)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SyncRollbacks.WithLabelValues("save")))
}

func (s *SyncSuite) TestSavePreferenceRollsBackToPriorValue() {
	prior := bobPref()
	prior.ID = "pref-1"
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{prior})
	s.remote.EXPECT().Save(gomock.Any(), gomock.Any()).Return(models.SharingPreference{}, errors.New("boom"))

	changed := bobPref()
	changed.ShareName = false
	changed.SharePhone = true
	_, err := s.service.SavePreference(s.ctx, changed)

	s.Error(err)
	s.Equal([]models.SharingPreference{prior}, s.cached())
}

func (s *SyncSuite) TestSavePreferenceRequiresUser() {
	_, err := s.service.SavePreference(s.ctx, models.SharingPreference{RecipientEmail: "bob@example.com"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Empty(s.states())
}

func (s *SyncSuite) TestDeletePreferenceCommits() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	s.remote.EXPECT().Delete(gomock.Any(), "alice", "bob@example.com").Return(nil)

	err := s.service.DeletePreference(s.ctx, "alice", "BOB@example.com")

	s.Require().NoError(err)
	s.Empty(s.cached())
	s.Equal([]WriteState{StatePending, StateCommitted}, s.states())
}

func (s *SyncSuite) TestDeletePreferenceFailureResyncs() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	remoteErr := dErrors.New(dErrors.CodeUnavailable, "preferences API unreachable")
	serverState := []models.SharingPreference{bobPref(), {UserID: "alice", RecipientEmail: "carol@example.com"}}
	gomock.InOrder(
		s.remote.EXPECT().Delete(gomock.Any(), "alice", "bob@example.com").Return(remoteErr),
		s.remote.EXPECT().List(gomock.Any(), "alice").Return(serverState, nil),
	)

	err := s.service.DeletePreference(s.ctx, "alice", "bob@example.com")

	s.ErrorIs(err, remoteErr)
	s.Equal(serverState, s.cached(), "cache rebuilt from the server")
	s.Equal([]WriteState{StatePending, StateReverted}, s.states())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SyncRollbacks.WithLabelValues("delete")))
}

func (s *SyncSuite) TestDeletePreferenceFailureWithFailedResync() {
	s.cache.Set(s.ctx, "alice", []models.SharingPreference{bobPref()})
	deleteErr := errors.New("delete failed")
	s.remote.EXPECT().Delete(gomock.Any(), "alice", "bob@example.com").Return(deleteErr)
	s.remote.EXPECT().List(gomock.Any(), "alice").Return(nil, errors.New("list failed"))

	err := s.service.DeletePreference(s.ctx, "alice", "bob@example.com")

	s.ErrorIs(err, deleteErr, "the original error wins")
	s.False(s.cache.IsValid(s.ctx, "alice"))
}

func (s *SyncSuite) TestSyncWithServer() {
	s.remote.EXPECT().List(gomock.Any(), "alice").Return([]models.SharingPreference{bobPref()}, nil)

	s.Require().NoError(s.service.SyncWithServer(s.ctx, "alice"))
	s.Len(s.cached(), 1)
}

func (s *SyncSuite) TestQueueOfflineWritePersistsNothing() {
	s.service.QueueOfflineWrite(s.ctx, bobPref())
	s.False(s.cache.IsValid(s.ctx, "alice"))
	s.Empty(s.service.Pending())
}

func TestPendingWriteTransitions(t *testing.T) {
	now := time.Now()

	w := &PendingWrite{ID: "w1", State: StatePending}
	require.NoError(t, w.commit(now))
	assert.Equal(t, StateCommitted, w.State)
	assert.Equal(t, now, w.FinishedAt)

	err := w.revert(errors.New("late failure"), now)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.Equal(t, StateCommitted, w.State, "terminal states are final")

	w = &PendingWrite{ID: "w2", State: StatePending}
	cause := errors.New("remote down")
	require.NoError(t, w.revert(cause, now))
	assert.Equal(t, StateReverted, w.State)
	assert.Equal(t, cause, w.Err)
	assert.ErrorIs(t, w.commit(now), sentinel.ErrInvalidState)
}
