package service

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
	"github.com/stretchr/testify/suite"

	"trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/models"
	"trustverify/internal/sharing/store"
	dErrors "trustverify/pkg/domain-errors"
)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []models.SharingHistory
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, entry models.SharingHistory) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return p.err
}

type brokenStore struct {
	*store.InMemoryStore
}

func (brokenStore) ListActive(context.Context, string) ([]models.SharingPreference, error) {
	return nil, errors.New("connection reset")
}

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	store     *store.InMemoryStore
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = store.NewInMemoryStore()
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.publisher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *ServiceSuite) TestSaveValidatesAndNormalizes() {
	s.Run("missing user", func() {
		_, err := s.service.Save(s.ctx, models.SharingPreference{RecipientEmail: "bob@example.com"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("bad email", func() {
		_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "not-an-email"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("lower-cases recipient", func() {
		saved, err := s.service.Save(s.ctx, models.SharingPreference{
			UserID: "alice", RecipientEmail: "Bob@Example.COM", ShareName: true,
		})
		s.Require().NoError(err)
		s.Equal("bob@example.com", saved.RecipientEmail)
		s.NotEmpty(saved.ID)
		s.True(saved.Active())
		s.Require().NotNil(saved.CreatedAt)
		s.Equal(s.now, *saved.CreatedAt)
	})
}

func (s *ServiceSuite) TestSaveUpsertsOnRecipient() {
	first, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", ShareName: true})
	s.Require().NoError(err)
	second, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "BOB@example.com", SharePhone: true})
	s.Require().NoError(err)

	s.Equal(first.ID, second.ID)
	s.False(second.ShareName)
	s.True(second.SharePhone)

	prefs, err := s.service.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(prefs, 1)
}

func (s *ServiceSuite) TestDeleteSoftDeletesAndReactivates() {
	saved, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", ShareName: true})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, "alice", "Bob@example.com"))
	prefs, err := s.service.List(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(prefs)

	err = s.service.Delete(s.ctx, "alice", "bob@example.com")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))

	again, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com"})
	s.Require().NoError(err)
	s.Equal(saved.ID, again.ID)
	s.True(again.Active())
}

func (s *ServiceSuite) TestListWrapsStoreFailure() {
	svc := New(brokenStore{s.store}, s.publisher)
	_, err := svc.List(s.ctx, "alice")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal("failed to load sharing preferences", dErrors.MessageOf(err))
}

func (s *ServiceSuite) TestShareDropsFieldsNotPermitted() {
	_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", ShareName: true})
	s.Require().NoError(err)

	entry, err := s.service.Share(s.ctx, "alice", models.ShareRequest{
		RecipientEmail: "bob@example.com", Name: "Alice A", Phone: "+15550100",
	})
	s.Require().NoError(err)
	s.Equal(models.HistorySent, entry.Status)
	s.Equal(models.SharedData{Name: "Alice A"}, entry.SharedData)

	s.Require().Len(s.publisher.entries, 1)
	s.Equal(models.HistoryPending, s.publisher.entries[0].Status)
	s.Empty(s.publisher.entries[0].SharedData.Phone)

	history, err := s.service.History(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(models.HistorySent, history[0].Status)
	s.Equal(models.HistoryPending, history[1].Status)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SharesTotal.WithLabelValues("sent")))
}

func (s *ServiceSuite) TestShareRecordsFailedDelivery() {
	_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", SharePhone: true})
	s.Require().NoError(err)
	s.publisher.err = errors.New("broker down")

	entry, err := s.service.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "bob@example.com", Phone: "+1 650-253-0000"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(models.HistoryFailed, entry.Status)
	s.Equal("+16502530000", entry.SharedData.Phone)

	history, err := s.service.History(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(models.HistoryFailed, history[0].Status)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SharesTotal.WithLabelValues("failed")))
}

func (s *ServiceSuite) TestShareRejections() {
	s.Run("anonymous", func() {
		_, err := s.service.Share(s.ctx, "", models.ShareRequest{RecipientEmail: "bob@example.com", Name: "A"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
	s.Run("no preference", func() {
		_, err := s.service.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "carol@example.com", Name: "A"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
	s.Run("revoked preference", func() {
		_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "dave@example.com", ShareName: true})
		s.Require().NoError(err)
		s.Require().NoError(s.service.Delete(s.ctx, "alice", "dave@example.com"))
		_, err = s.service.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "dave@example.com", Name: "A"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
	s.Run("invalid phone", func() {
		_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "frank@example.com", SharePhone: true})
		s.Require().NoError(err)
		_, err = s.service.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "frank@example.com", Phone: "12"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Run("nothing permitted", func() {
		_, err := s.service.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "erin@example.com", ShareName: true})
		s.Require().NoError(err)
		_, err = s.service.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "erin@example.com", Phone: "+15550100"})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
	s.Empty(s.publisher.entries)
}

func (s *ServiceSuite) TestSharePhoneUsesRegion() {
	svc := New(s.store, s.publisher,
		WithClock(func() time.Time { return s.now }),
		WithPhoneRegion("US"),
	)
	_, err := svc.Save(s.ctx, models.SharingPreference{UserID: "alice", RecipientEmail: "bob@example.com", SharePhone: true})
	s.Require().NoError(err)

	entry, err := svc.Share(s.ctx, "alice", models.ShareRequest{RecipientEmail: "bob@example.com", Phone: "(650) 253-0000"})
	s.Require().NoError(err)
	s.Equal("+16502530000", entry.SharedData.Phone)
}
