// Package service is the authoritative side of sharing: preference
// persistence and share delivery with an append-only history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/models"
	"trustverify/internal/sharing/store"
	dErrors "trustverify/pkg/domain-errors"
	"trustverify/pkg/email"
	"trustverify/pkg/phone"
	"trustverify/pkg/requestcontext"
)

type Store interface {
	UpsertPreference(ctx context.Context, pref models.SharingPreference, now time.Time) (models.SharingPreference, error)
	ListActive(ctx context.Context, userID string) ([]models.SharingPreference, error)
	FindActive(ctx context.Context, userID, recipientEmail string) (models.SharingPreference, error)
	Deactivate(ctx context.Context, userID, recipientEmail string, now time.Time) error
	AppendHistory(ctx context.Context, entry models.SharingHistory) error
	ListHistory(ctx context.Context, userID string) ([]models.SharingHistory, error)
}

// Publisher delivers a history entry downstream. A publish error means the
// share did not go out.
type Publisher interface {
	Publish(ctx context.Context, entry models.SharingHistory) error
}

// Service validates and persists preferences and performs shares.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
	region    string
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

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPhoneRegion sets the region assumed for shared phone numbers written
// without a country code.
func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.region = region
		}
	}
}

// New constructs a Service.
func New(st Store, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: publisher,
		logger:    slog.Default(),
		region:    phone.DefaultRegion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the user's active preferences.
func (s *Service) List(ctx context.Context, userID string) ([]models.SharingPreference, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	prefs, err := s.store.ListActive(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sharing preferences")
	}
	return prefs, nil
}

// Save upserts pref on (userId, recipientEmail) and returns the stored record.
// Saving a soft-deleted preference reactivates it.
func (s *Service) Save(ctx context.Context, pref models.SharingPreference) (models.SharingPreference, error) {
	if strings.TrimSpace(pref.UserID) == "" {
		return models.SharingPreference{}, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	if !email.IsValid(pref.RecipientEmail) {
		return models.SharingPreference{}, dErrors.New(dErrors.CodeValidation, "recipientEmail must be a valid email address")
	}
	pref.RecipientEmail = email.Normalize(pref.RecipientEmail)

	saved, err := s.store.UpsertPreference(ctx, pref, s.now(ctx))
	if err != nil {
		return models.SharingPreference{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save sharing preference")
	}
	s.logger.InfoContext(ctx, "sharing preference saved",
		"user_id", saved.UserID,
		"preference_id", saved.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return saved, nil
}

// Delete soft-deletes the preference for recipientEmail.
func (s *Service) Delete(ctx context.Context, userID, recipientEmail string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(recipientEmail) == "" {
		return dErrors.New(dErrors.CodeValidation, "userId and recipientEmail are required")
	}
	if err := s.store.Deactivate(ctx, userID, email.Normalize(recipientEmail), s.now(ctx)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "sharing preference not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete sharing preference")
	}
	return nil
}

// Share sends the fields the recipient's preference allows. A pending entry
// is recorded first, then a terminal sent or failed entry. Fields the
// preference does not allow are dropped silently.
func (s *Service) Share(ctx context.Context, userID string, req models.ShareRequest) (models.SharingHistory, error) {
	if userID == "" {
		return models.SharingHistory{}, dErrors.New(dErrors.CodeUnauthorized, "User not authenticated")
	}
	if !email.IsValid(req.RecipientEmail) {
		return models.SharingHistory{}, dErrors.New(dErrors.CodeValidation, "recipientEmail must be a valid email address")
	}
	recipient := email.Normalize(req.RecipientEmail)

	pref, err := s.store.FindActive(ctx, userID, recipient)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.SharingHistory{}, dErrors.New(dErrors.CodeForbidden, "no active sharing preference for recipient")
		}
		return models.SharingHistory{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sharing preference")
	}

	data, err := s.permitted(pref, req)
	if err != nil {
		return models.SharingHistory{}, err
	}
	if data == (models.SharedData{}) {
		return models.SharingHistory{}, dErrors.New(dErrors.CodeValidation, "nothing to share with this recipient")
	}

	pending := s.newEntry(ctx, userID, recipient, data, models.HistoryPending)
	if err := s.store.AppendHistory(ctx, pending); err != nil {
		return models.SharingHistory{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record share")
	}

	status := models.HistorySent
	publishErr := s.publisher.Publish(ctx, pending)
	if publishErr != nil {
		status = models.HistoryFailed
		s.logger.ErrorContext(ctx, "share delivery failed",
			"user_id", userID,
			"history_id", pending.ID,
			"error", publishErr,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	final := s.newEntry(ctx, userID, recipient, data, status)
	if err := s.store.AppendHistory(ctx, final); err != nil {
		return models.SharingHistory{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record share")
	}
	s.metrics.IncrementShare(string(status))

	if publishErr != nil {
		return final, dErrors.Wrap(publishErr, dErrors.CodeUnavailable, "failed to deliver share")
	}
	return final, nil
}

// History lists the user's share attempts newest first.
func (s *Service) History(ctx context.Context, userID string) ([]models.SharingHistory, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "userId is required")
	}
	entries, err := s.store.ListHistory(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sharing history")
	}
	return entries, nil
}

// now prefers an injected clock, then the request's pinned time.
func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) newEntry(ctx context.Context, userID, recipient string, data models.SharedData, status models.HistoryStatus) models.SharingHistory {
	return models.SharingHistory{
		ID:             uuid.NewString(),
		UserID:         userID,
		RecipientEmail: recipient,
		SharedData:     data,
		Status:         status,
		SharedAt:       s.now(ctx),
	}
}

// permitted keeps the fields pref allows. A shared phone goes out in E.164.
func (s *Service) permitted(pref models.SharingPreference, req models.ShareRequest) (models.SharedData, error) {
	var data models.SharedData
	if pref.ShareName {
		data.Name = strings.TrimSpace(req.Name)
	}
	if pref.SharePhone && strings.TrimSpace(req.Phone) != "" {
		formatted, err := phone.Normalize(req.Phone, s.region)
		if err != nil {
			return models.SharedData{}, err
		}
		data.Phone = formatted
	}
	return data, nil
}
