// Package service hosts the two read-path aggregators. Verification surfaces
// every failure to the caller; trust score always answers, degrading through
// its fallback tiers instead.
package service

import (
	"context"
	"log/slog"
	"time"

	"trustverify/internal/verification/document"
	"trustverify/internal/verification/metrics"
)

// DefaultFetchTimeout bounds a single document fetch.
const DefaultFetchTimeout = 5 * time.Second

// Service aggregates verification and trust-score documents.
type Service struct {
	fetcher document.Fetcher
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
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

// WithFetchTimeout overrides the per-fetch deadline. Non-positive values are ignored.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(fetcher document.Fetcher, opts ...Option) *Service {
	s := &Service{
		fetcher: fetcher,
		timeout: DefaultFetchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) fetch(ctx context.Context, identifier string) (document.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, identifier)
	outcome := "ok"
	if err != nil {
		outcome = string(document.KindOf(err))
	}
	s.metrics.ObserveFetch(outcome, start)
	return doc, err
}
