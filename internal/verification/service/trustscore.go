package service

import (
	"context"
	"fmt"

	"trustverify/internal/verification/document"
	"trustverify/internal/verification/models"
	"trustverify/internal/verification/pipeline"
	"trustverify/pkg/requestcontext"
)

var fallbackTrustScore = map[string]string{
	"name":         "not_verified",
	"photo":        "not_verified",
	"phone_number": "not_verified",
}

// tier is one document-backed step of the trust-score chain. Tiers are tried
// in order until one has a trustscore section.
type tier struct {
	source     models.Source
	identifier string
}

// FetchTrustScore walks user document, default document, hardcoded fallback,
// and reports which tier answered. It always succeeds.
func (s *Service) FetchTrustScore(ctx context.Context, identifier string) (result models.TrustScoreResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "trust score lookup panicked",
				"panic", fmt.Sprint(r),
				"request_id", requestcontext.RequestID(ctx),
			)
			result = FallbackTrustScoreData()
		}
		s.metrics.IncrementTrustScoreSource(string(result.Source))
	}()

	chain := make([]tier, 0, 2)
	if id, err := document.SanitizeIdentifier(identifier); err == nil {
		chain = append(chain, tier{source: models.SourceUser, identifier: id})
	} else {
		s.logger.WarnContext(ctx, "skipping user trust score tier",
			"reason", "invalid identifier",
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	chain = append(chain, tier{source: models.SourceDefault, identifier: document.DefaultIdentifier})

	return s.resolve(ctx, chain)
}

// CurrentUserTrustScore resolves the identifier from the session in ctx. An
// anonymous caller gets the hardcoded fallback.
func (s *Service) CurrentUserTrustScore(ctx context.Context) models.TrustScoreResult {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		result := FallbackTrustScoreData()
		s.metrics.IncrementTrustScoreSource(string(result.Source))
		return result
	}
	return s.FetchTrustScore(ctx, userID)
}

func (s *Service) resolve(ctx context.Context, chain []tier) models.TrustScoreResult {
	for _, t := range chain {
		entries, ok, err := s.lookupSection(ctx, t.identifier)
		if err != nil {
			if document.KindOf(err) == document.KindInvalidFormat {
				s.logger.WarnContext(ctx, "malformed trust score document, using fallback",
					"tier", t.source,
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				return FallbackTrustScoreData()
			}
			s.logger.WarnContext(ctx, "trust score tier failed, trying next tier",
				"tier", t.source,
				"kind", document.KindOf(err),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			continue
		}
		if ok {
			return trustScoreResult(entries, t.source)
		}
	}
	return FallbackTrustScoreData()
}

// lookupSection treats a missing document or a missing trustscore object as
// a miss. Anything else is returned as an error.
func (s *Service) lookupSection(ctx context.Context, identifier string) (map[string]string, bool, error) {
	doc, err := s.fetch(ctx, identifier)
	if err != nil {
		if document.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	section, ok := doc.Section(document.TrustScoreSection)
	return section, ok, nil
}

func trustScoreResult(entries map[string]string, source models.Source) models.TrustScoreResult {
	items := pipeline.Run(pipeline.TrustScore, entries)
	return models.TrustScoreResult{
		Success:      true,
		Data:         items,
		OverallScore: pipeline.OverallScore(items),
		Source:       source,
	}
}

// FallbackTrustScoreData is the hardcoded last tier: NAME, PHOTO and PHONE
// NUMBER, all unverified, overall score 0.
func FallbackTrustScoreData() models.TrustScoreResult {
	return trustScoreResult(fallbackTrustScore, models.SourceFallback)
}
