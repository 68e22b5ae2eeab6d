package service

import (
	"context"
	"fmt"

	"trustverify/internal/verification/document"
	"trustverify/internal/verification/models"
	"trustverify/internal/verification/pipeline"
	"trustverify/pkg/requestcontext"
)

// defaultDocuments is the all-unverified dataset callers may show when a
// lookup fails for a non-fatal reason.
var defaultDocuments = map[string]string{
	"aadhaar_card": "not_verified",
	"pan_card":     "not_verified",
	"passport":     "not_verified",
}

// FetchVerificationData loads and normalizes the verification document for
// identifier. Failures come back as an unsuccessful result, never as a panic.
func (s *Service) FetchVerificationData(ctx context.Context, identifier string) (result models.VerificationResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "verification lookup panicked",
				"panic", fmt.Sprint(r),
				"request_id", requestcontext.RequestID(ctx),
			)
			result = models.VerificationFailure(models.ErrorUnknown)
		}
		kind := "ok"
		if !result.Success {
			kind = string(result.Kind)
		}
		s.metrics.IncrementVerificationOutcome(kind)
	}()

	id, err := document.SanitizeIdentifier(identifier)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected verification identifier",
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.VerificationFailure(models.ErrorInvalidIdentifier)
	}

	doc, err := s.fetch(ctx, id)
	if err != nil {
		kind := document.KindOf(err)
		s.logger.WarnContext(ctx, "verification document unavailable",
			"identifier", id,
			"kind", kind,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return models.VerificationFailure(kind)
	}
	return models.VerificationSuccess(pipeline.Run(pipeline.Verification, doc.StringEntries()))
}

// CurrentUserVerificationData resolves the identifier from the session in ctx.
func (s *Service) CurrentUserVerificationData(ctx context.Context) models.VerificationResult {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		s.metrics.IncrementVerificationOutcome(string(models.ErrorNotAuthenticated))
		return models.VerificationFailure(models.ErrorNotAuthenticated)
	}
	return s.FetchVerificationData(ctx, userID)
}

// DefaultVerificationData returns AADHAAR CARD, PAN CARD and PASSPORT, all NOT
// VERIFIED. The aggregator never substitutes it on its own.
func DefaultVerificationData() models.VerificationResult {
	return models.VerificationSuccess(pipeline.Run(pipeline.Verification, defaultDocuments))
}
