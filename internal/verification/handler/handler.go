package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"trustverify/internal/verification/models"
	"trustverify/internal/verification/service"
	"trustverify/pkg/platform/httputil"
	"trustverify/pkg/requestcontext"
)

// Service defines the aggregator operations the handler needs.
type Service interface {
	CurrentUserVerificationData(ctx context.Context) models.VerificationResult
	CurrentUserTrustScore(ctx context.Context) models.TrustScoreResult
}

// Handler serves the verification read endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new verification Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/verification", h.handleVerification)
	r.Get("/api/verification/default", h.handleDefaultVerification)
	r.Get("/api/trust-score", h.handleTrustScore)
	r.Get("/api/profile/verification", h.handleProfile)
}

// ProfileResponse combines both aggregators for the profile page.
type ProfileResponse struct {
	Verification models.VerificationResult `json:"verification"`
	TrustScore   models.TrustScoreResult   `json:"trustScore"`
}

func (h *Handler) handleVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := h.service.CurrentUserVerificationData(ctx)
	if !result.Success {
		h.logger.InfoContext(ctx, "verification lookup failed",
			"kind", result.Kind,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteJSON(w, statusFor(result), result)
}

func (h *Handler) handleDefaultVerification(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, service.DefaultVerificationData())
}

// handleTrustScore always answers 200; degradation shows up in the source tag.
func (h *Handler) handleTrustScore(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.CurrentUserTrustScore(r.Context()))
}

// handleProfile runs both lookups concurrently. The verification part keeps
// its own success flag so a missing document does not hide the trust score.
// errNotAuthenticated stops the profile fan-out early for an anonymous caller.
var errNotAuthenticated = errors.New("not authenticated")

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp ProfileResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp.Verification = h.service.CurrentUserVerificationData(gctx)
		if resp.Verification.Kind == models.ErrorNotAuthenticated {
			return errNotAuthenticated
		}
		return nil
	})
	g.Go(func() error {
		resp.TrustScore = h.service.CurrentUserTrustScore(gctx)
		return nil
	})

	status := http.StatusOK
	if err := g.Wait(); errors.Is(err, errNotAuthenticated) {
		status = http.StatusUnauthorized
	}
	httputil.WriteJSON(w, status, resp)
}

func statusFor(result models.VerificationResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Kind {
	case models.ErrorNotAuthenticated:
		return http.StatusUnauthorized
	case models.ErrorInvalidIdentifier:
		return http.StatusBadRequest
	case models.ErrorNotFound:
		return http.StatusNotFound
	case models.ErrorInvalidFormat, models.ErrorNetwork:
		return http.StatusBadGateway
	case models.ErrorTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
