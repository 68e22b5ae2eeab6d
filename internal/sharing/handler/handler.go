package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustverify/internal/sharing/models"
	dErrors "trustverify/pkg/domain-errors"
	"trustverify/pkg/platform/httputil"
	"trustverify/pkg/platform/middleware/auth"
	"trustverify/pkg/requestcontext"
)

// Preferences is the cache-aware preference path.
type Preferences interface {
	GetPreferences(ctx context.Context, userID string, forceRefresh bool) ([]models.SharingPreference, error)
	SavePreference(ctx context.Context, pref models.SharingPreference) (models.SharingPreference, error)
	DeletePreference(ctx context.Context, userID, recipientEmail string) error
}

// Sharing performs shares and reads history.
type Sharing interface {
	Share(ctx context.Context, userID string, req models.ShareRequest) (models.SharingHistory, error)
	History(ctx context.Context, userID string) ([]models.SharingHistory, error)
}

// Handler serves the sharing API.
type Handler struct {
	logger      *slog.Logger
	preferences Preferences
	sharing     Sharing
}

func New(preferences Preferences, sharing Sharing, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, preferences: preferences, sharing: sharing}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/sharing", func(r chi.Router) {
		r.Get("/preferences", h.handleListPreferences)
		r.Post("/preferences", h.handleSavePreference)
		r.Delete("/preferences", h.handleDeletePreference)
		r.With(auth.RequireSession(h.logger)).Post("/share", h.handleShare)
		r.Get("/history", h.handleHistory)
	})
}

func (h *Handler) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := resolveUser(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	prefs, err := h.preferences.GetPreferences(ctx, userID, force)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.APIResponse[[]models.SharingPreference]{Success: true, Data: prefs})
}

func (h *Handler) handleSavePreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var pref models.SharingPreference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := resolveUser(ctx, pref.UserID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	pref.UserID = userID

	saved, err := h.preferences.SavePreference(ctx, pref)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.APIResponse[models.SharingPreference]{Success: true, Data: saved})
}

func (h *Handler) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	userID, err := resolveUser(ctx, q.Get("userId"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	recipient := q.Get("recipientEmail")
	if recipient == "" {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "recipientEmail is required"))
		return
	}

	if err := h.preferences.DeletePreference(ctx, userID, recipient); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.APIResponse[any]{Success: true})
}

// handleShare acts for the session user only.
func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	var req models.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	entry, err := h.sharing.Share(ctx, userID, req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.APIResponse[models.SharingHistory]{Success: true, Data: entry})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, err := resolveUser(ctx, r.URL.Query().Get("userId"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	entries, err := h.sharing.History(ctx, userID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.APIResponse[[]models.SharingHistory]{Success: true, Data: entries})
}

// resolveUser picks the user a request acts for. With a session the
// requested id may be omitted but must not name someone else.
func resolveUser(ctx context.Context, requested string) (string, error) {
	sessionUser := requestcontext.UserID(ctx)
	switch {
	case sessionUser == "" && requested == "":
		return "", dErrors.New(dErrors.CodeValidation, "userId is required")
	case sessionUser == "":
		return requested, nil
	case requested == "" || requested == sessionUser:
		return sessionUser, nil
	default:
		return "", dErrors.New(dErrors.CodeForbidden, "userId does not match session")
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "sharing request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	} else {
		h.logger.InfoContext(ctx, "sharing request rejected",
			"code", code,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
