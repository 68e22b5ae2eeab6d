package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"trustverify/internal/session"
	dErrors "trustverify/pkg/domain-errors"
	"trustverify/pkg/platform/httputil"
	"trustverify/pkg/requestcontext"
)

// SessionValidator validates a session token.
type SessionValidator interface {
	Validate(token string) (*session.Claims, error)
}

// tokenFromRequest prefers the session cookie, then a bearer header.
func tokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// LoadSession attaches the session user to the context when a valid token is
// present. Requests without a session pass through untouched; routes decide
// for themselves what an anonymous caller gets.
func LoadSession(validator SessionValidator, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "ignoring invalid session",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithSessionID(ctx, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that LoadSession did not authenticate.
func RequireSession(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.UserID(ctx) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing session",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "User not authenticated"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
