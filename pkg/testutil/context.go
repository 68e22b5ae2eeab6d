package testutil

import (
	"net/http"
)

// WithBearer attaches a session token the way API clients send it.
func WithBearer(req *http.Request, token string) *http.Request {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
