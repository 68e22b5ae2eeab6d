package prefsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"trustverify/internal/platform/tracing"
	"trustverify/internal/sharing/models"
	dErrors "trustverify/pkg/domain-errors"
)

// Remote is the authoritative preferences API.
type Remote interface {
	List(ctx context.Context, userID string) ([]models.SharingPreference, error)
	Save(ctx context.Context, pref models.SharingPreference) (models.SharingPreference, error)
	Delete(ctx context.Context, userID, recipientEmail string) error
}

// DefaultRemoteTimeout bounds each call to the preferences API.
const DefaultRemoteTimeout = 5 * time.Second

const preferencesPath = "/api/sharing/preferences"

// HTTPRemote talks to the preferences API over HTTP using the
// {success, data, error} envelope.
type HTTPRemote struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// HTTPRemoteOption configures an HTTPRemote.
type HTTPRemoteOption func(*HTTPRemote)

func WithRemoteTimeout(d time.Duration) HTTPRemoteOption {
	return func(r *HTTPRemote) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithHTTPClient(client *http.Client) HTTPRemoteOption {
	return func(r *HTTPRemote) {
		if client != nil {
			r.client = client
		}
	}
}

func NewHTTPRemote(baseURL string, opts ...HTTPRemoteOption) *HTTPRemote {
	r := &HTTPRemote{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: DefaultRemoteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *HTTPRemote) List(ctx context.Context, userID string) ([]models.SharingPreference, error) {
	q := url.Values{"userId": {userID}}
	var prefs []models.SharingPreference
	if err := r.do(ctx, http.MethodGet, q, nil, &prefs); err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = []models.SharingPreference{}
	}
	return prefs, nil
}

func (r *HTTPRemote) Save(ctx context.Context, pref models.SharingPreference) (models.SharingPreference, error) {
	var saved models.SharingPreference
	if err := r.do(ctx, http.MethodPost, nil, pref, &saved); err != nil {
		return models.SharingPreference{}, err
	}
	return saved, nil
}

func (r *HTTPRemote) Delete(ctx context.Context, userID, recipientEmail string) error {
	q := url.Values{"userId": {userID}, "recipientEmail": {recipientEmail}}
	return r.do(ctx, http.MethodDelete, q, nil, nil)
}

func (r *HTTPRemote) do(ctx context.Context, method string, query url.Values, body, out any) (err error) {
	ctx, span := tracing.Start(ctx, "sharing.remote",
		attribute.String("http.method", method),
	)
	defer func() { tracing.End(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint := r.baseURL + preferencesPath
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "preferences API timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "preferences API unreachable")
	}
	defer resp.Body.Close()

	var envelope models.APIResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return dErrors.Wrap(err, dErrors.CodeInvalidFormat, "malformed preferences API response")
		}
		envelope = models.APIResponse[json.RawMessage]{}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !envelope.Success {
		message := envelope.Error
		if message == "" {
			message = fmt.Sprintf("preferences API returned %d", resp.StatusCode)
		}
		code := dErrors.CodeFromHTTPStatus(resp.StatusCode)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			code = dErrors.CodeInternal
		}
		return dErrors.New(code, message)
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidFormat, "malformed preferences API data")
		}
	}
	return nil
}
