package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"trustverify/internal/platform/tracing"
)

// Fetcher loads the document for an already sanitized identifier.
type Fetcher interface {
	Fetch(ctx context.Context, identifier string) (Document, error)
}

// maxDocumentBytes caps how much of a response body is read.
const maxDocumentBytes = 1 << 20

// HTTPFetcher reads documents from <baseURL>/data/<identifier>.json.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher builds a fetcher for a document store rooted at baseURL.
// Deadlines come from the caller's context.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPFetcher{baseURL: baseURL, client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, identifier string) (doc Document, err error) {
	ctx, span := tracing.Start(ctx, "document.fetch",
		attribute.String("document.identifier", identifier),
		attribute.String("document.transport", "http"),
	)
	defer func() { tracing.End(span, err) }()

	endpoint := f.baseURL + "/data/" + url.PathEscape(identifier) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindUnknown, Identifier: identifier, Underlying: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, identifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &FetchError{Kind: KindNotFound, Identifier: identifier}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Kind: KindUnknown, Identifier: identifier,
			Underlying: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, classifyTransport(ctx, identifier, err)
	}
	return decodeFor(identifier, body)
}

// DirFetcher reads documents straight from a directory laid out like the
// document store (<dir>/<identifier>.json).
type DirFetcher struct {
	dir string
}

func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{dir: dir}
}

func (f *DirFetcher) Fetch(ctx context.Context, identifier string) (doc Document, err error) {
	ctx, span := tracing.Start(ctx, "document.fetch",
		attribute.String("document.identifier", identifier),
		attribute.String("document.transport", "dir"),
	)
	defer func() { tracing.End(span, err) }()

	if err := ctx.Err(); err != nil {
		return nil, classifyTransport(ctx, identifier, err)
	}
	body, err := os.ReadFile(filepath.Join(f.dir, identifier+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{Kind: KindNotFound, Identifier: identifier}
		}
		return nil, &FetchError{Kind: KindUnknown, Identifier: identifier, Underlying: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, classifyTransport(ctx, identifier, err)
	}
	return decodeFor(identifier, body)
}

func decodeFor(identifier string, body []byte) (Document, error) {
	doc, err := Decode(body)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidFormat, Identifier: identifier, Underlying: err}
	}
	return doc, nil
}

// classifyTransport separates deadline expiry and caller cancellation from
// other transport failures.
func classifyTransport(ctx context.Context, identifier string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &FetchError{Kind: KindTimeout, Identifier: identifier, Underlying: err}
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return &FetchError{Kind: KindTimeout, Identifier: identifier, Underlying: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return &FetchError{Kind: KindUnknown, Identifier: identifier, Underlying: err}
	}
	return &FetchError{Kind: KindNetwork, Identifier: identifier, Underlying: err}
}

// DefaultSharedTimeout bounds one collapsed upstream fetch.
const DefaultSharedTimeout = 5 * time.Second

// SharedFetcher collapses concurrent fetches of the same identifier into one
// upstream request. The upstream call runs detached from any single caller,
// so one caller giving up does not fail the others. Each caller still stops
// waiting when its own context ends. The shared Document must be treated as
// read-only.
type SharedFetcher struct {
	next    Fetcher
	timeout time.Duration
	group   singleflight.Group
}

type SharedOption func(*SharedFetcher)

// WithSharedTimeout overrides DefaultSharedTimeout. Non-positive values are ignored.
func WithSharedTimeout(d time.Duration) SharedOption {
	return func(f *SharedFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func NewSharedFetcher(next Fetcher, opts ...SharedOption) *SharedFetcher {
	f := &SharedFetcher{next: next, timeout: DefaultSharedTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *SharedFetcher) Fetch(ctx context.Context, identifier string) (Document, error) {
	ch := f.group.DoChan(identifier, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()
		return f.next.Fetch(shared, identifier)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Document), nil
	case <-ctx.Done():
		return nil, classifyTransport(ctx, identifier, ctx.Err())
	}
}
