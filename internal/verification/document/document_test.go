package document

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestSanitizeIdentifier(t *testing.T) {
	t.Run("keeps allowed characters", func(t *testing.T) {
		id, err := SanitizeIdentifier("user_42-A")
		require.NoError(t, err)
		assert.Equal(t, "user_42-A", id)
	})

	t.Run("strips disallowed characters", func(t *testing.T) {
		id, err := SanitizeIdentifier("al ice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "aliceexamplecom", id)
	})

	t.Run("separators are stripped", func(t *testing.T) {
		id, err := SanitizeIdentifier("user/42")
		require.NoError(t, err)
		assert.Equal(t, "user42", id)

		id, err = SanitizeIdentifier(`team\ops`)
		require.NoError(t, err)
		assert.Equal(t, "teamops", id)
	})

	t.Run("dots inside a name are dropped", func(t *testing.T) {
		id, err := SanitizeIdentifier("john.doe")
		require.NoError(t, err)
		assert.Equal(t, "johndoe", id)
	})

	for _, raw := range []string{
		"", "   ", ".", "..", ".hidden", "../../../etc/passwd", "a..b", "@@@",
		strings.Repeat("a", MaxIdentifierLength+1),
	} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, err := SanitizeIdentifier(raw)
			require.Error(t, err)
			assert.Equal(t, KindInvalidIdentifier, KindOf(err))
		})
	}

	t.Run("accepts exactly the maximum length", func(t *testing.T) {
		_, err := SanitizeIdentifier(strings.Repeat("a", MaxIdentifierLength))
		assert.NoError(t, err)
	})
}

func TestDecode(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		doc, err := Decode([]byte(`{"pan_card":"verified","score":3,"nested":{"a":"b"},"trustscore":{"name":"verified","photo":1}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"pan_card": "verified"}, doc.StringEntries())

		section, ok := doc.Section(TrustScoreSection)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"name": "verified"}, section)
	})

	t.Run("missing or non-object section", func(t *testing.T) {
		doc, err := Decode([]byte(`{"trustscore":"verified"}`))
		require.NoError(t, err)
		_, ok := doc.Section(TrustScoreSection)
		assert.False(t, ok)
		_, ok = doc.Section("absent")
		assert.False(t, ok)
	})

	for _, body := range []string{`[]`, `"text"`, `42`, `null`, `{bad json`, ``} {
		t.Run("rejects "+body, func(t *testing.T) {
			_, err := Decode([]byte(body))
			assert.Error(t, err)
		})
	}
}

type HTTPFetcherSuite struct {
	suite.Suite
	server  *httptest.Server
	fetcher *HTTPFetcher
	mu      sync.Mutex
	handler http.HandlerFunc
}

func TestHTTPFetcherSuite(t *testing.T) {
	suite.Run(t, new(HTTPFetcherSuite))
}

func (s *HTTPFetcherSuite) SetupTest() {
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		h(w, r)
	}))
	s.fetcher = NewHTTPFetcher(s.server.URL, s.server.Client())
}

func (s *HTTPFetcherSuite) TearDownTest() {
	s.server.Close()
}

func (s *HTTPFetcherSuite) serve(h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

func (s *HTTPFetcherSuite) TestFetchesByPathConvention() {
	var path string
	s.serve(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"pan_card":"verified"}`))
	})

	doc, err := s.fetcher.Fetch(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal("/data/alice.json", path)
	s.Equal(map[string]string{"pan_card": "verified"}, doc.StringEntries())
}

func (s *HTTPFetcherSuite) TestNotFound() {
	s.serve(func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	_, err := s.fetcher.Fetch(context.Background(), "alice")
	s.Equal(KindNotFound, KindOf(err))
	s.True(IsNotFound(err))
}

func (s *HTTPFetcherSuite) TestServerError() {
	s.serve(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	_, err := s.fetcher.Fetch(context.Background(), "alice")
	s.Equal(KindUnknown, KindOf(err))
}

func (s *HTTPFetcherSuite) TestInvalidFormat() {
	s.serve(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`["not","an","object"]`)) })
	_, err := s.fetcher.Fetch(context.Background(), "alice")
	s.Equal(KindInvalidFormat, KindOf(err))
}

func (s *HTTPFetcherSuite) TestTimeout() {
	release := make(chan struct{})
	defer close(release)
	s.serve(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.fetcher.Fetch(ctx, "alice")
	s.Equal(KindTimeout, KindOf(err))
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPFetcher(url, nil).Fetch(context.Background(), "alice")
	require.Error(t, err)
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), []byte(`{"passport":"approved"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o600))
	fetcher := NewDirFetcher(dir)

	doc, err := fetcher.Fetch(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"passport": "approved"}, doc.StringEntries())

	_, err = fetcher.Fetch(context.Background(), "bob")
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = fetcher.Fetch(context.Background(), "broken")
	assert.Equal(t, KindInvalidFormat, KindOf(err))

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	_, err = fetcher.Fetch(ctx, "alice")
	assert.Equal(t, KindTimeout, KindOf(err))
}

type countingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
}

func (f *countingFetcher) Fetch(ctx context.Context, identifier string) (Document, error) {
	f.calls.Add(1)
	<-f.release
	return Document{"name": "verified"}, nil
}

func TestSharedFetcherCollapsesConcurrentCalls(t *testing.T) {
	inner := &countingFetcher{release: make(chan struct{})}
	shared := NewSharedFetcher(inner)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := shared.Fetch(context.Background(), "alice")
			assert.NoError(t, err)
			assert.Equal(t, "verified", doc["name"])
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	assert.LessOrEqual(t, inner.calls.Load(), int32(5))
	assert.GreaterOrEqual(t, inner.calls.Load(), int32(1))
}

// gatedFetcher blocks until released or until its own context ends.
type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	ctxErr  atomic.Value
}

func (f *gatedFetcher) Fetch(ctx context.Context, identifier string) (Document, error) {
	close(f.started)
	select {
	case <-f.release:
		return Document{"name": "verified"}, nil
	case <-ctx.Done():
		f.ctxErr.Store(ctx.Err())
		return nil, classifyTransport(ctx, identifier, ctx.Err())
	}
}

func TestSharedFetcherCallerCancellation(t *testing.T) {
	inner := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	shared := NewSharedFetcher(inner)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := shared.Fetch(ctxA, "u1")
		errA <- err
	}()
	<-inner.started

	type result struct {
		doc Document
		err error
	}
	resB := make(chan result, 1)
	go func() {
		doc, err := shared.Fetch(context.Background(), "u1")
		resB <- result{doc, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	err := <-errA
	require.Error(t, err)
	assert.Equal(t, KindUnknown, KindOf(err), "cancellation is not a network error")

	close(inner.release)
	b := <-resB
	require.NoError(t, b.err, "other callers are unaffected")
	assert.Equal(t, "verified", b.doc["name"])
	assert.Nil(t, inner.ctxErr.Load(), "upstream call was not cancelled")
}

func TestSharedFetcherCallerDeadline(t *testing.T) {
	inner := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	defer close(inner.release)
	shared := NewSharedFetcher(inner)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := shared.Fetch(ctx, "u1")

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestSharedFetcherOwnTimeout(t *testing.T) {
	inner := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	shared := NewSharedFetcher(inner, WithSharedTimeout(20*time.Millisecond))

	_, err := shared.Fetch(context.Background(), "u1")

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.json"), []byte(`{"pan_card":"verified"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.json"), []byte(`{"trustscore":{}}`), 0o600))

	r := chi.NewRouter()
	NewServer(dir, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	rr := get("/data/alice.json")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"pan_card":"verified"}`, rr.Body.String())

	assert.Equal(t, http.StatusOK, get("/data/default.json").Code)
	assert.Equal(t, http.StatusNotFound, get("/data/bob.json").Code)
	assert.Equal(t, http.StatusNotFound, get("/data/alice.txt").Code)
	assert.Equal(t, http.StatusNotFound, get("/data/..%2Falice.json").Code)

	t.Run("served documents round-trip through HTTPFetcher", func(t *testing.T) {
		srv := httptest.NewServer(r)
		defer srv.Close()
		doc, err := NewHTTPFetcher(srv.URL, srv.Client()).Fetch(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "verified", doc["pan_card"])
	})
}
