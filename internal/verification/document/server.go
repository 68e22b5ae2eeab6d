package document

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"trustverify/pkg/requestcontext"
)

// Server exposes a directory of documents as /data/<identifier>.json, the
// layout HTTPFetcher expects.
type Server struct {
	dir    string
	logger *slog.Logger
}

func NewServer(dir string, logger *slog.Logger) *Server {
	return &Server{dir: dir, logger: logger}
}

// Register mounts the document routes.
func (s *Server) Register(r chi.Router) {
	r.Get("/data/{file}", s.handleDocument)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), ".json")
	if !ok {
		http.NotFound(w, r)
		return
	}
	identifier, err := SanitizeIdentifier(name)
	if err != nil || identifier != name {
		s.logger.WarnContext(ctx, "rejected document path",
			"file", name,
			"request_id", requestcontext.RequestID(ctx),
		)
		http.NotFound(w, r)
		return
	}

	body, err := os.ReadFile(filepath.Join(s.dir, identifier+".json"))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.ErrorContext(ctx, "failed to read document",
				"identifier", identifier,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}
