// Package server exposes stored datasets over HTTP using the table's remote
// row protocol.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/olekukonko/ll"

	"github.com/mesh-intelligence/tablekit/internal/logging"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Backend is the storage the server reads from.
type Backend interface {
	Datasets() ([]types.Dataset, error)
	Schema(name string) ([]types.ColumnSpec, error)
	Page(ctx context.Context, name string, q types.Query) ([]types.Row, error)
	Count(ctx context.Context, name string, q types.Query) (int, error)
}

// HeaderTotalCount carries the number of rows matching the range filter.
const HeaderTotalCount = "X-Total-Count"

type server struct {
	backend Backend
	logger  *ll.Logger
}

// Handler returns the HTTP handler:
//
//	GET /api/datasets                 dataset names and schemas
//	GET /api/datasets/{name}/schema   column specs
//	GET /api/datasets/{name}/rows     ?sort=&order=&start=&end=&from=&to=
//
// Server errors and one line per request go to logger; nil disables both.
func Handler(backend Backend, logger *ll.Logger) http.Handler {
	if logger == nil {
		logger = logging.Discard("server")
	}
	s := &server{backend: backend, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/datasets", s.handleDatasets)
	mux.HandleFunc("GET /api/datasets/{name}/schema", s.handleSchema)
	mux.HandleFunc("GET /api/datasets/{name}/rows", s.handleRows)
	return s.logRequests(mux)
}

func (s *server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.backend.Datasets()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, datasets)
}

func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	cols, err := s.backend.Schema(r.PathValue("name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cols)
}

func (s *server) handleRows(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	q, err := types.ParseQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	rows, err := s.backend.Page(r.Context(), name, q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if total, err := s.backend.Count(r.Context(), name, q); err == nil {
		w.Header().Set(HeaderTotalCount, strconv.Itoa(total))
	}
	s.writeJSON(w, http.StatusOK, rows)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps store and query errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrDatasetMissing):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidWindow),
		errors.Is(err, types.ErrInvalidDirection),
		errors.Is(err, types.ErrUnknownColumn),
		errors.Is(err, types.ErrNotSortable),
		errors.Is(err, types.ErrInvalidDataset):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Errorf("request failed: %v", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warnf("writing response: %v", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Infof("%s %s?%s %d %s", r.Method, r.URL.Path, r.URL.RawQuery, rec.status, time.Since(start))
	})
}

// Serve listens on addr and serves handler until ctx is cancelled, then
// shuts down gracefully. ready, when non-nil, receives the bound address.
func Serve(ctx context.Context, addr string, handler http.Handler, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready <- ln.Addr()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
