// Package server exposes the workload views over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/source"
	"github.com/harrisonrobin/workload/pkg/store"
	"github.com/harrisonrobin/workload/pkg/toggle"
	"github.com/harrisonrobin/workload/pkg/workload"
)

// SourceFunc returns the source holding userID's records.
type SourceFunc func(ctx context.Context, userID int) (source.Source, error)

// Fixed serves every user from src.
func Fixed(src source.Source) SourceFunc {
	return func(context.Context, int) (source.Source, error) {
		return src, nil
	}
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	FetchTimeout   time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	engine  *workload.Engine
	sources SourceFunc
	opts    Options
}

func New(engine *workload.Engine, sources SourceFunc, opts Options) *Server {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = source.DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{engine: engine, sources: sources, opts: opts}
}

// Handler returns the routed, authenticated and CORS wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	auth := NewMiddleware([]byte(s.opts.JWTSecret))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/workload", auth.Wrap(s.method(http.MethodGet, s.getWorkload)))
	mux.HandleFunc("/freetime", auth.Wrap(s.method(http.MethodGet, s.getFreeTime)))
	mux.HandleFunc("/toggle", auth.Wrap(s.method(http.MethodPost, s.postToggle)))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !wildcard(s.opts.AllowedOrigins),
	})
	return c.Handler(mux)
}

// wildcard reports whether origins admits any origin. Credentialed requests
// are only allowed for an explicit origin list.
func wildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server is running on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) method(m string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case m:
			next(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		}
	}
}

// compute fetches a fresh snapshot for the request's user and runs one pass.
func (s *Server) compute(ctx context.Context) (source.Source, workload.View, error) {
	uid, _ := UserIDFromContext(ctx)
	src, err := s.sources(ctx, uid)
	if err != nil {
		return nil, workload.View{}, err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()
	snap, err := src.Fetch(fetchCtx)
	if err != nil {
		return nil, workload.View{}, fmt.Errorf("fetch: %w", err)
	}
	v, err := s.engine.Run(snap, s.opts.Now())
	return src, v, err
}

func (s *Server) getWorkload(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.compute(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) getFreeTime(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.compute(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v.FreeTime)
}

// ToggleRequest is the body of POST /toggle.
type ToggleRequest struct {
	Kind      model.SourceKind `json:"kind"`
	ID        string           `json:"id"`
	Completed bool             `json:"completed"`
}

// postToggle applies the change and answers with a view recomputed from a
// fresh snapshot.
func (s *Server) postToggle(w http.ResponseWriter, r *http.Request) {
	var body ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	kind, ok := model.ParseSourceKind(string(body.Kind))
	if !ok || body.ID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", toggle.ErrUnknownKind, body.Kind))
		return
	}

	src, v, err := s.compute(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	item, ok := v.Find(kind, body.ID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s %q", toggle.ErrNotFound, kind, body.ID))
		return
	}
	u := toggle.New(s.opts.Now()).Toggle(item, body.Completed)
	if err := src.Apply(r.Context(), u); err != nil {
		log.Printf("toggle %s %s: %v", u.Kind, u.ID, err)
		writeError(w, statusFor(err), err)
		return
	}

	_, v, err = s.compute(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, toggle.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, toggle.ErrUnknownKind), errors.Is(err, source.ErrUnsupportedKind):
		return http.StatusBadRequest
	case errors.Is(err, source.ErrReadOnly):
		return http.StatusConflict
	case errors.Is(err, workload.ErrInvariantViolation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
