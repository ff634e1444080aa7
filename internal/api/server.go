// Package api exposes review pages over HTTP for a local UI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/profile-review/internal/override"
	"github.com/sells-group/profile-review/internal/review"
	"github.com/sells-group/profile-review/pkg/jobs"
)

// Server serves the review API.
type Server struct {
	reg            *Registry
	client         jobs.Client
	allowedOrigins []string
}

// NewServer creates a Server over reg. client is used for health checks.
func NewServer(reg *Registry, client jobs.Client, allowedOrigins []string) *Server {
	return &Server{reg: reg, client: client, allowedOrigins: allowedOrigins}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Get("/fields", s.fields)

	r.Route("/reviews", func(r chi.Router) {
		r.Post("/", s.openReview)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getReview)
			r.Delete("/", s.closeReview)
			r.Post("/edit", s.beginEdit)
			r.Put("/edit", s.updateDraft)
			r.Post("/edit/commit", s.commitEdit)
			r.Delete("/edit", s.cancelEdit)
			r.Get("/overrides", s.overrides)
			r.Post("/save", s.save)
			r.Get("/sources", s.sources)
			r.Get("/export", s.export)
		})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Warn("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &badRequest{msg: fmt.Sprintf("invalid request body: %v", err)}
	}
	return nil
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	var (
		bad  *badRequest
		val  *jobs.ValidationError
		svc  *jobs.ServiceError
		tErr *jobs.TransportError
	)
	switch {
	case errors.As(err, &bad), errors.As(err, &val):
		return http.StatusBadRequest
	case errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, override.ErrUnknownField), errors.Is(err, override.ErrReadOnlyField):
		return http.StatusBadRequest
	case errors.Is(err, override.ErrNotSeeded),
		errors.Is(err, override.ErrNoEdit),
		errors.Is(err, review.ErrNoProfile),
		errors.Is(err, review.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, review.ErrClosed):
		return http.StatusGone
	case errors.As(err, &svc):
		return svc.StatusCode
	case errors.As(err, &tErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
