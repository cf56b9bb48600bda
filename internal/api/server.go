// Package api exposes the job tracker over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/edmtrack/internal/auth"
	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/store"
)

const defaultBasePath = "/api"

// Config for the HTTP API handler.
type Config struct {
	Store    *store.Store
	Auth     *auth.Service
	BasePath string
	Logger   *log.Logger
}

type server struct {
	store  *store.Store
	auth   *auth.Service
	logger *log.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"overlap"`
	Message string         `json:"message" example:"capture range overlaps an existing capture"`
	Details map[string]any `json:"details,omitempty"`
}

// apiError is the error envelope of every failed request.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the tracker API under cfg.BasePath.
func New(cfg Config) (http.Handler, error) {
	if cfg.Store == nil || cfg.Auth == nil {
		return nil, errors.New("api: store and auth are required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &server{store: cfg.Store, auth: cfg.Auth, logger: logger}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, e.Error())
			}
			details = map[string]any{"errors": messages}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(s.authMiddleware(basePath))

	hcfg := huma.DefaultConfig("EDM Job Tracker API", "1.0.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	s.registerAuth(group)
	s.registerCalc(group)
	s.registerSettings(group)
	s.registerCaptures(group)
	s.registerQA(group)
	s.registerTimers(group)
	s.registerReports(group)

	return router, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond))
	})
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func (s *server) handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	var overlap *store.OverlapError
	if errors.As(err, &overlap) {
		ranges := make([]string, 0, len(overlap.Ranges))
		for _, r := range overlap.Ranges {
			ranges = append(ranges, r.String())
		}
		return newAPIError(http.StatusConflict, "overlap", err.Error(), map[string]any{"ranges": ranges})
	}
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil)
	case errors.Is(err, store.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, store.ErrDispatched):
		return newAPIError(http.StatusConflict, "already_dispatched", err.Error(), nil)
	case errors.Is(err, store.ErrLocked):
		return newAPIError(http.StatusConflict, "locked", err.Error(), nil)
	case errors.Is(err, pause.ErrInvalidTransition):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_transition", err.Error(), nil)
	case errors.Is(err, store.ErrIncomplete):
		return newAPIError(http.StatusUnprocessableEntity, "incomplete", err.Error(), nil)
	case errors.Is(err, store.ErrInvalid):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
	}
	s.logger.Printf("internal error: %v", err)
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func (s *server) now() time.Time {
	if s.store.Now != nil {
		return s.store.Now()
	}
	return time.Now()
}
