package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"onboarding-platform/backend/internal/repository"
	"onboarding-platform/backend/internal/services"
	"onboarding-platform/backend/pkg/models"
)

const (
	serviceName    = "onboarding-service"
	serviceVersion = "1.0.0"
)

// Logger is the subset of the application logger used by the HTTP layer.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the health endpoints.
type Handler struct {
	db Pinger
}

// NewHandler creates a new Handler. db may be nil, in which case readiness
// only reports the process itself.
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

// HandleHealth returns basic health status (always returns 200 OK)
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
	})
}

// HandleReadiness pings the database and returns 503 when it is unreachable.
func (h *Handler) HandleReadiness(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Version:   serviceVersion,
		Timestamp: time.Now().UTC(),
		Checks:    map[string]string{},
	}
	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			status.Status = "degraded"
			status.Checks["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			status.Checks["database"] = "ok"
		}
	}
	return c.JSON(code, status)
}

// Configure installs the JSON codec and the problem details error handler on e.
func Configure(e *echo.Echo, logger Logger) {
	e.JSONSerializer = SonicSerializer{}
	e.HTTPErrorHandler = ErrorHandler(logger)
}

// ErrorHandler renders every handler error as an RFC 7807 problem document.
// Service and repository errors are mapped to their HTTP status here so
// handlers can return them unchanged.
func ErrorHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := classify(err)
		if status >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"error", err)
		}

		problem := models.ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Message:  detail,
			Instance: c.Request().URL.Path,
		}
		if sc := trace.SpanContextFromContext(c.Request().Context()); sc.HasTraceID() {
			problem.TraceID = sc.TraceID().String()
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
			err = c.JSON(status, problem)
		}
		if err != nil && logger != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

func classify(err error) (int, string) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			msg = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, msg
	}

	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
