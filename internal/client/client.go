// Package client is a typed REST client for the onboarding API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"onboarding-platform/backend/pkg/models"
)

const apiPrefix = "/api/v1"

// APIError is returned for non-2xx responses and transport failures. Status is
// zero when no response was received.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the onboarding REST API. Session cookies set by the server
// are kept in a cookie jar and sent on every call.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default instrumented HTTP client. The client's
// cookie jar is used as is.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListTaskTemplates returns the task library.
func (c *Client) ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error) {
	var tasks []models.TaskTemplate
	if err := c.do(ctx, http.MethodGet, "/onboarding/task-templates", nil, &tasks, "failed to fetch task templates"); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.TaskTemplate{}
	}
	return tasks, nil
}

// CreateTaskTemplate adds a library entry.
func (c *Client) CreateTaskTemplate(ctx context.Context, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	var task models.TaskTemplate
	if err := c.do(ctx, http.MethodPost, "/onboarding/task-templates", in, &task, "failed to create task template"); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTaskTemplate replaces title and description of a library entry.
func (c *Client) UpdateTaskTemplate(ctx context.Context, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	var task models.TaskTemplate
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/onboarding/task-templates/%d", id), in, &task, "failed to update task template"); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTaskTemplate removes a library entry.
func (c *Client) DeleteTaskTemplate(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/onboarding/task-templates/%d", id), nil, nil, "failed to delete task template")
}

// ListTemplates returns every onboarding template.
func (c *Client) ListTemplates(ctx context.Context) ([]models.OnboardingTemplate, error) {
	var raw []wireTemplate
	if err := c.do(ctx, http.MethodGet, "/onboarding/templates", nil, &raw, "failed to fetch onboarding templates"); err != nil {
		return nil, err
	}
	templates := make([]models.OnboardingTemplate, 0, len(raw))
	for _, w := range raw {
		t, err := w.canonical()
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// GetTemplate returns one onboarding template with its ordered tasks.
func (c *Client) GetTemplate(ctx context.Context, id int64) (*models.OnboardingTemplate, error) {
	var w wireTemplate
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/onboarding/templates/%d", id), nil, &w, "failed to fetch onboarding template"); err != nil {
		return nil, err
	}
	t, err := w.canonical()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate creates template metadata.
func (c *Client) CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	var w wireTemplate
	if err := c.do(ctx, http.MethodPost, "/onboarding/templates", in, &w, "failed to create onboarding template"); err != nil {
		return nil, err
	}
	t, err := w.canonical()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate updates template metadata.
func (c *Client) UpdateTemplate(ctx context.Context, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	var w wireTemplate
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/onboarding/templates/%d", id), in, &w, "failed to update onboarding template"); err != nil {
		return nil, err
	}
	t, err := w.canonical()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTemplate removes a template.
func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/onboarding/templates/%d", id), nil, nil, "failed to delete onboarding template")
}

// GetTemplateTasks returns the template's tasks ordered by sequence.
func (c *Client) GetTemplateTasks(ctx context.Context, templateID int64) ([]models.TemplateTask, error) {
	var raw rawBody
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/onboarding/templates/%d/tasks", templateID), nil, &raw, "failed to fetch template tasks"); err != nil {
		return nil, err
	}
	return normalizeTemplateTasks(raw)
}

// ReplaceTemplateTasks sends the whole sequence in one batch call and returns
// the stored result. An empty sequence is sent as "tasks": [].
func (c *Client) ReplaceTemplateTasks(ctx context.Context, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	body := models.ReplaceTasksRequest{Tasks: tasks}
	if body.Tasks == nil {
		body.Tasks = []models.TemplateTask{}
	}
	var raw rawBody
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/onboarding/templates/%d/tasks", templateID), body, &raw, "failed to update template tasks"); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return body.Tasks, nil
	}
	return normalizeTemplateTasks(raw)
}

// rawBody captures the undecoded response for callers that normalize it.
type rawBody []byte

func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		data, err := sonic.ConfigStd.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", fallback, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return &APIError{Message: fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: fallback, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: fallback, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data, fallback)}
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *rawBody:
		*dst = data
		return nil
	default:
		if len(data) == 0 {
			return nil
		}
		if err := sonic.ConfigStd.Unmarshal(data, out); err != nil {
			return &APIError{Status: resp.StatusCode, Message: fallback, Err: err}
		}
		return nil
	}
}

// errorMessage picks the server supplied message from an error body, falling
// back when the body carries none.
func errorMessage(data []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &body); err != nil {
		return fallback
	}
	for _, m := range []string{body.Message, body.Detail, body.Error} {
		if strings.TrimSpace(m) != "" {
			return m
		}
	}
	return fallback
}
