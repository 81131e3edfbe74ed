// Package api contains the HTTP handlers for the onboarding service
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"onboarding-platform/backend/internal/auth"
	"onboarding-platform/backend/internal/services"
	"onboarding-platform/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	svc services.Onboarding
}

// NewServer creates a new Server.
func NewServer(svc services.Onboarding) *Server {
	return &Server{svc: svc}
}

// RegisterHandlers mounts the onboarding routes and the health check on g.
func RegisterHandlers(g *echo.Group, s *Server, h *Handler) {
	g.GET("/health", h.HandleHealth)

	lib := g.Group("/onboarding/task-templates")
	lib.GET("", s.ListTaskTemplates)
	lib.POST("", s.CreateTaskTemplate)
	lib.GET("/:id", s.GetTaskTemplate)
	lib.PUT("/:id", s.UpdateTaskTemplate)
	lib.DELETE("/:id", s.DeleteTaskTemplate)

	tpl := g.Group("/onboarding/templates")
	tpl.GET("", s.ListTemplates)
	tpl.POST("", s.CreateTemplate)
	tpl.GET("/:id", s.GetTemplate)
	tpl.PUT("/:id", s.UpdateTemplate)
	tpl.DELETE("/:id", s.DeleteTemplate)
	tpl.GET("/:id/tasks", s.GetTemplateTasks)
	tpl.PUT("/:id/tasks", s.ReplaceTemplateTasks)
}

// ListTaskTemplates returns the task library
// (GET /api/v1/onboarding/task-templates)
func (s *Server) ListTaskTemplates(c echo.Context) error {
	tenantID, err := tenant(c)
	if err != nil {
		return err
	}
	tasks, err := s.svc.ListTaskTemplates(c.Request().Context(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// CreateTaskTemplate adds a library entry
// (POST /api/v1/onboarding/task-templates)
func (s *Server) CreateTaskTemplate(c echo.Context) error {
	tenantID, err := tenant(c)
	if err != nil {
		return err
	}
	var in models.TaskTemplateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	task, err := s.svc.CreateTaskTemplate(c.Request().Context(), tenantID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTaskTemplate returns one library entry
// (GET /api/v1/onboarding/task-templates/:id)
func (s *Server) GetTaskTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	task, err := s.svc.GetTaskTemplate(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTaskTemplate replaces a library entry
// (PUT /api/v1/onboarding/task-templates/:id)
func (s *Server) UpdateTaskTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	var in models.TaskTemplateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	task, err := s.svc.UpdateTaskTemplate(c.Request().Context(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTaskTemplate removes an unreferenced library entry
// (DELETE /api/v1/onboarding/task-templates/:id)
func (s *Server) DeleteTaskTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	if err := s.svc.DeleteTaskTemplate(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListTemplates returns every onboarding template
// (GET /api/v1/onboarding/templates)
func (s *Server) ListTemplates(c echo.Context) error {
	tenantID, err := tenant(c)
	if err != nil {
		return err
	}
	templates, err := s.svc.ListTemplates(c.Request().Context(), tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, templates)
}

// CreateTemplate creates template metadata
// (POST /api/v1/onboarding/templates)
func (s *Server) CreateTemplate(c echo.Context) error {
	tenantID, err := tenant(c)
	if err != nil {
		return err
	}
	var in models.TemplateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	template, err := s.svc.CreateTemplate(c.Request().Context(), tenantID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, template)
}

// GetTemplate returns a template with its ordered tasks
// (GET /api/v1/onboarding/templates/:id)
func (s *Server) GetTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	template, err := s.svc.GetTemplate(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, template)
}

// UpdateTemplate updates template metadata. Tasks in the body are ignored.
// (PUT /api/v1/onboarding/templates/:id)
func (s *Server) UpdateTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	var in models.TemplateInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	template, err := s.svc.UpdateTemplate(c.Request().Context(), tenantID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template and its task sequence
// (DELETE /api/v1/onboarding/templates/:id)
func (s *Server) DeleteTemplate(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	if err := s.svc.DeleteTemplate(c.Request().Context(), tenantID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetTemplateTasks returns the template's tasks ordered by sequence
// (GET /api/v1/onboarding/templates/:id/tasks)
func (s *Server) GetTemplateTasks(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	tasks, err := s.svc.GetTemplateTasks(c.Request().Context(), tenantID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.TemplateTasksResponse{TemplateID: id, Tasks: tasks})
}

// ReplaceTemplateTasks swaps the whole task sequence in one call
// (PUT /api/v1/onboarding/templates/:id/tasks)
func (s *Server) ReplaceTemplateTasks(c echo.Context) error {
	tenantID, id, err := tenantAndID(c)
	if err != nil {
		return err
	}
	// an absent or null list is rejected; clearing takes an explicit []
	var req struct {
		Tasks *[]models.TemplateTask `json:"tasks"`
	}
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Tasks == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tasks is required")
	}
	tasks, err := s.svc.ReplaceTemplateTasks(c.Request().Context(), tenantID, id, *req.Tasks)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.TemplateTasksResponse{TemplateID: id, Tasks: tasks})
}

func tenant(c echo.Context) (string, error) {
	tenantID, ok := auth.TenantID(c.Request().Context())
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "tenant not found in context")
	}
	return tenantID, nil
}

func tenantAndID(c echo.Context) (string, int64, error) {
	tenantID, err := tenant(c)
	if err != nil {
		return "", 0, err
	}
	id, err := bindID(c)
	if err != nil {
		return "", 0, err
	}
	return tenantID, id, nil
}

func bindID(c echo.Context) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid format for parameter id: "+err.Error())
	}
	if id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "parameter id must be positive")
	}
	return id, nil
}
