package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"onboarding-platform/backend/internal/repository"
	"onboarding-platform/backend/pkg/models"
)

// OnboardingService manages the task library, onboarding templates and their
// task sequences.
type OnboardingService struct {
	store   repository.Repository
	logger  Logger
	metrics *serviceMetrics
}

// Option configures an OnboardingService.
type Option func(*serviceOptions)

type serviceOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider records service metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *serviceOptions) { o.meterProvider = mp }
}

// NewOnboardingService creates a new OnboardingService.
func NewOnboardingService(store repository.Repository, logger Logger, opts ...Option) (*OnboardingService, error) {
	o := serviceOptions{meterProvider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	m, err := newServiceMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return &OnboardingService{store: store, logger: logger, metrics: m}, nil
}

// ListTaskTemplates returns the whole task library.
func (s *OnboardingService) ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error) {
	tasks, err := s.store.ListTaskTemplates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task templates: %w", err)
	}
	if tasks == nil {
		tasks = []*models.TaskTemplate{}
	}
	return tasks, nil
}

// GetTaskTemplate returns one library entry.
func (s *OnboardingService) GetTaskTemplate(ctx context.Context, tenantID string, id int64) (*models.TaskTemplate, error) {
	task, err := s.store.GetTaskTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task template %d: %w", id, err)
	}
	return task, nil
}

// CreateTaskTemplate adds an entry to the library. The title is required.
func (s *OnboardingService) CreateTaskTemplate(ctx context.Context, tenantID string, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	in, err := cleanTaskInput(in)
	if err != nil {
		return nil, err
	}

	task := &models.TaskTemplate{TenantID: tenantID, Title: in.Title, Description: in.Description}
	if err := s.store.CreateTaskTemplate(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task template: %w", err)
	}
	s.metrics.recordLibrary(ctx, "create")
	s.logger.Debug("task template created", "tenant_id", tenantID, "id", task.ID)
	return task, nil
}

// UpdateTaskTemplate replaces title and description of an existing entry.
func (s *OnboardingService) UpdateTaskTemplate(ctx context.Context, tenantID string, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	in, err := cleanTaskInput(in)
	if err != nil {
		return nil, err
	}

	task := &models.TaskTemplate{ID: id, TenantID: tenantID, Title: in.Title, Description: in.Description}
	if err := s.store.UpdateTaskTemplate(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task template %d: %w", id, err)
	}
	s.metrics.recordLibrary(ctx, "update")
	return task, nil
}

// DeleteTaskTemplate removes an entry. Entries still used by a template are
// rejected with repository.ErrConflict.
func (s *OnboardingService) DeleteTaskTemplate(ctx context.Context, tenantID string, id int64) error {
	refs, err := s.store.CountTaskTemplateReferences(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to check task template %d references: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: task template %d is used by %d onboarding template(s)", repository.ErrConflict, id, refs)
	}

	if err := s.store.DeleteTaskTemplate(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete task template %d: %w", id, err)
	}
	s.metrics.recordLibrary(ctx, "delete")
	return nil
}

// ListTemplates returns every onboarding template of the tenant.
func (s *OnboardingService) ListTemplates(ctx context.Context, tenantID string) ([]*models.OnboardingTemplate, error) {
	templates, err := s.store.ListTemplates(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if templates == nil {
		templates = []*models.OnboardingTemplate{}
	}
	return templates, nil
}

// GetTemplate returns a template with its ordered tasks.
func (s *OnboardingService) GetTemplate(ctx context.Context, tenantID string, id int64) (*models.OnboardingTemplate, error) {
	template, err := s.store.GetTemplate(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template %d: %w", id, err)
	}
	return template, nil
}

// CreateTemplate creates template metadata with an empty task sequence.
func (s *OnboardingService) CreateTemplate(ctx context.Context, tenantID string, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	in, err := cleanTemplateInput(in)
	if err != nil {
		return nil, err
	}

	template := templateFromInput(tenantID, 0, in)
	if err := s.store.CreateTemplate(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return template, nil
}

// UpdateTemplate updates template metadata. The task sequence is untouched.
func (s *OnboardingService) UpdateTemplate(ctx context.Context, tenantID string, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	in, err := cleanTemplateInput(in)
	if err != nil {
		return nil, err
	}

	template := templateFromInput(tenantID, id, in)
	if err := s.store.UpdateTemplate(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template %d: %w", id, err)
	}

	tasks, err := s.store.GetTemplateTasks(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks of template %d: %w", id, err)
	}
	template.Tasks = tasks
	return template, nil
}

// DeleteTemplate removes a template and its task sequence.
func (s *OnboardingService) DeleteTemplate(ctx context.Context, tenantID string, id int64) error {
	if err := s.store.DeleteTemplate(ctx, tenantID, id); err != nil {
		return fmt.Errorf("failed to delete template %d: %w", id, err)
	}
	return nil
}

// GetTemplateTasks returns the template's tasks ordered by sequence.
func (s *OnboardingService) GetTemplateTasks(ctx context.Context, tenantID string, templateID int64) ([]models.TemplateTask, error) {
	tasks, err := s.store.GetTemplateTasks(ctx, tenantID, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks of template %d: %w", templateID, err)
	}
	if tasks == nil {
		tasks = []models.TemplateTask{}
	}
	return tasks, nil
}

// ReplaceTemplateTasks swaps the whole task sequence of a template and returns
// the stored result. The batch is validated first: ids must be unique members
// of the tenant library and sequences must be exactly 1..N.
func (s *OnboardingService) ReplaceTemplateTasks(ctx context.Context, tenantID string, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	ordered, err := normalizeSequence(tasks)
	if err != nil {
		s.metrics.recordReplace(ctx, "invalid", len(tasks))
		return nil, err
	}

	missing, err := s.store.MissingTaskTemplates(ctx, tenantID, taskIDs(ordered))
	if err != nil {
		s.metrics.recordReplace(ctx, "error", len(tasks))
		return nil, fmt.Errorf("failed to check task templates: %w", err)
	}
	if len(missing) > 0 {
		s.metrics.recordReplace(ctx, "invalid", len(tasks))
		return nil, invalid("tasks", "unknown task template ids %v", missing)
	}

	if err := s.store.ReplaceTemplateTasks(ctx, tenantID, templateID, ordered); err != nil {
		outcome := "error"
		if errors.Is(err, repository.ErrNotFound) {
			outcome = "not_found"
		}
		s.metrics.recordReplace(ctx, outcome, len(tasks))
		return nil, fmt.Errorf("failed to replace tasks of template %d: %w", templateID, err)
	}
	s.metrics.recordReplace(ctx, "ok", len(ordered))
	s.logger.Info("template tasks replaced", "tenant_id", tenantID, "template_id", templateID, "count", len(ordered))

	return s.GetTemplateTasks(ctx, tenantID, templateID)
}

func cleanTaskInput(in models.TaskTemplateInput) (models.TaskTemplateInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, invalid("title", "must not be empty")
	}
	return in, nil
}

func cleanTemplateInput(in models.TemplateInput) (models.TemplateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Department = strings.TrimSpace(in.Department)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return in, invalid("name", "must not be empty")
	}
	return in, nil
}

func templateFromInput(tenantID string, id int64, in models.TemplateInput) *models.OnboardingTemplate {
	return &models.OnboardingTemplate{
		ID:          id,
		TenantID:    tenantID,
		Name:        in.Name,
		Description: in.Description,
		Department:  in.Department,
		Category:    in.Category,
		Tasks:       []models.TemplateTask{},
	}
}
