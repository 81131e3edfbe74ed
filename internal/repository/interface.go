package repository

import (
	"context"
	"errors"

	"onboarding-platform/backend/pkg/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist for the tenant.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a referential constraint.
	ErrConflict = errors.New("conflict")
)

// TenantStore resolves and provisions tenants.
type TenantStore interface {
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
}

// TaskTemplateStore persists the task template library.
type TaskTemplateStore interface {
	// ListTaskTemplates returns every library entry of the tenant ordered by id.
	ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error)
	GetTaskTemplate(ctx context.Context, tenantID string, id int64) (*models.TaskTemplate, error)
	// CreateTaskTemplate inserts the entry and fills in ID and timestamps.
	CreateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error
	UpdateTaskTemplate(ctx context.Context, task *models.TaskTemplate) error
	DeleteTaskTemplate(ctx context.Context, tenantID string, id int64) error
	// CountTaskTemplateReferences reports how many onboarding templates reference the entry.
	CountTaskTemplateReferences(ctx context.Context, tenantID string, id int64) (int, error)
	// MissingTaskTemplates returns the ids that are not in the tenant's library.
	MissingTaskTemplates(ctx context.Context, tenantID string, ids []int64) ([]int64, error)
}

// TemplateStore persists onboarding templates and their task sequences.
type TemplateStore interface {
	ListTemplates(ctx context.Context, tenantID string) ([]*models.OnboardingTemplate, error)
	GetTemplate(ctx context.Context, tenantID string, id int64) (*models.OnboardingTemplate, error)
	CreateTemplate(ctx context.Context, template *models.OnboardingTemplate) error
	UpdateTemplate(ctx context.Context, template *models.OnboardingTemplate) error
	DeleteTemplate(ctx context.Context, tenantID string, id int64) error
	// GetTemplateTasks returns the template's tasks ordered by sequence.
	GetTemplateTasks(ctx context.Context, tenantID string, templateID int64) ([]models.TemplateTask, error)
	// ReplaceTemplateTasks atomically swaps the template's whole task sequence.
	ReplaceTemplateTasks(ctx context.Context, tenantID string, templateID int64, tasks []models.TemplateTask) error
}

// Repository is the full storage surface used by the service layer.
type Repository interface {
	TenantStore
	TaskTemplateStore
	TemplateStore
	Ping(ctx context.Context) error
}
