package services

import (
	"context"

	"onboarding-platform/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Onboarding is the operation set the transport layers (REST, MCP) call into.
type Onboarding interface {
	ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error)
	GetTaskTemplate(ctx context.Context, tenantID string, id int64) (*models.TaskTemplate, error)
	CreateTaskTemplate(ctx context.Context, tenantID string, in models.TaskTemplateInput) (*models.TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, tenantID string, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error)
	DeleteTaskTemplate(ctx context.Context, tenantID string, id int64) error

	ListTemplates(ctx context.Context, tenantID string) ([]*models.OnboardingTemplate, error)
	GetTemplate(ctx context.Context, tenantID string, id int64) (*models.OnboardingTemplate, error)
	CreateTemplate(ctx context.Context, tenantID string, in models.TemplateInput) (*models.OnboardingTemplate, error)
	UpdateTemplate(ctx context.Context, tenantID string, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error)
	DeleteTemplate(ctx context.Context, tenantID string, id int64) error

	GetTemplateTasks(ctx context.Context, tenantID string, templateID int64) ([]models.TemplateTask, error)
	ReplaceTemplateTasks(ctx context.Context, tenantID string, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error)
}
