// Package models defines the domain models for the onboarding service
package models

import (
	"time"
)

// TaskTemplate is a reusable onboarding task definition in the task library.
type TaskTemplate struct {
	ID          int64     `json:"id" db:"id"`
	TenantID    string    `json:"-" db:"tenant_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// OnboardingTemplate is a named, departmental grouping of ordered library tasks.
type OnboardingTemplate struct {
	ID          int64          `json:"id" db:"id"`
	TenantID    string         `json:"-" db:"tenant_id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description" db:"description"`
	Department  string         `json:"department" db:"department"`
	Category    string         `json:"category" db:"category"`
	Tasks       []TemplateTask `json:"tasks" db:"-"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// TemplateTask is a reference from an onboarding template to a library task.
// Title and Description are copied from the library entry at read time.
type TemplateTask struct {
	TaskTemplateID int64  `json:"taskTemplateId" db:"task_template_id"`
	Title          string `json:"title" db:"title"`
	Description    string `json:"description" db:"description"`
	Sequence       int    `json:"sequence" db:"sequence"`
}

// TaskTemplateInput is the writable part of a TaskTemplate.
type TaskTemplateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TemplateInput is the writable metadata of an OnboardingTemplate.
type TemplateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Department  string `json:"department"`
	Category    string `json:"category"`
}

// ReplaceTasksRequest is the body of the batch "replace tasks for template" call.
// Tasks is always encoded, an empty sequence is sent as [].
type ReplaceTasksRequest struct {
	Tasks []TemplateTask `json:"tasks"`
}

// TemplateTasksResponse wraps a template's ordered task list.
type TemplateTasksResponse struct {
	TemplateID int64          `json:"templateId"`
	Tasks      []TemplateTask `json:"tasks"`
}

// HealthStatus represents service health
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details. Message mirrors Detail
// for clients that only read a top level message field.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Message  string `json:"message,omitempty"`
	Instance string `json:"instance,omitempty"`
	TraceID  string `json:"trace_id,omitempty"`
}
