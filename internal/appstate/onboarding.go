// Package appstate holds the client-side onboarding state shared by the CLI
// views: the task library and the template list. Every mutation is applied
// locally first, sent to the server, and then overwritten by a fresh fetch.
package appstate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"onboarding-platform/backend/internal/composer"
	"onboarding-platform/backend/pkg/models"
)

var (
	// ErrEmptyTitle is returned before any network call for a blank task title.
	ErrEmptyTitle = errors.New("task title is required")
	// ErrEmptyName is returned before any network call for a blank template name.
	ErrEmptyName = errors.New("template name is required")
)

// refreshTimeout bounds the reload that follows a composer save.
const refreshTimeout = 30 * time.Second

// API is the remote surface the state is synchronized against.
type API interface {
	composer.Source
	CreateTaskTemplate(ctx context.Context, in models.TaskTemplateInput) (*models.TaskTemplate, error)
	UpdateTaskTemplate(ctx context.Context, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error)
	DeleteTaskTemplate(ctx context.Context, id int64) error
	ListTemplates(ctx context.Context) ([]models.OnboardingTemplate, error)
	CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.OnboardingTemplate, error)
	UpdateTemplate(ctx context.Context, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error)
	DeleteTemplate(ctx context.Context, id int64) error
}

// Onboarding is the explicit application state passed to whichever view
// needs it.
type Onboarding struct {
	api API

	mu         sync.RWMutex
	library    []models.TaskTemplate
	templates  []models.OnboardingTemplate
	refreshErr error
}

// New creates empty state over api. Call Refresh to populate it.
func New(api API) *Onboarding {
	return &Onboarding{
		api:       api,
		library:   []models.TaskTemplate{},
		templates: []models.OnboardingTemplate{},
	}
}

// Library returns a copy of the task library.
func (o *Onboarding) Library() []models.TaskTemplate {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]models.TaskTemplate{}, o.library...)
}

// Templates returns a copy of the template list.
func (o *Onboarding) Templates() []models.OnboardingTemplate {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]models.OnboardingTemplate{}, o.templates...)
}

// Template returns the cached template with the given id.
func (o *Onboarding) Template(id int64) (models.OnboardingTemplate, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, t := range o.templates {
		if t.ID == id {
			return t, true
		}
	}
	return models.OnboardingTemplate{}, false
}

// Refresh reloads the library and the template list in parallel.
func (o *Onboarding) Refresh(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.RefreshLibrary(gctx) })
	g.Go(func() error { return o.RefreshTemplates(gctx) })
	return g.Wait()
}

// RefreshLibrary replaces the local library with the server's.
func (o *Onboarding) RefreshLibrary(ctx context.Context) error {
	library, err := o.api.ListTaskTemplates(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.library = append([]models.TaskTemplate{}, library...)
	o.mu.Unlock()
	return nil
}

// RefreshTemplates replaces the local template list with the server's.
func (o *Onboarding) RefreshTemplates(ctx context.Context) error {
	templates, err := o.api.ListTemplates(ctx)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.templates = append([]models.OnboardingTemplate{}, templates...)
	o.refreshErr = nil
	o.mu.Unlock()
	return nil
}

// LastRefreshErr returns the error of the template reload that follows a
// composer save, or nil once a later reload succeeds. A non-nil value means
// Templates may be stale.
func (o *Onboarding) LastRefreshErr() error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.refreshErr
}

// CreateTaskTemplate adds a library entry.
func (o *Onboarding) CreateTaskTemplate(ctx context.Context, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	in, err := cleanTask(in)
	if err != nil {
		return nil, err
	}

	var created *models.TaskTemplate
	err = o.mutateLibrary(ctx, func(lib []models.TaskTemplate) []models.TaskTemplate {
		return append(lib, models.TaskTemplate{Title: in.Title, Description: in.Description})
	}, func() error {
		var err error
		created, err = o.api.CreateTaskTemplate(ctx, in)
		return err
	})
	return created, err
}

// UpdateTaskTemplate edits a library entry.
func (o *Onboarding) UpdateTaskTemplate(ctx context.Context, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	in, err := cleanTask(in)
	if err != nil {
		return nil, err
	}

	var updated *models.TaskTemplate
	err = o.mutateLibrary(ctx, func(lib []models.TaskTemplate) []models.TaskTemplate {
		for i := range lib {
			if lib[i].ID == id {
				lib[i].Title, lib[i].Description = in.Title, in.Description
			}
		}
		return lib
	}, func() error {
		var err error
		updated, err = o.api.UpdateTaskTemplate(ctx, id, in)
		return err
	})
	return updated, err
}

// DeleteTaskTemplate removes a library entry.
func (o *Onboarding) DeleteTaskTemplate(ctx context.Context, id int64) error {
	return o.mutateLibrary(ctx, func(lib []models.TaskTemplate) []models.TaskTemplate {
		out := lib[:0]
		for _, t := range lib {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	}, func() error {
		return o.api.DeleteTaskTemplate(ctx, id)
	})
}

// CreateTemplate adds an onboarding template.
func (o *Onboarding) CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	in, err := cleanTemplate(in)
	if err != nil {
		return nil, err
	}

	var created *models.OnboardingTemplate
	err = o.mutateTemplates(ctx, func(list []models.OnboardingTemplate) []models.OnboardingTemplate {
		return append(list, templateFrom(0, in))
	}, func() error {
		var err error
		created, err = o.api.CreateTemplate(ctx, in)
		return err
	})
	return created, err
}

// UpdateTemplate edits template metadata.
func (o *Onboarding) UpdateTemplate(ctx context.Context, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	in, err := cleanTemplate(in)
	if err != nil {
		return nil, err
	}

	var updated *models.OnboardingTemplate
	err = o.mutateTemplates(ctx, func(list []models.OnboardingTemplate) []models.OnboardingTemplate {
		for i := range list {
			if list[i].ID == id {
				tasks := list[i].Tasks
				list[i] = templateFrom(id, in)
				list[i].Tasks = tasks
			}
		}
		return list
	}, func() error {
		var err error
		updated, err = o.api.UpdateTemplate(ctx, id, in)
		return err
	})
	return updated, err
}

// DeleteTemplate removes an onboarding template.
func (o *Onboarding) DeleteTemplate(ctx context.Context, id int64) error {
	return o.mutateTemplates(ctx, func(list []models.OnboardingTemplate) []models.OnboardingTemplate {
		out := list[:0]
		for _, t := range list {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	}, func() error {
		return o.api.DeleteTemplate(ctx, id)
	})
}

// Composer returns a new composer session. A successful save updates the
// cached template tasks and then reloads the template list.
func (o *Onboarding) Composer() *composer.Session {
	return composer.NewSession(o.api, composer.WithOnSaved(func(templateID int64, tasks []models.TemplateTask) {
		o.mu.Lock()
		for i := range o.templates {
			if o.templates[i].ID == templateID {
				o.templates[i].Tasks = append([]models.TemplateTask{}, tasks...)
			}
		}
		o.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := o.RefreshTemplates(ctx); err != nil {
			o.mu.Lock()
			o.refreshErr = err
			o.mu.Unlock()
		}
	}))
}

// mutateLibrary applies local, then calls remote. A remote failure restores
// the snapshot. A success is followed by a full reload.
func (o *Onboarding) mutateLibrary(ctx context.Context, local func([]models.TaskTemplate) []models.TaskTemplate, remote func() error) error {
	o.mu.Lock()
	snapshot := append([]models.TaskTemplate{}, o.library...)
	o.library = local(append([]models.TaskTemplate{}, o.library...))
	o.mu.Unlock()

	if err := remote(); err != nil {
		o.mu.Lock()
		o.library = snapshot
		o.mu.Unlock()
		return err
	}
	return o.RefreshLibrary(ctx)
}

func (o *Onboarding) mutateTemplates(ctx context.Context, local func([]models.OnboardingTemplate) []models.OnboardingTemplate, remote func() error) error {
	o.mu.Lock()
	snapshot := append([]models.OnboardingTemplate{}, o.templates...)
	o.templates = local(append([]models.OnboardingTemplate{}, o.templates...))
	o.mu.Unlock()

	if err := remote(); err != nil {
		o.mu.Lock()
		o.templates = snapshot
		o.mu.Unlock()
		return err
	}
	return o.RefreshTemplates(ctx)
}

func cleanTask(in models.TaskTemplateInput) (models.TaskTemplateInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, ErrEmptyTitle
	}
	return in, nil
}

func cleanTemplate(in models.TemplateInput) (models.TemplateInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrEmptyName
	}
	return in, nil
}

func templateFrom(id int64, in models.TemplateInput) models.OnboardingTemplate {
	return models.OnboardingTemplate{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Department:  in.Department,
		Category:    in.Category,
		Tasks:       []models.TemplateTask{},
	}
}
