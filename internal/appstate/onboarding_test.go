package appstate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-platform/backend/pkg/models"
)

// memoryAPI is an in-memory server.
type memoryAPI struct {
	mu        sync.Mutex
	nextID    int64
	library   []models.TaskTemplate
	templates []models.OnboardingTemplate
	calls     int
	fail      error
	listErr   error
	during    func()
}

func newMemoryAPI() *memoryAPI {
	return &memoryAPI{nextID: 100}
}

func (m *memoryAPI) call() error {
	m.calls++
	if m.during != nil {
		m.during()
	}
	return m.fail
}

func (m *memoryAPI) ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TaskTemplate{}, m.library...), nil
}

func (m *memoryAPI) CreateTaskTemplate(ctx context.Context, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task := models.TaskTemplate{ID: m.nextID, Title: in.Title, Description: in.Description}
	m.library = append(m.library, task)
	return &task, nil
}

func (m *memoryAPI) UpdateTaskTemplate(ctx context.Context, id int64, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.library {
		if m.library[i].ID == id {
			m.library[i].Title = in.Title
			m.library[i].Description = in.Description
			t := m.library[i]
			return &t, nil
		}
	}
	return nil, errors.New("failed to update task template")
}

func (m *memoryAPI) DeleteTaskTemplate(ctx context.Context, id int64) error {
	if err := m.call(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.library[:0]
	for _, t := range m.library {
		if t.ID != id {
			out = append(out, t)
		}
	}
	m.library = out
	return nil
}

func (m *memoryAPI) ListTemplates(ctx context.Context) ([]models.OnboardingTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]models.OnboardingTemplate{}, m.templates...), nil
}

func (m *memoryAPI) CreateTemplate(ctx context.Context, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t := models.OnboardingTemplate{ID: m.nextID, Name: in.Name, Department: in.Department, Tasks: []models.TemplateTask{}}
	m.templates = append(m.templates, t)
	return &t, nil
}

func (m *memoryAPI) UpdateTemplate(ctx context.Context, id int64, in models.TemplateInput) (*models.OnboardingTemplate, error) {
	if err := m.call(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.templates {
		if m.templates[i].ID == id {
			m.templates[i].Name = in.Name
			m.templates[i].Department = in.Department
			t := m.templates[i]
			return &t, nil
		}
	}
	return nil, errors.New("failed to update onboarding template")
}

func (m *memoryAPI) DeleteTemplate(ctx context.Context, id int64) error {
	if err := m.call(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.templates[:0]
	for _, t := range m.templates {
		if t.ID != id {
			out = append(out, t)
		}
	}
	m.templates = out
	return nil
}

func (m *memoryAPI) GetTemplateTasks(ctx context.Context, templateID int64) ([]models.TemplateTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.ID == templateID {
			return append([]models.TemplateTask{}, t.Tasks...), nil
		}
	}
	return nil, errors.New("failed to fetch template tasks")
}

func (m *memoryAPI) ReplaceTemplateTasks(ctx context.Context, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.templates {
		if m.templates[i].ID == templateID {
			m.templates[i].Tasks = append([]models.TemplateTask{}, tasks...)
			return tasks, nil
		}
	}
	return nil, errors.New("failed to update template tasks")
}

func TestCreateTaskTemplate_ValidatesBeforeNetwork(t *testing.T) {
	api := newMemoryAPI()
	state := New(api)

	_, err := state.CreateTaskTemplate(context.Background(), models.TaskTemplateInput{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Zero(t, api.calls)
	assert.Empty(t, state.Library())
}

func TestCreateTaskTemplate_OptimisticThenOverwrite(t *testing.T) {
	api := newMemoryAPI()
	state := New(api)

	var during []models.TaskTemplate
	api.during = func() { during = state.Library() }

	created, err := state.CreateTaskTemplate(context.Background(), models.TaskTemplateInput{Title: "Sign NDA"})
	require.NoError(t, err)

	// local entry visible while the call is in flight, without an id yet
	require.Len(t, during, 1)
	assert.Zero(t, during[0].ID)

	// replaced by the server's copy afterwards
	lib := state.Library()
	require.Len(t, lib, 1)
	assert.Equal(t, created.ID, lib[0].ID)
	assert.Equal(t, "Sign NDA", lib[0].Title)
}

func TestMutationFailureRestoresSnapshot(t *testing.T) {
	api := newMemoryAPI()
	api.library = []models.TaskTemplate{{ID: 1, Title: "Laptop"}, {ID: 2, Title: "Badge"}}
	state := New(api)
	require.NoError(t, state.Refresh(context.Background()))

	api.fail = errors.New("task template 1 is used by 1 onboarding template(s)")
	var during []models.TaskTemplate
	api.during = func() { during = state.Library() }

	err := state.DeleteTaskTemplate(context.Background(), 1)
	assert.EqualError(t, err, "task template 1 is used by 1 onboarding template(s)")
	assert.Len(t, during, 1, "removed locally while in flight")
	assert.Len(t, state.Library(), 2, "restored after failure")
}

func TestUpdateTaskTemplate(t *testing.T) {
	api := newMemoryAPI()
	api.library = []models.TaskTemplate{{ID: 1, Title: "Laptop"}}
	state := New(api)
	require.NoError(t, state.RefreshLibrary(context.Background()))

	updated, err := state.UpdateTaskTemplate(context.Background(), 1, models.TaskTemplateInput{Title: "Order laptop"})
	require.NoError(t, err)
	assert.Equal(t, "Order laptop", updated.Title)
	assert.Equal(t, "Order laptop", state.Library()[0].Title)
}

func TestTemplateCRUD(t *testing.T) {
	api := newMemoryAPI()
	state := New(api)

	_, err := state.CreateTemplate(context.Background(), models.TemplateInput{Department: "Sales"})
	assert.ErrorIs(t, err, ErrEmptyName)

	created, err := state.CreateTemplate(context.Background(), models.TemplateInput{Name: "Sales", Department: "Revenue"})
	require.NoError(t, err)
	require.Len(t, state.Templates(), 1)

	_, err = state.UpdateTemplate(context.Background(), created.ID, models.TemplateInput{Name: "Sales EMEA"})
	require.NoError(t, err)
	got, ok := state.Template(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Sales EMEA", got.Name)

	require.NoError(t, state.DeleteTemplate(context.Background(), created.ID))
	assert.Empty(t, state.Templates())
}

func TestComposerSaveReloadsTemplates(t *testing.T) {
	api := newMemoryAPI()
	api.library = []models.TaskTemplate{{ID: 5, Title: "Sign NDA"}}
	api.templates = []models.OnboardingTemplate{{ID: 1, Name: "Eng", Tasks: []models.TemplateTask{}}}
	state := New(api)
	require.NoError(t, state.Refresh(context.Background()))

	session := state.Composer()
	require.NoError(t, session.Open(context.Background(), 1))
	require.NoError(t, session.Add(5))
	require.NoError(t, session.Save(context.Background()))

	tmpl, ok := state.Template(1)
	require.True(t, ok)
	assert.Equal(t, []models.TemplateTask{{TaskTemplateID: 5, Title: "Sign NDA", Sequence: 1}}, tmpl.Tasks)
}

func TestComposerSaveReportsFailedReload(t *testing.T) {
	api := newMemoryAPI()
	api.library = []models.TaskTemplate{{ID: 5, Title: "Sign NDA"}}
	api.templates = []models.OnboardingTemplate{{ID: 1, Name: "Eng", Tasks: []models.TemplateTask{}}}
	state := New(api)
	require.NoError(t, state.Refresh(context.Background()))
	assert.NoError(t, state.LastRefreshErr())

	session := state.Composer()
	require.NoError(t, session.Open(context.Background(), 1))
	require.NoError(t, session.Add(5))

	api.listErr = errors.New("failed to fetch onboarding templates")
	require.NoError(t, session.Save(context.Background()))
	assert.EqualError(t, state.LastRefreshErr(), "failed to fetch onboarding templates")

	// the saved tasks are still applied to the cached template
	tmpl, ok := state.Template(1)
	require.True(t, ok)
	assert.Len(t, tmpl.Tasks, 1)

	api.listErr = nil
	require.NoError(t, state.RefreshTemplates(context.Background()))
	assert.NoError(t, state.LastRefreshErr())
}
