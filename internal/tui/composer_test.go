package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-platform/backend/internal/composer"
	"onboarding-platform/backend/pkg/models"
)

type stubSource struct {
	library []models.TaskTemplate
	tasks   []models.TemplateTask
	loadErr error
	saveErr error
	saved   []models.TemplateTask
}

func (s *stubSource) ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.library, nil
}

func (s *stubSource) GetTemplateTasks(ctx context.Context, templateID int64) ([]models.TemplateTask, error) {
	return s.tasks, nil
}

func (s *stubSource) ReplaceTemplateTasks(ctx context.Context, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saved = tasks
	return tasks, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and runs any resulting command once.
func send(t *testing.T, m *ComposerModel, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	switch out.(type) {
	case loadedMsg, savedMsg:
		m.Update(out)
	}
	return out
}

func newLoadedModel(t *testing.T, src *stubSource) *ComposerModel {
	t.Helper()
	m := NewComposer(context.Background(), composer.NewSession(src), 1, "Engineering")
	m.Update(m.Init()())
	return m
}

func TestComposer_LoadsAndRenders(t *testing.T) {
	src := &stubSource{
		library: []models.TaskTemplate{{ID: 3, Title: "Laptop"}, {ID: 5, Title: "Sign NDA"}},
		tasks:   []models.TemplateTask{{TaskTemplateID: 3, Title: "Laptop", Sequence: 1}},
	}
	m := newLoadedModel(t, src)

	view := m.View()
	assert.Contains(t, view, "Engineering")
	assert.Contains(t, view, " 1. Laptop")
	assert.Contains(t, view, "Sign NDA")
	assert.NoError(t, m.err)
}

func TestComposer_AddFromLibraryAndSave(t *testing.T) {
	src := &stubSource{
		library: []models.TaskTemplate{{ID: 3, Title: "Laptop"}, {ID: 5, Title: "Sign NDA"}},
		tasks:   []models.TemplateTask{},
	}
	m := newLoadedModel(t, src)

	send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	send(t, m, runes("j"))
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.session.Tasks(), 2)
	assert.Equal(t, int64(5), m.session.Tasks()[0].TaskTemplateID)

	out := send(t, m, runes("s"))
	assert.IsType(t, savedMsg{}, out)
	assert.True(t, m.Saved())
	assert.Equal(t, []models.TemplateTask{
		{TaskTemplateID: 5, Title: "Sign NDA", Sequence: 1},
		{TaskTemplateID: 3, Title: "Laptop", Sequence: 2},
	}, src.saved)
}

func TestComposer_ReorderAndRemove(t *testing.T) {
	src := &stubSource{
		library: []models.TaskTemplate{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}},
		tasks: []models.TemplateTask{
			{TaskTemplateID: 1, Sequence: 1},
			{TaskTemplateID: 2, Sequence: 2},
			{TaskTemplateID: 3, Sequence: 3},
		},
	}
	m := newLoadedModel(t, src)

	send(t, m, runes("j"))
	send(t, m, runes("J"))
	assert.Equal(t, []int64{1, 3, 2}, taskIDs(m))
	assert.Equal(t, 2, m.taskIdx, "cursor follows the moved task")

	send(t, m, runes("J"))
	assert.Equal(t, []int64{1, 3, 2}, taskIDs(m), "last task cannot move down")

	send(t, m, runes("x"))
	assert.Equal(t, []int64{1, 3}, taskIDs(m))
	assert.Equal(t, 1, m.taskIdx)
	for i, task := range m.session.Tasks() {
		assert.Equal(t, i+1, task.Sequence)
	}
}

func TestComposer_SaveFailureKeepsEdits(t *testing.T) {
	src := &stubSource{
		library: []models.TaskTemplate{{ID: 3, Title: "Laptop"}},
		tasks:   []models.TemplateTask{},
		saveErr: errors.New("failed to update template tasks"),
	}
	m := newLoadedModel(t, src)
	send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	send(t, m, runes("s"))
	assert.False(t, m.Saved())
	assert.EqualError(t, m.err, "failed to update template tasks")
	assert.Len(t, m.session.Tasks(), 1)
	assert.Contains(t, m.View(), "failed to update template tasks")
}

func TestComposer_LoadFailureBlocksSave(t *testing.T) {
	src := &stubSource{loadErr: errors.New("failed to fetch task templates")}
	m := newLoadedModel(t, src)

	assert.EqualError(t, m.err, "failed to fetch task templates")
	out := send(t, m, runes("s"))
	assert.Equal(t, savedMsg{err: composer.ErrNotReady}, out)
	assert.False(t, m.Saved())
	assert.Nil(t, src.saved)
}

func TestComposer_QuitClosesSession(t *testing.T) {
	src := &stubSource{library: []models.TaskTemplate{{ID: 3}}, tasks: []models.TemplateTask{}}
	m := newLoadedModel(t, src)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Equal(t, composer.Closed, m.session.State())
	assert.Empty(t, m.View())
}

func taskIDs(m *ComposerModel) []int64 {
	var out []int64
	for _, t := range m.session.Tasks() {
		out = append(out, t.TaskTemplateID)
	}
	return out
}
