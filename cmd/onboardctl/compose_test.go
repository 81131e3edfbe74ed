package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-platform/backend/internal/composer"
	"onboarding-platform/backend/pkg/models"
)

type stubSource struct {
	tasks []models.TemplateTask
	saved []models.TemplateTask
}

func (s *stubSource) ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error) {
	return []models.TaskTemplate{{ID: 1, Title: "Sign NDA"}, {ID: 2, Title: "Laptop"}, {ID: 3, Title: "Badge"}}, nil
}

func (s *stubSource) GetTemplateTasks(ctx context.Context, templateID int64) ([]models.TemplateTask, error) {
	return s.tasks, nil
}

func (s *stubSource) ReplaceTemplateTasks(ctx context.Context, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	s.saved = tasks
	return tasks, nil
}

func TestRunEdits_AppliesInOrderAndSaves(t *testing.T) {
	src := &stubSource{tasks: []models.TemplateTask{
		{TaskTemplateID: 1, Title: "Sign NDA", Sequence: 1},
		{TaskTemplateID: 2, Title: "Laptop", Sequence: 2},
	}}
	var out bytes.Buffer

	err := runEdits(context.Background(), &out, composer.NewSession(src), 9, composeEdits{
		remove: []int{1},
		add:    []int64{3, 1},
		up:     []int{3},
		save:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, []models.TemplateTask{
		{TaskTemplateID: 2, Title: "Laptop", Sequence: 1},
		{TaskTemplateID: 1, Title: "Sign NDA", Sequence: 2},
		{TaskTemplateID: 3, Title: "Badge", Sequence: 3},
	}, src.saved)
	assert.Contains(t, out.String(), "saved 3 tasks")
}

func TestRunEdits_DryRunDoesNotSave(t *testing.T) {
	src := &stubSource{tasks: []models.TemplateTask{}}
	var out bytes.Buffer

	err := runEdits(context.Background(), &out, composer.NewSession(src), 9, composeEdits{add: []int64{2}})
	require.NoError(t, err)
	assert.Nil(t, src.saved)
	assert.Contains(t, out.String(), "Laptop")
	assert.Contains(t, out.String(), "not saved")
}

func TestRunEdits_DuplicateRemoveAppliedOnce(t *testing.T) {
	src := &stubSource{tasks: []models.TemplateTask{
		{TaskTemplateID: 1, Title: "Sign NDA", Sequence: 1},
		{TaskTemplateID: 2, Title: "Laptop", Sequence: 2},
		{TaskTemplateID: 3, Title: "Badge", Sequence: 3},
	}}

	err := runEdits(context.Background(), &bytes.Buffer{}, composer.NewSession(src), 9, composeEdits{
		remove: []int{2, 2},
		save:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, []models.TemplateTask{
		{TaskTemplateID: 1, Title: "Sign NDA", Sequence: 1},
		{TaskTemplateID: 3, Title: "Badge", Sequence: 2},
	}, src.saved)
}

func TestRunEdits_Errors(t *testing.T) {
	src := &stubSource{tasks: []models.TemplateTask{{TaskTemplateID: 1, Sequence: 1}}}

	err := runEdits(context.Background(), &bytes.Buffer{}, composer.NewSession(src), 9, composeEdits{add: []int64{1}})
	assert.ErrorIs(t, err, composer.ErrTaskExists)

	err = runEdits(context.Background(), &bytes.Buffer{}, composer.NewSession(src), 9, composeEdits{up: []int{1}})
	assert.EqualError(t, err, "cannot move position 1 up")

	err = runEdits(context.Background(), &bytes.Buffer{}, composer.NewSession(src), 9, composeEdits{remove: []int{4}})
	assert.ErrorIs(t, err, composer.ErrIndexOutOfRange)
	assert.Nil(t, src.saved)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
