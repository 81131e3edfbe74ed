package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboarding-platform/backend/internal/auth"
	"onboarding-platform/backend/internal/services"
	"onboarding-platform/backend/pkg/models"
)

// fakeOnboarding implements the calls the tools make; anything else panics
// through the nil embedded interface.
type fakeOnboarding struct {
	services.Onboarding
	library  []*models.TaskTemplate
	replaced []models.TemplateTask
	err      error
}

func (f *fakeOnboarding) ListTaskTemplates(ctx context.Context, tenantID string) ([]*models.TaskTemplate, error) {
	return f.library, f.err
}

func (f *fakeOnboarding) CreateTaskTemplate(ctx context.Context, tenantID string, in models.TaskTemplateInput) (*models.TaskTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.TaskTemplate{ID: 11, Title: in.Title, Description: in.Description}, nil
}

func (f *fakeOnboarding) ReplaceTemplateTasks(ctx context.Context, tenantID string, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.replaced = tasks
	return tasks, nil
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func tenantCtx() context.Context {
	return auth.WithTenant(context.Background(), "tenant-1")
}

func TestListTaskTemplatesTool(t *testing.T) {
	svc := &fakeOnboarding{library: []*models.TaskTemplate{{ID: 5, Title: "Sign NDA"}}}
	s := NewServer(svc)

	res, err := s.handleListTaskTemplates(tenantCtx(), call(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var got []models.TaskTemplate
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Sign NDA", got[0].Title)
}

func TestToolsRequireTenant(t *testing.T) {
	s := NewServer(&fakeOnboarding{})

	res, err := s.handleListTemplates(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestCreateTaskTemplateTool(t *testing.T) {
	s := NewServer(&fakeOnboarding{})

	res, err := s.handleCreateTaskTemplate(tenantCtx(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "title")

	res, err = s.handleCreateTaskTemplate(tenantCtx(), call(map[string]interface{}{"title": "Badge", "description": "Pick up badge"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"id":11`)
}

func TestSetTemplateTasksTool(t *testing.T) {
	svc := &fakeOnboarding{}
	s := NewServer(svc)

	res, err := s.handleSetTemplateTasks(tenantCtx(), call(map[string]interface{}{
		"template_id":       float64(10),
		"task_template_ids": []interface{}{float64(7), float64(3)},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, []models.TemplateTask{
		{TaskTemplateID: 7, Sequence: 1},
		{TaskTemplateID: 3, Sequence: 2},
	}, svc.replaced)
}

func TestSetTemplateTasksTool_BadInput(t *testing.T) {
	s := NewServer(&fakeOnboarding{})

	cases := map[string]map[string]interface{}{
		"missing template":  {"task_template_ids": []interface{}{float64(1)}},
		"fractional id":     {"template_id": float64(10), "task_template_ids": []interface{}{1.5}},
		"ids not an array":  {"template_id": float64(10), "task_template_ids": "1,2"},
		"negative template": {"template_id": float64(-3), "task_template_ids": []interface{}{}},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := s.handleSetTemplateTasks(tenantCtx(), call(args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}
}

func TestServiceErrorsBecomeToolErrors(t *testing.T) {
	s := NewServer(&fakeOnboarding{err: errors.New("tasks: unknown task template ids [99]")})

	res, err := s.handleSetTemplateTasks(tenantCtx(), call(map[string]interface{}{
		"template_id":       float64(10),
		"task_template_ids": []interface{}{float64(99)},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "unknown task template ids [99]")
}

func TestTenantContext(t *testing.T) {
	r := httptest.NewRequest("POST", "/mcp", nil)
	r = r.WithContext(auth.WithTenant(r.Context(), "tenant-9"))

	ctx := tenantContext(context.Background(), r)
	id, ok := auth.TenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tenant-9", id)
}
