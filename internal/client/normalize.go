package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"onboarding-platform/backend/pkg/models"
)

// wireTask accepts every task shape the API has produced: the canonical
// camelCase form, snake_case ids, and a nested library entry.
type wireTask struct {
	TaskTemplateID      *int64 `json:"taskTemplateId"`
	TaskTemplateIDSnake *int64 `json:"task_template_id"`
	TaskTemplate        *struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"taskTemplate"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sequence    int    `json:"sequence"`
}

type wireTemplate struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Department  string          `json:"department"`
	Category    string          `json:"category"`
	Tasks       json.RawMessage `json:"tasks"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (w wireTemplate) canonical() (models.OnboardingTemplate, error) {
	tasks, err := normalizeTemplateTasks(w.Tasks)
	if err != nil {
		return models.OnboardingTemplate{}, fmt.Errorf("template %d: %w", w.ID, err)
	}
	return models.OnboardingTemplate{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Department:  w.Department,
		Category:    w.Category,
		Tasks:       tasks,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}, nil
}

// normalizeTemplateTasks decodes a task list, either a bare array or an
// object with a "tasks" field, into canonical TemplateTask values ordered by
// sequence. Entries without a sequence keep their position.
func normalizeTemplateTasks(data []byte) ([]models.TemplateTask, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []models.TemplateTask{}, nil
	}

	var wire []wireTask
	if data[0] == '{' {
		var envelope struct {
			Tasks []wireTask `json:"tasks"`
		}
		if err := sonic.ConfigStd.Unmarshal(data, &envelope); err != nil {
			return nil, fmt.Errorf("decode template tasks: %w", err)
		}
		wire = envelope.Tasks
	} else if err := sonic.ConfigStd.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode template tasks: %w", err)
	}

	tasks := make([]models.TemplateTask, 0, len(wire))
	for i, w := range wire {
		t := models.TemplateTask{
			Title:       w.Title,
			Description: w.Description,
			Sequence:    w.Sequence,
		}
		switch {
		case w.TaskTemplateID != nil:
			t.TaskTemplateID = *w.TaskTemplateID
		case w.TaskTemplateIDSnake != nil:
			t.TaskTemplateID = *w.TaskTemplateIDSnake
		case w.TaskTemplate != nil:
			t.TaskTemplateID = w.TaskTemplate.ID
		}
		if w.TaskTemplate != nil {
			if t.Title == "" {
				t.Title = w.TaskTemplate.Title
			}
			if t.Description == "" {
				t.Description = w.TaskTemplate.Description
			}
		}
		if t.TaskTemplateID == 0 {
			return nil, fmt.Errorf("template task %d has no task template id", i)
		}
		if t.Sequence <= 0 {
			t.Sequence = i + 1
		}
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Sequence < tasks[j].Sequence })
	return tasks, nil
}
