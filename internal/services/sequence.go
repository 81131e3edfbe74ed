package services

import (
	"sort"

	"onboarding-platform/backend/pkg/models"
)

// normalizeSequence validates a batch task list and returns a copy ordered by
// sequence. The ids must be positive and unique, and the sequence values must
// be exactly 1..N in any order.
func normalizeSequence(tasks []models.TemplateTask) ([]models.TemplateTask, error) {
	out := make([]models.TemplateTask, len(tasks))
	copy(out, tasks)

	seenID := make(map[int64]struct{}, len(out))
	seenSeq := make(map[int]struct{}, len(out))
	for i, t := range out {
		if t.TaskTemplateID <= 0 {
			return nil, invalid("tasks", "entry %d has no taskTemplateId", i)
		}
		if _, dup := seenID[t.TaskTemplateID]; dup {
			return nil, invalid("tasks", "task template %d appears more than once", t.TaskTemplateID)
		}
		seenID[t.TaskTemplateID] = struct{}{}

		if t.Sequence < 1 || t.Sequence > len(out) {
			return nil, invalid("tasks", "sequence %d is outside 1..%d", t.Sequence, len(out))
		}
		if _, dup := seenSeq[t.Sequence]; dup {
			return nil, invalid("tasks", "sequence %d is used more than once", t.Sequence)
		}
		seenSeq[t.Sequence] = struct{}{}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func taskIDs(tasks []models.TemplateTask) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.TaskTemplateID
	}
	return ids
}
