// Package composer implements the template task composer: an in-memory
// working set of ordered library tasks that is loaded from and saved to the
// server in whole.
package composer

import "onboarding-platform/backend/pkg/models"

// Move directions.
const (
	Up   = -1
	Down = +1
)

// WorkingSet is the ordered task list being edited. Sequence always equals
// the 1-based position of each entry.
type WorkingSet struct {
	tasks []models.TemplateTask
}

// NewWorkingSet copies tasks, in the given order, and renumbers them.
func NewWorkingSet(tasks []models.TemplateTask) *WorkingSet {
	w := &WorkingSet{tasks: make([]models.TemplateTask, len(tasks))}
	copy(w.tasks, tasks)
	w.renumber()
	return w
}

// Tasks returns a copy of the working set. It is never nil.
func (w *WorkingSet) Tasks() []models.TemplateTask {
	out := make([]models.TemplateTask, len(w.tasks))
	copy(out, w.tasks)
	return out
}

func (w *WorkingSet) Len() int { return len(w.tasks) }

// Contains reports whether the library task id is already referenced.
func (w *WorkingSet) Contains(id int64) bool {
	for _, t := range w.tasks {
		if t.TaskTemplateID == id {
			return true
		}
	}
	return false
}

// Add appends a library task with sequence len+1.
func (w *WorkingSet) Add(task models.TaskTemplate) error {
	if w.Contains(task.ID) {
		return ErrTaskExists
	}
	w.tasks = append(w.tasks, models.TemplateTask{
		TaskTemplateID: task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Sequence:       len(w.tasks) + 1,
	})
	return nil
}

// Remove deletes the entry at index i and closes the gap.
func (w *WorkingSet) Remove(i int) error {
	if i < 0 || i >= len(w.tasks) {
		return ErrIndexOutOfRange
	}
	w.tasks = append(w.tasks[:i], w.tasks[i+1:]...)
	w.renumber()
	return nil
}

// Move swaps the entry at i with its neighbour in direction (Up or Down).
// Moves past either end and invalid arguments change nothing and report false.
func (w *WorkingSet) Move(i, direction int) bool {
	if direction != Up && direction != Down {
		return false
	}
	j := i + direction
	if i < 0 || i >= len(w.tasks) || j < 0 || j >= len(w.tasks) {
		return false
	}
	w.tasks[i], w.tasks[j] = w.tasks[j], w.tasks[i]
	w.renumber()
	return true
}

func (w *WorkingSet) renumber() {
	for i := range w.tasks {
		w.tasks[i].Sequence = i + 1
	}
}
