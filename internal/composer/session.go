package composer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"onboarding-platform/backend/pkg/models"
)

// Source is the remote state the composer loads from and saves to.
type Source interface {
	ListTaskTemplates(ctx context.Context) ([]models.TaskTemplate, error)
	GetTemplateTasks(ctx context.Context, templateID int64) ([]models.TemplateTask, error)
	ReplaceTemplateTasks(ctx context.Context, templateID int64, tasks []models.TemplateTask) ([]models.TemplateTask, error)
}

// State of a composer session.
type State int

const (
	Closed State = iota
	Loading
	Ready
	Saving
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// SavedFunc is called after a successful save with the stored sequence.
type SavedFunc func(templateID int64, tasks []models.TemplateTask)

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOnSaved registers fn to run after every successful save.
func WithOnSaved(fn SavedFunc) SessionOption {
	return func(s *Session) { s.onSaved = fn }
}

// Session edits the task sequence of one onboarding template. All edits are
// local; only Open and Save talk to the Source. A Session is safe for
// concurrent use, so a UI may run Open or Save in the background and call
// Close from its event loop.
type Session struct {
	src     Source
	onSaved SavedFunc

	mu         sync.Mutex
	state      State
	templateID int64
	library    []models.TaskTemplate
	work       *WorkingSet
	selected   int64
	loaded     bool
	err        error
	gen        uint64
	cancel     context.CancelFunc
}

// NewSession creates a closed session over src.
func NewSession(src Source, opts ...SessionOption) *Session {
	s := &Session{src: src, work: NewWorkingSet(nil), library: []models.TaskTemplate{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the library and the template's current tasks in parallel. Both
// must succeed. On failure the session is Ready with empty library and tasks
// and Err reports the cause. Opening again discards the previous working set.
func (s *Session) Open(ctx context.Context, templateID int64) error {
	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.resetLocked(Loading)
	s.templateID = templateID
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	var (
		library []models.TaskTemplate
		tasks   []models.TemplateTask
	)
	g, gctx := errgroup.WithContext(loadCtx)
	g.Go(func() error {
		var err error
		library, err = s.src.ListTaskTemplates(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.src.GetTemplateTasks(gctx, templateID)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrClosed
	}
	s.cancel = nil
	s.state = Ready
	if err != nil {
		s.err = err
		return err
	}

	s.library = make([]models.TaskTemplate, len(library))
	copy(s.library, library)
	s.work = NewWorkingSet(tasks)
	s.loaded = true
	return nil
}

// Close discards the working set. A load in flight is cancelled and its
// result ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.resetLocked(Closed)
	s.templateID = 0
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the last load or save error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// TemplateID returns the template being edited, zero when closed.
func (s *Session) TemplateID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateID
}

// Tasks returns a copy of the working set.
func (s *Session) Tasks() []models.TemplateTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.work.Tasks()
}

// Library returns a copy of the loaded task library.
func (s *Session) Library() []models.TaskTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TaskTemplate, len(s.library))
	copy(out, s.library)
	return out
}

// Available returns the library entries not yet in the working set.
func (s *Session) Available() []models.TaskTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TaskTemplate, 0, len(s.library))
	for _, t := range s.library {
		if !s.work.Contains(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// Selected returns the selected library id, zero when nothing is selected.
func (s *Session) Selected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select marks a library entry to be appended by AddSelected. Zero clears the
// selection.
func (s *Session) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return ErrNotReady
	}
	if id == 0 {
		s.selected = 0
		return nil
	}
	if _, ok := s.lookupLocked(id); !ok {
		return ErrUnknownTask
	}
	if s.work.Contains(id) {
		return ErrTaskExists
	}
	s.selected = id
	return nil
}

// AddSelected appends the selected entry and clears the selection.
func (s *Session) AddSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return ErrNotReady
	}
	if s.selected == 0 {
		return ErrNoSelection
	}
	if err := s.addLocked(s.selected); err != nil {
		return err
	}
	s.selected = 0
	return nil
}

// Add appends the library entry id to the working set.
func (s *Session) Add(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return ErrNotReady
	}
	return s.addLocked(id)
}

// Remove deletes the entry at index i.
func (s *Session) Remove(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return ErrNotReady
	}
	return s.work.Remove(i)
}

// Move swaps entry i with its neighbour in direction. It reports whether
// anything moved.
func (s *Session) Move(i, direction int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return false
	}
	return s.work.Move(i, direction)
}

// Save sends the whole working set as one batch replace. On success the
// session closes and the OnSaved callback runs. On failure the session stays
// Ready with the working set intact so the save can be retried.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Ready || !s.loaded {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.state = Saving
	s.err = nil
	gen := s.gen
	templateID := s.templateID
	payload := s.work.Tasks()
	s.mu.Unlock()

	stored, err := s.src.ReplaceTemplateTasks(ctx, templateID, payload)

	s.mu.Lock()
	if gen == s.gen {
		if err != nil {
			s.state = Ready
			s.err = err
			s.mu.Unlock()
			return err
		}
		s.resetLocked(Closed)
		s.templateID = 0
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if s.onSaved != nil {
		s.onSaved(templateID, stored)
	}
	return nil
}

func (s *Session) addLocked(id int64) error {
	task, ok := s.lookupLocked(id)
	if !ok {
		return ErrUnknownTask
	}
	return s.work.Add(task)
}

func (s *Session) lookupLocked(id int64) (models.TaskTemplate, bool) {
	for _, t := range s.library {
		if t.ID == id {
			return t, true
		}
	}
	return models.TaskTemplate{}, false
}

// resetLocked empties the session and starts a new generation so that any
// result still in flight is discarded.
func (s *Session) resetLocked(state State) {
	s.gen++
	s.state = state
	s.library = []models.TaskTemplate{}
	s.work = NewWorkingSet(nil)
	s.selected = 0
	s.loaded = false
	s.err = nil
}
