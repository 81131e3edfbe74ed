package composer

import "errors"

var (
	// ErrTaskExists is returned when adding a library task already in the working set.
	ErrTaskExists = errors.New("task already exists in template")
	// ErrUnknownTask is returned for ids that are not in the loaded library.
	ErrUnknownTask = errors.New("task is not in the task library")
	// ErrNoSelection is returned by AddSelected when nothing is selected.
	ErrNoSelection = errors.New("no task selected")
	// ErrIndexOutOfRange is returned by Remove for an invalid index.
	ErrIndexOutOfRange = errors.New("task index out of range")
	// ErrNotReady is returned by edits and saves outside the Ready state, and
	// by Save after a failed load.
	ErrNotReady = errors.New("composer is not ready")
	// ErrBusy is returned by Open while a save is in flight.
	ErrBusy = errors.New("composer is saving")
	// ErrClosed is returned by Open when the session was closed or reopened
	// before the load finished. The late result is discarded.
	ErrClosed = errors.New("composer session was closed")
)
