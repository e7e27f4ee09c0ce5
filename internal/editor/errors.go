package editor

import "errors"

var (
	ErrSessionNotFound = errors.New("editor session not found")
	// ErrClosed is returned when the session was closed while a call was in
	// flight. The call's result is not applied to any view.
	ErrClosed         = errors.New("editor session closed")
	ErrReadOnly       = errors.New("place is not in edit mode")
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrNameRequired   = errors.New("place name is required")
	ErrDateLocked     = errors.New("date can only be set for new places")
)

// SaveError wraps a failed save request. Nothing was persisted and the
// session keeps its state, so the user can retry.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return "save failed: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}
