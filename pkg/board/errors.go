package board

import (
	"errors"
	"fmt"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

var (
	// ErrNotLoaded is returned by locally-patched mutations while the view
	// has no successful fetch behind it.
	ErrNotLoaded = errors.New("task view is not loaded")
	// ErrClosed is returned once the store has been unmounted.
	ErrClosed = errors.New("task view is closed")
	// ErrWrongView is returned for a mutation that does not apply to the
	// store's kind, such as restoring from the active view.
	ErrWrongView = errors.New("operation does not apply to this view")
	// ErrInvalidRating is returned before any request is sent.
	ErrInvalidRating = fmt.Errorf("%w: rating must be an integer in [%d,%d]", model.ErrValidation, model.MinRating, model.MaxRating)
)

// FetchError reports a failed collection load. The view is left empty.
type FetchError struct {
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s tasks: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError reports a failed write. The view is left as it was.
type MutationError struct {
	Op  Op
	ID  string
	Err error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s task: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %s: %v", e.Op, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// IsFetchFailure returns true if err is, or wraps, a FetchError.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsMutationFailure returns true if err is, or wraps, a MutationError.
func IsMutationFailure(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}
