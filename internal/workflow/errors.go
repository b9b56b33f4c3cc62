package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that no task exists with the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden reports that the actor's role may not perform the transition.
	ErrForbidden = errors.New("transition not permitted")
	// ErrInvalid reports malformed caller input.
	ErrInvalid = errors.New("invalid request")
)

// Error carries the failing task and a sentinel kind. It implements the
// ErrorKind classifier used by transports to choose status codes.
type Error struct {
	Kind   error
	TaskID string
	Msg    string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := e.Kind.Error()
	if e.TaskID != "" {
		base = fmt.Sprintf("%s: task %s", base, e.TaskID)
	}
	if e.Msg == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// ErrorKind returns "not_found", "forbidden" or "validation".
func (e *Error) ErrorKind() string {
	switch {
	case errors.Is(e.Kind, ErrNotFound):
		return "not_found"
	case errors.Is(e.Kind, ErrForbidden):
		return "forbidden"
	case errors.Is(e.Kind, ErrInvalid):
		return "validation"
	default:
		return "internal"
	}
}

func notFound(taskID string) error {
	return &Error{Kind: ErrNotFound, TaskID: taskID}
}

func forbiddenf(taskID, format string, args ...any) error {
	return &Error{Kind: ErrForbidden, TaskID: taskID, Msg: fmt.Sprintf(format, args...)}
}

func invalidf(taskID, format string, args ...any) error {
	return &Error{Kind: ErrInvalid, TaskID: taskID, Msg: fmt.Sprintf(format, args...)}
}
