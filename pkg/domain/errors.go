package domain

import "errors"

// Error kinds. Every failure the store adapter reports wraps exactly one of these.
var (
	// ErrNotFound is returned when no user parameter has the requested name.
	ErrNotFound = errors.New("parameter not found")

	// ErrNameConflict is returned when a name is already taken anywhere in the document namespace.
	ErrNameConflict = errors.New("name already in use")

	// ErrInvalidName is returned when the host rejects a parameter name.
	ErrInvalidName = errors.New("invalid parameter name")

	// ErrInvalidExpression is returned when an expression is not valid for the target unit.
	ErrInvalidExpression = errors.New("invalid expression")

	// ErrInUse is returned when the host refuses to delete a parameter that is still referenced.
	ErrInUse = errors.New("parameter in use")

	// ErrNoActiveDocument is returned when the host has no active design.
	ErrNoActiveDocument = errors.New("no design active")

	// ErrHostAccess covers unexpected faults raised by the host layer.
	ErrHostAccess = errors.New("host access failure")
)

// Error carries an error kind together with the message shown to the user.
type Error struct {
	Kind    error
	Message string
	Err     error // Underlying host error, if any
}

// NewError creates an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates an Error of the given kind that keeps the host error for logging.
func WrapError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the message to show for err.
// Errors that are not *Error fall back to their Error() text.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// KindOf returns the error kind of err, or ErrHostAccess when err carries none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrNameConflict, ErrInvalidName, ErrInvalidExpression,
		ErrInUse, ErrNoActiveDocument, ErrHostAccess,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrHostAccess
}
