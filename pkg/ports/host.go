package ports

import "context"

// Host is the CAD application the panel is attached to.
type Host interface {
	// ActiveDesign returns the design of the active document.
	// Returns domain.ErrNoActiveDocument if nothing is open.
	ActiveDesign(ctx context.Context) (Design, error)

	// ActiveCommand returns the identifier of the command or tool currently running.
	ActiveCommand(ctx context.Context) (string, error)

	// OnDocumentActivated registers fn to be called whenever a document becomes active.
	// The returned function removes the registration.
	OnDocumentActivated(fn func(ctx context.Context, docName string)) (unsubscribe func())
}

// Design is the parameter table of one document.
type Design interface {
	// DocumentName returns the display name, possibly carrying a " v<N>" suffix.
	DocumentName() string

	// UserParameters enumerates user parameters in host order.
	UserParameters() ([]Parameter, error)

	// UserParameter looks a user parameter up by exact name.
	UserParameter(name string) (Parameter, bool)

	// HasParameter reports whether name is taken anywhere in the namespace
	// (user parameters and model-derived parameters alike).
	HasParameter(name string) bool

	// IsValidExpression reports whether expr evaluates to a value compatible with unit.
	IsValidExpression(expr, unit string) (bool, error)

	// AddUserParameter creates a parameter from a string formula.
	AddUserParameter(name, expr, unit, comment string) (Parameter, error)
}

// Parameter is a handle on one host parameter.
type Parameter interface {
	Name() string
	// SetName renames the parameter. The host rejects malformed names.
	SetName(name string) error

	Expression() string
	SetExpression(expr string) error

	// Value evaluates the expression. It may fail while the model is inconsistent.
	Value() (float64, error)

	// Unit is fixed at creation.
	Unit() string

	Comment() string
	SetComment(comment string) error

	// DeleteMe deletes the parameter. It returns false when the host refuses,
	// typically because the parameter is still referenced.
	DeleteMe() (bool, error)
}

// Favoriter is implemented by parameters of hosts that support favorites.
type Favoriter interface {
	IsFavorite() bool
	SetFavorite(favorite bool) error
}

// Reloader is implemented by hosts whose state can be changed by another process,
// such as a document file shared between replicas. The controller calls Reload
// after taking its locks and before reading or writing the host.
type Reloader interface {
	Reload(ctx context.Context) error
}
