package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/liveparams/internal/logging"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
)

const (
	msgNoDesign   = "No design active"
	msgScanFailed = "Failed to scan parameters"
	msgNotFound   = "Parameter not found"
	msgBadName    = "Invalid Name (Avoid spaces/symbols)"
)

// Result is the outcome of a successful mutation.
type Result struct {
	// Message is the user-facing confirmation.
	Message string
	// Snapshot is the table re-read after the mutation. It is nil for
	// expression updates, and nil with ScanErr set if the rescan failed.
	Snapshot *domain.Snapshot
	ScanErr  error
}

// Store mediates every access to the host parameter table.
type Store struct {
	host   ports.Host
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger configures a logger for host faults and skipped values.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store for the given host.
func New(host ports.Host, opts ...Option) *Store {
	s := &Store{
		host:   host,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads every user parameter of the active design.
// A parameter whose value cannot be evaluated is reported with value 0.
func (s *Store) Scan(ctx context.Context) (snap *domain.Snapshot, err error) {
	defer s.recoverHost("scan", &err)

	design, err := s.design(ctx, msgScanFailed)
	if err != nil {
		return nil, err
	}
	return s.scan(design)
}

func (s *Store) scan(design ports.Design) (*domain.Snapshot, error) {
	params, err := design.UserParameters()
	if err != nil {
		s.logger.Error("Failed to enumerate parameters", "err", err)
		return nil, domain.WrapError(domain.ErrHostAccess, msgScanFailed, err)
	}

	snap := &domain.Snapshot{
		DocName:    domain.CleanDocumentName(design.DocumentName()),
		Parameters: make([]domain.Parameter, 0, len(params)),
	}
	for _, p := range params {
		value, err := p.Value()
		if err != nil {
			s.logger.Debug("Parameter value unavailable, reporting 0", "param", p.Name(), "err", err)
			value = 0
		}
		favorite := false
		if f, ok := p.(ports.Favoriter); ok {
			favorite = f.IsFavorite()
		}
		snap.Parameters = append(snap.Parameters, domain.Parameter{
			Name:       p.Name(),
			Expression: p.Expression(),
			Value:      value,
			Unit:       p.Unit(),
			Comment:    p.Comment(),
			IsFavorite: favorite,
		})
	}
	return snap, nil
}

// rescan re-reads the table after a mutation that already succeeded.
func (s *Store) rescan(design ports.Design, msg string) Result {
	snap, err := s.scan(design)
	if err != nil {
		return Result{Message: msg, ScanErr: err}
	}
	return Result{Message: msg, Snapshot: snap}
}

// ValidateExpression asks the host whether expr is valid for unit.
// It returns false when no design is active or the validator itself fails.
func (s *Store) ValidateExpression(ctx context.Context, expr, unit string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Host fault during validation", "panic", r)
			ok = false
		}
	}()

	design, err := s.host.ActiveDesign(ctx)
	if err != nil || design == nil {
		return false
	}
	return s.validate(design, expr, unit)
}

func (s *Store) validate(design ports.Design, expr, unit string) bool {
	ok, err := design.IsValidExpression(expr, unit)
	if err != nil {
		s.logger.Debug("Host validator failed", "expr", expr, "unit", unit, "err", err)
		return false
	}
	return ok
}

// UpdateExpression replaces the expression of an existing parameter.
// Validation uses the parameter's own unit, which never changes.
func (s *Store) UpdateExpression(ctx context.Context, name, expr string) (res Result, err error) {
	defer s.recoverHost("update_expression", &err)

	design, err := s.design(ctx, "Error")
	if err != nil {
		return Result{}, err
	}
	param, ok := design.UserParameter(name)
	if !ok {
		return Result{}, domain.NewError(domain.ErrNotFound, msgNotFound)
	}

	unit := param.Unit()
	if !s.validate(design, expr, unit) {
		return Result{}, domain.NewError(domain.ErrInvalidExpression, fmt.Sprintf("Invalid value for unit (%s)", unit))
	}
	if err := param.SetExpression(expr); err != nil {
		return Result{}, domain.WrapError(domain.ErrHostAccess, fmt.Sprintf("Error: %v", err), err)
	}
	return Result{Message: "Updated"}, nil
}

// RenameAndComment renames a parameter when newName differs and always writes the comment.
func (s *Store) RenameAndComment(ctx context.Context, oldName, newName, comment string) (res Result, err error) {
	defer s.recoverHost("rename_and_comment", &err)

	design, err := s.design(ctx, "Failed")
	if err != nil {
		return Result{}, err
	}
	param, ok := design.UserParameter(oldName)
	if !ok {
		return Result{}, domain.NewError(domain.ErrNotFound, msgNotFound)
	}

	if newName != oldName {
		if design.HasParameter(newName) {
			return Result{}, domain.NewError(domain.ErrNameConflict, fmt.Sprintf("Name '%s' already taken", newName))
		}
		if err := param.SetName(newName); err != nil {
			s.logger.Debug("Host rejected rename", "from", oldName, "to", newName, "err", err)
			return Result{}, domain.WrapError(domain.ErrInvalidName, msgBadName, err)
		}
	}

	if err := param.SetComment(comment); err != nil {
		return Result{}, domain.WrapError(domain.ErrHostAccess, fmt.Sprintf("Failed: %v", err), err)
	}
	return s.rescan(design, "Parameter Saved"), nil
}

// CreateParameter adds a user parameter from a string formula.
func (s *Store) CreateParameter(ctx context.Context, name, unit, expr, comment string) (res Result, err error) {
	defer s.recoverHost("create_parameter", &err)

	design, err := s.design(ctx, "Failed")
	if err != nil {
		return Result{}, err
	}
	if design.HasParameter(name) {
		return Result{}, domain.NewError(domain.ErrNameConflict, fmt.Sprintf("Parameter '%s' already exists", name))
	}
	if !s.validate(design, expr, unit) {
		return Result{}, domain.NewError(domain.ErrInvalidExpression, fmt.Sprintf("Invalid expression for unit (%s)", unit))
	}
	if _, err := design.AddUserParameter(name, expr, unit, comment); err != nil {
		return Result{}, domain.WrapError(domain.ErrHostAccess, fmt.Sprintf("Failed: %v", err), err)
	}
	return s.rescan(design, fmt.Sprintf("Created '%s'", name)), nil
}

// DeleteParameter deletes a user parameter. A host refusal is reported as ErrInUse.
func (s *Store) DeleteParameter(ctx context.Context, name string) (res Result, err error) {
	defer s.recoverHost("delete_parameter", &err)

	design, err := s.design(ctx, "Error")
	if err != nil {
		return Result{}, err
	}
	param, ok := design.UserParameter(name)
	if !ok {
		return Result{}, domain.NewError(domain.ErrNotFound, msgNotFound)
	}

	deleted, err := param.DeleteMe()
	if err != nil {
		return Result{}, domain.WrapError(domain.ErrHostAccess, fmt.Sprintf("Error: %v", err), err)
	}
	if !deleted {
		return Result{}, domain.NewError(domain.ErrInUse, fmt.Sprintf("Could not delete '%s'. It is likely in use.", name))
	}
	return s.rescan(design, fmt.Sprintf("Deleted '%s'", name)), nil
}

// ToggleFavorite flips the favorite flag when the parameter exists and the host
// supports favorites, then rescans. Missing parameters are ignored.
func (s *Store) ToggleFavorite(ctx context.Context, name string) (snap *domain.Snapshot, err error) {
	defer s.recoverHost("toggle_favorite", &err)

	design, err := s.design(ctx, msgScanFailed)
	if err != nil {
		return nil, err
	}
	if param, ok := design.UserParameter(name); ok {
		if f, ok := param.(ports.Favoriter); ok {
			if err := f.SetFavorite(!f.IsFavorite()); err != nil {
				s.logger.Warn("Failed to toggle favorite", "param", name, "err", err)
			}
		}
	}
	return s.scan(design)
}

// design resolves the active design, translating host errors into domain errors.
// prefix labels unexpected faults the way the calling operation reports them.
func (s *Store) design(ctx context.Context, prefix string) (ports.Design, error) {
	design, err := s.host.ActiveDesign(ctx)
	if errors.Is(err, domain.ErrNoActiveDocument) || (err == nil && design == nil) {
		return nil, domain.NewError(domain.ErrNoActiveDocument, msgNoDesign)
	}
	if err != nil {
		s.logger.Error("Failed to reach active design", "err", err)
		msg := prefix
		if prefix != msgScanFailed {
			msg = fmt.Sprintf("%s: %v", prefix, err)
		}
		return nil, domain.WrapError(domain.ErrHostAccess, msg, err)
	}
	return design, nil
}

func (s *Store) recoverHost(op string, err *error) {
	if r := recover(); r != nil {
		s.logger.Error("Host fault", "op", op, "panic", r)
		cause := fmt.Errorf("panic: %v", r)
		*err = domain.WrapError(domain.ErrHostAccess, fmt.Sprintf("Error: %v", r), cause)
	}
}
