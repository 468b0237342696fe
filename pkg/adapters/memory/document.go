package memory

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/aretw0/liveparams/internal/units"
)

// Host-level errors. They mimic the exceptions a CAD host raises and are
// translated into domain errors by the store adapter.
var (
	ErrBadName       = errors.New("name contains invalid characters")
	ErrDuplicateName = errors.New("name is already used by another parameter")
	ErrDeleted       = errors.New("parameter has been deleted")
	ErrCycle         = errors.New("expression creates a circular reference")
	ErrBadExpression = errors.New("expression is not valid for the unit")
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type param struct {
	name     string
	expr     string
	unit     string
	comment  string
	favorite bool
	model    bool
	deleted  bool
}

type document struct {
	name      string
	favorites bool
	params    []*param // User parameters, in creation order
	model     []*param
}

func newDocument(spec DocumentSpec) (*document, error) {
	d := &document{name: spec.Name, favorites: !spec.NoFavorites}
	for _, ps := range spec.ModelParameters {
		if err := d.checkName(ps.Name); err != nil {
			return nil, fmt.Errorf("model parameter %q: %w", ps.Name, err)
		}
		d.model = append(d.model, &param{name: ps.Name, expr: ps.Expression, unit: ps.Unit, comment: ps.Comment, model: true})
	}
	for _, ps := range spec.Parameters {
		if err := d.checkName(ps.Name); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", ps.Name, err)
		}
		if _, ok := units.Lookup(ps.Unit); !ok {
			return nil, fmt.Errorf("parameter %q: %w: %q", ps.Name, units.ErrUnknownUnit, ps.Unit)
		}
		d.params = append(d.params, &param{
			name: ps.Name, expr: ps.Expression, unit: ps.Unit,
			comment: ps.Comment, favorite: ps.Favorite && d.favorites,
		})
	}
	return d, nil
}

func (d *document) spec() DocumentSpec {
	s := DocumentSpec{Name: d.name, NoFavorites: !d.favorites, Parameters: []ParameterSpec{}}
	for _, p := range d.params {
		s.Parameters = append(s.Parameters, ParameterSpec{
			Name: p.name, Expression: p.expr, Unit: p.unit, Comment: p.comment, Favorite: p.favorite,
		})
	}
	for _, p := range d.model {
		s.ModelParameters = append(s.ModelParameters, ParameterSpec{
			Name: p.name, Expression: p.expr, Unit: p.unit, Comment: p.comment,
		})
	}
	return s
}

func (d *document) userParam(name string) *param {
	for _, p := range d.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (d *document) anyParam(name string) *param {
	if p := d.userParam(name); p != nil {
		return p
	}
	for _, p := range d.model {
		if p.name == name {
			return p
		}
	}
	return nil
}

// checkName applies the host naming rules for a new or renamed parameter.
func (d *document) checkName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	if _, isUnit := units.Lookup(name); isUnit {
		return fmt.Errorf("%w: %q is a unit", ErrBadName, name)
	}
	if d.anyParam(name) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	return nil
}

func (d *document) resolver(visiting map[*param]bool) units.Resolver {
	return func(name string) (units.Quantity, bool, error) {
		p := d.anyParam(name)
		if p == nil {
			return units.Quantity{}, false, nil
		}
		q, err := d.quantity(p, visiting)
		return q, true, err
	}
}

// quantity evaluates p in base units. Parameters without a unit stay bare so
// they scale other values instead of fixing a dimension.
func (d *document) quantity(p *param, visiting map[*param]bool) (units.Quantity, error) {
	if visiting[p] {
		return units.Quantity{}, fmt.Errorf("%w via %q", ErrCycle, p.name)
	}
	visiting[p] = true
	defer delete(visiting, p)

	q, err := units.Evaluate(p.expr, p.unit, d.resolver(visiting))
	if err != nil {
		return units.Quantity{}, err
	}
	return normalize(q, p.unit)
}

func normalize(q units.Quantity, unit string) (units.Quantity, error) {
	u, ok := units.Lookup(unit)
	if !ok {
		return units.Quantity{}, fmt.Errorf("%w: %q", units.ErrUnknownUnit, unit)
	}
	if u.Dim == units.Dimensionless {
		if !q.Bare && q.Dim != units.Dimensionless {
			return units.Quantity{}, fmt.Errorf("%w: %s is not compatible with a unitless value", units.ErrIncompatible, q.Dim)
		}
		return units.Quantity{Value: q.Value, Bare: true}, nil
	}
	if q.Bare {
		return units.Quantity{Value: q.Value * u.Factor, Dim: u.Dim}, nil
	}
	if q.Dim != u.Dim {
		return units.Quantity{}, fmt.Errorf("%w: %s is not compatible with %q", units.ErrIncompatible, q.Dim, unit)
	}
	return q, nil
}

func (d *document) value(p *param) (float64, error) {
	q, err := d.quantity(p, make(map[*param]bool))
	if err != nil {
		return 0, err
	}
	u, _ := units.Lookup(p.unit)
	return q.Value / u.Factor, nil
}

func (d *document) validate(expr, unit string) error {
	if _, ok := units.Lookup(unit); !ok {
		return fmt.Errorf("%w: %q", units.ErrUnknownUnit, unit)
	}
	q, err := units.Evaluate(expr, unit, d.resolver(make(map[*param]bool)))
	if err != nil {
		return err
	}
	_, err = normalize(q, unit)
	return err
}

// referencedBy returns the first parameter whose expression depends on name.
func (d *document) referencedBy(name string) *param {
	for _, list := range [][]*param{d.params, d.model} {
		for _, p := range list {
			if p.name == name {
				continue
			}
			refs, err := units.References(p.expr)
			if err != nil {
				continue
			}
			for _, r := range refs {
				if r == name {
					return p
				}
			}
		}
	}
	return nil
}

func (d *document) rename(p *param, newName string) error {
	if newName == p.name {
		return nil
	}
	if err := d.checkName(newName); err != nil {
		return err
	}
	for _, list := range [][]*param{d.params, d.model} {
		for _, other := range list {
			rewritten, err := units.Rename(other.expr, p.name, newName)
			if err == nil {
				other.expr = rewritten
			}
		}
	}
	p.name = newName
	return nil
}

func (d *document) remove(p *param) {
	for i, candidate := range d.params {
		if candidate == p {
			d.params = append(d.params[:i], d.params[i+1:]...)
			break
		}
	}
	p.deleted = true
}
