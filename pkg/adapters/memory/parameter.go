package memory

import (
	"fmt"
)

// parameter implements ports.Parameter.
type parameter struct {
	host *Host
	doc  *document
	p    *param
}

func (p *parameter) Name() string {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	return p.p.name
}

func (p *parameter) SetName(name string) error {
	return p.host.mutate(func() (bool, error) {
		if p.p.deleted {
			return false, ErrDeleted
		}
		if err := p.doc.rename(p.p, name); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (p *parameter) Expression() string {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	return p.p.expr
}

func (p *parameter) SetExpression(expr string) error {
	return p.host.mutate(func() (bool, error) {
		if p.p.deleted {
			return false, ErrDeleted
		}
		previous := p.p.expr
		p.p.expr = expr
		if _, err := p.doc.value(p.p); err != nil {
			p.p.expr = previous
			return false, fmt.Errorf("%w: %v", ErrBadExpression, err)
		}
		return true, nil
	})
}

func (p *parameter) Value() (float64, error) {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	if p.p.deleted {
		return 0, ErrDeleted
	}
	return p.doc.value(p.p)
}

func (p *parameter) Unit() string {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	return p.p.unit
}

func (p *parameter) Comment() string {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	return p.p.comment
}

func (p *parameter) SetComment(comment string) error {
	return p.host.mutate(func() (bool, error) {
		if p.p.deleted {
			return false, ErrDeleted
		}
		p.p.comment = comment
		return true, nil
	})
}

// DeleteMe refuses while another parameter references this one.
func (p *parameter) DeleteMe() (bool, error) {
	deleted := false
	err := p.host.mutate(func() (bool, error) {
		if p.p.deleted {
			return false, ErrDeleted
		}
		if p.doc.referencedBy(p.p.name) != nil {
			return false, nil
		}
		p.doc.remove(p.p)
		deleted = true
		return true, nil
	})
	return deleted, err
}

// favoriteParameter adds ports.Favoriter for documents that support favorites.
type favoriteParameter struct {
	*parameter
}

func (p *favoriteParameter) IsFavorite() bool {
	p.host.mu.Lock()
	defer p.host.mu.Unlock()
	return p.p.favorite
}

func (p *favoriteParameter) SetFavorite(favorite bool) error {
	return p.host.mutate(func() (bool, error) {
		if p.p.deleted {
			return false, ErrDeleted
		}
		p.p.favorite = favorite
		return true, nil
	})
}
