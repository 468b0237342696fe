// Package memory provides an in-memory reference host for the live parameter
// panel: a set of documents with user and model parameters, an active command
// and document activation events. It also provides a recording Palette.
//
// Safe for concurrent use.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/liveparams/internal/units"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
)

// DefaultCommand is the active command of an idle host.
const DefaultCommand = "SelectCommand"

type activationHandler struct {
	id int
	fn func(ctx context.Context, docName string)
}

// Host implements ports.Host in memory.
type Host struct {
	mu       sync.Mutex
	docs     []*document
	active   *document
	command  string
	handlers []activationHandler
	nextID   int
	onChange []func(HostSpec)

	hookMu sync.Mutex // Held across change hooks so they observe mutations in order
}

// Option configures the Host.
type Option func(*Host)

// WithChangeHook registers fn to receive the full host state after every mutation.
func WithChangeHook(fn func(HostSpec)) Option {
	return func(h *Host) {
		h.onChange = append(h.onChange, fn)
	}
}

// WithActiveCommand sets the initial active command.
func WithActiveCommand(cmd string) Option {
	return func(h *Host) {
		h.command = cmd
	}
}

// NewHost creates an idle host with no open documents.
func NewHost(opts ...Option) *Host {
	h := &Host{command: DefaultCommand}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewFromSpec creates a host from a saved state.
// The active document defaults to the first one.
func NewFromSpec(spec HostSpec, opts ...Option) (*Host, error) {
	h := NewHost(opts...)
	st, err := buildState(spec, h.command)
	if err != nil {
		return nil, err
	}
	h.docs, h.active, h.command = st.docs, st.active, st.command
	return h, nil
}

// Replace swaps the whole host state for spec. It neither fires change hooks
// nor activation events: the new state is already persisted elsewhere.
func (h *Host) Replace(spec HostSpec) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, err := buildState(spec, DefaultCommand)
	if err != nil {
		return err
	}
	h.docs, h.active, h.command = st.docs, st.active, st.command
	return nil
}

type state struct {
	docs    []*document
	active  *document
	command string
}

func buildState(spec HostSpec, command string) (state, error) {
	st := state{command: command}
	if spec.ActiveCommand != "" {
		st.command = spec.ActiveCommand
	}
	for _, ds := range spec.Documents {
		if findDocument(st.docs, ds.Name) != nil {
			return state{}, fmt.Errorf("duplicate document %q", ds.Name)
		}
		doc, err := newDocument(ds)
		if err != nil {
			return state{}, fmt.Errorf("document %q: %w", ds.Name, err)
		}
		st.docs = append(st.docs, doc)
	}
	if len(st.docs) > 0 {
		st.active = st.docs[0]
	}
	if spec.ActiveDocument != "" {
		if st.active = findDocument(st.docs, spec.ActiveDocument); st.active == nil {
			return state{}, fmt.Errorf("active document %q not found", spec.ActiveDocument)
		}
	}
	return st, nil
}

func findDocument(docs []*document, name string) *document {
	for _, d := range docs {
		if d.name == name {
			return d
		}
	}
	return nil
}

func (h *Host) find(name string) *document {
	return findDocument(h.docs, name)
}

// Spec returns a copy of the full host state.
func (h *Host) Spec() HostSpec {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.specLocked()
}

func (h *Host) specLocked() HostSpec {
	spec := HostSpec{ActiveCommand: h.command, Documents: []DocumentSpec{}}
	if h.active != nil {
		spec.ActiveDocument = h.active.name
	}
	for _, d := range h.docs {
		spec.Documents = append(spec.Documents, d.spec())
	}
	return spec
}

// mutate runs fn under the lock and notifies change hooks if fn changed something.
// hookMu is taken before mu is released, so hooks see states in mutation order
// and an older state never lands after a newer one. Hooks must not mutate the host.
func (h *Host) mutate(fn func() (bool, error)) error {
	h.mu.Lock()
	changed, err := fn()
	if !changed || len(h.onChange) == 0 {
		h.mu.Unlock()
		return err
	}
	spec := h.specLocked()
	hooks := h.onChange
	h.hookMu.Lock()
	h.mu.Unlock()
	defer h.hookMu.Unlock()

	for _, hook := range hooks {
		hook(spec)
	}
	return err
}

// Open adds a document and activates it.
func (h *Host) Open(ctx context.Context, spec DocumentSpec) error {
	err := h.mutate(func() (bool, error) {
		if h.find(spec.Name) != nil {
			return false, fmt.Errorf("document %q is already open", spec.Name)
		}
		doc, err := newDocument(spec)
		if err != nil {
			return false, err
		}
		h.docs = append(h.docs, doc)
		h.active = doc
		return true, nil
	})
	if err != nil {
		return err
	}
	h.fireActivated(ctx, spec.Name)
	return nil
}

// Activate makes an open document the active one and notifies subscribers.
func (h *Host) Activate(ctx context.Context, name string) error {
	err := h.mutate(func() (bool, error) {
		doc := h.find(name)
		if doc == nil {
			return false, fmt.Errorf("document %q is not open", name)
		}
		h.active = doc
		return true, nil
	})
	if err != nil {
		return err
	}
	h.fireActivated(ctx, name)
	return nil
}

// Close closes a document. If it was active, no document is active afterwards.
func (h *Host) Close(name string) error {
	return h.mutate(func() (bool, error) {
		for i, d := range h.docs {
			if d.name != name {
				continue
			}
			h.docs = append(h.docs[:i], h.docs[i+1:]...)
			if h.active == d {
				h.active = nil
			}
			return true, nil
		}
		return false, fmt.Errorf("document %q is not open", name)
	})
}

// SetActiveCommand changes the command the host reports as running.
func (h *Host) SetActiveCommand(cmd string) {
	_ = h.mutate(func() (bool, error) {
		if h.command == cmd {
			return false, nil
		}
		h.command = cmd
		return true, nil
	})
}

// ActiveDesign implements ports.Host.
func (h *Host) ActiveDesign(ctx context.Context) (ports.Design, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil, domain.ErrNoActiveDocument
	}
	return &design{host: h, doc: h.active}, nil
}

// ActiveCommand implements ports.Host.
func (h *Host) ActiveCommand(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.command, nil
}

// OnDocumentActivated implements ports.Host.
func (h *Host) OnDocumentActivated(fn func(ctx context.Context, docName string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.handlers = append(h.handlers, activationHandler{id: id, fn: fn})
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, ah := range h.handlers {
			if ah.id == id {
				h.handlers = append(h.handlers[:i], h.handlers[i+1:]...)
				return
			}
		}
	}
}

func (h *Host) fireActivated(ctx context.Context, name string) {
	h.mu.Lock()
	handlers := make([]activationHandler, len(h.handlers))
	copy(handlers, h.handlers)
	h.mu.Unlock()

	for _, ah := range handlers {
		ah.fn(ctx, name)
	}
}

// design implements ports.Design for one document.
type design struct {
	host *Host
	doc  *document
}

func (d *design) DocumentName() string {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	return d.doc.name
}

func (d *design) UserParameters() ([]ports.Parameter, error) {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	out := make([]ports.Parameter, 0, len(d.doc.params))
	for _, p := range d.doc.params {
		out = append(out, d.handle(p))
	}
	return out, nil
}

func (d *design) UserParameter(name string) (ports.Parameter, bool) {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	p := d.doc.userParam(name)
	if p == nil {
		return nil, false
	}
	return d.handle(p), true
}

func (d *design) HasParameter(name string) bool {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	return d.doc.anyParam(name) != nil
}

func (d *design) IsValidExpression(expr, unit string) (bool, error) {
	d.host.mu.Lock()
	defer d.host.mu.Unlock()
	err := d.doc.validate(expr, unit)
	if err == nil {
		return true, nil
	}
	if _, known := units.Lookup(unit); !known {
		return false, err
	}
	return false, nil
}

func (d *design) AddUserParameter(name, expr, unit, comment string) (ports.Parameter, error) {
	var created *param
	err := d.host.mutate(func() (bool, error) {
		if err := d.doc.checkName(name); err != nil {
			return false, err
		}
		if err := d.doc.validate(expr, unit); err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadExpression, err)
		}
		created = &param{name: name, expr: expr, unit: unit, comment: comment}
		d.doc.params = append(d.doc.params, created)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return d.handle(created), nil
}

func (d *design) handle(p *param) ports.Parameter {
	base := &parameter{host: d.host, doc: d.doc, p: p}
	if d.doc.favorites {
		return &favoriteParameter{parameter: base}
	}
	return base
}
