package memory

import (
	"context"
	"sync"

	"github.com/aretw0/liveparams/pkg/domain"
)

// Palette implements ports.Palette by recording every message.
// It is used by tests and by one-shot CLI runs that print the outcome.
type Palette struct {
	mu       sync.Mutex
	visible  bool
	messages []domain.Message
}

// NewPalette creates a visible recording palette.
func NewPalette() *Palette {
	return &Palette{visible: true}
}

// SetVisible shows or hides the palette.
func (p *Palette) SetVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = visible
}

// Visible implements ports.Palette.
func (p *Palette) Visible(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Send implements ports.Palette.
func (p *Palette) Send(ctx context.Context, msg domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// Messages returns a copy of the recorded messages.
func (p *Palette) Messages() []domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Message, len(p.messages))
	copy(out, p.messages)
	return out
}

// Reset drops the recorded messages.
func (p *Palette) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}
