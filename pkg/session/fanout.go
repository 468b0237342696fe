package session

import (
	"context"
	"errors"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/ports"
)

// Fanout is a Palette that forwards every message to several palettes.
// It is visible when any of them is.
type Fanout []ports.Palette

// Visible implements ports.Palette.
func (f Fanout) Visible(ctx context.Context) bool {
	for _, p := range f {
		if p.Visible(ctx) {
			return true
		}
	}
	return false
}

// Send implements ports.Palette. Every palette receives the message even if an earlier one fails.
func (f Fanout) Send(ctx context.Context, msg domain.Message) error {
	var errs []error
	for _, p := range f {
		if err := p.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
