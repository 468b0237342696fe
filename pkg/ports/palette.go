package ports

import (
	"context"

	"github.com/aretw0/liveparams/pkg/domain"
)

// Palette is the outbound channel to the panel UI.
type Palette interface {
	// Visible reports whether a panel is currently showing.
	// Document activation pushes are skipped when it is not.
	Visible(ctx context.Context) bool

	// Send delivers one message to the panel.
	Send(ctx context.Context, msg domain.Message) error
}
