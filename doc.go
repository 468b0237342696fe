/*
Package liveparams is the core of a live parameter panel for parametric CAD hosts.

A CAD document carries "user parameters": named expressions with units such as
width = 10 mm. The panel lets a user view, create, rename, comment, favorite and
delete them, and edit expressions while the document is open, including while
the host is in the middle of a command or an auto-save.

# Architecture

The host (parameter storage, expression evaluation, recompute) is reached
through the ports.Host interface. Panel actions flow through a session
controller that gates writes while the host is busy, dispatches to the
parameter store adapter, and pushes a full snapshot to the panel after every
mutation so the UI never shows parameters that no longer exist.

	UI action -> session.Controller (busy gate) -> store.Store -> host
	                     |
	                     +-> ports.Palette (update_ui, notification)

A reference in-memory host (pkg/adapters/memory) stands in for a real CAD
application and can be persisted as YAML or JSON (pkg/adapters/file).

# Usage

	host, _ := memory.NewFromSpec(spec)
	palette := memory.NewPalette()

	panel := liveparams.New(host, palette)
	panel.Open(ctx)
	defer panel.Close()

	msgs, err := panel.HandleJSON(ctx, []byte(`{"action":"create_param","name":"Width","unit":"mm","expression":"10"}`))

Transports: pkg/adapters/http serves the panel protocol over HTTP with
server-sent events, pkg/adapters/mcp exposes it to AI agents, and
pkg/adapters/redis fans messages out to several panels and coordinates
replicas.
*/
package liveparams
