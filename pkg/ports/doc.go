/*
Package ports defines the driven ports (interfaces) of the live parameter panel.

These interfaces decouple the session controller and the store adapter from
the host application and from the UI transport, so the same core runs against
a real CAD host bridge, the in-memory reference host, HTTP/SSE, Redis or MCP.

# Key Interfaces

  - Host: The CAD application (active design, active command, activation events).
  - Design / Parameter: The host's parameter object model.
  - Favoriter: Optional capability for hosts that support favorite parameters.
  - Palette: The outbound channel to the panel UI.
  - DistributedLocker: Serializes event delivery across processes sharing a host.
*/
package ports
