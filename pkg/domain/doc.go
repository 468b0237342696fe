/*
Package domain contains the core types of the live parameter panel.

It defines what flows between the panel UI, the session controller and the
parameter store adapter. This package is kept pure and free of I/O, following
Hexagonal Architecture principles: the host application and the UI transport
are reached only through the interfaces in package ports.

# Key Entities

  - Parameter: A named, unit-bearing expression as read from the host.
  - Snapshot: The ordered parameter table of the active document.
  - Request: The closed set of inbound UI actions (refresh, update, create...).
  - Message: An outbound synchronization message (update_ui or notification).
  - SafetyState: Whether the host is idle or busy for the current action.
*/
package domain
