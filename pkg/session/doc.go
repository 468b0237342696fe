/*
Package session implements the session controller of the live parameter panel.

The controller classifies the host interaction state before every write,
dispatches inbound panel actions to the parameter store, and turns every
outcome into outbound panel messages. Delivery is serialized: an internal
mutex mirrors the single callback thread of the host, and an optional
distributed lock extends that to several controllers attached to the same
host document.
*/
package session
