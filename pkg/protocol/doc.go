/*
Package protocol is the wire codec between the panel UI and the session controller.

Inbound messages are JSON objects naming an action:

	{"action": "update_param", "name": "Width", "value": "12 mm"}

They decode into the closed set of domain.Request types. Outbound messages are
encoded as {"channel": ..., "payload": ...} envelopes.
*/
package protocol
