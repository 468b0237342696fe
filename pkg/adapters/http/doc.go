// Package http serves the live parameter panel protocol over HTTP.
//
// Panels post actions to /actions and follow /events, a server-sent event
// stream carrying every update_ui and notification message. Action bodies are
// validated against the embedded OpenAPI document before they reach the panel.
package http
