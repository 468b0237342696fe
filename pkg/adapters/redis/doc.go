// Package redis connects panels and controllers through Redis.
//
// Palette publishes panel messages on a pub/sub channel so any number of
// panels, possibly on other machines, receive the same stream. Locker lets
// several controllers attached to one host document take turns.
package redis
