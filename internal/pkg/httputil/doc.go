// Package httputil writes the JSON envelopes shared by every API handler.
// Success bodies pass through as-is; failures use ErrorResponse so clients
// can branch on a stable machine-readable code instead of the message text.
package httputil
