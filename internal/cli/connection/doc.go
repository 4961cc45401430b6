// Package connection is the client side of the gatecam HTTP API, used by
// commands that talk to a running daemon instead of opening its stores.
package connection
