// Package command defines the gatecam command line on urfave/cli/v2.
//
// Commands that touch the camera open their own broker connection unless
// --server points them at a running daemon, in which case they go through
// its HTTP API.
package command
