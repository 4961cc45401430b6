// Package main provides the entry point for gatecam.
//
// gatecam runs the door controller daemon (`gatecam run`) and the
// operator commands around it: remote photo capture, enrollment of card
// UIDs, audit log export and inspection of a running daemon.
package main
