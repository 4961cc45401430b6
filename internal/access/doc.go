// Package access provides the door-side collaborators of the access loop:
// the HMAC allowlist that decides who may enter, a line oriented card
// reader and the relay that drives the door strike.
package access
