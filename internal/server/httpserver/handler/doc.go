// Package handler implements the HTTP endpoints of gatecam. Responses use
// a common JSON envelope carrying a code, a message and the request id.
package handler
