// Package service provides the gatecam domain services.
//
// Services hold the business logic and define interfaces for their
// collaborators (transport, photo store, audit sink, card reader, relay),
// so storage and hardware are injected and replaced by fakes in tests.
//
// This package contains:
//
//   - CaptureService: the capture session state machine. It publishes a
//     capture command, reassembles the camera's chunked reply and resolves
//     each attempt on the end message or the timeout.
//   - AccessService: card read handling. It authorizes the UID, pulses the
//     relay for authorized cards and captures a photo for every read.
//
// CaptureService allows one attempt in flight; concurrent callers queue.
package service
