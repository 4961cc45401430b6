// Package httpserver provides the operator HTTP surface of gatecam.
//
// Routes are served by a chi router:
//
//	GET  /healthz     liveness plus broker connection and capture state
//	GET  /metrics     Prometheus exposition
//	GET  /v1/audit    most recent audit records, newest first
//	POST /v1/captures operator-triggered capture without a subject
//
// Every request passes through Recover, RequestID and AccessLog. The
// capture trigger can additionally be restricted by a network ACL.
package httpserver
