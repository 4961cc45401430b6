// Package protocol defines the camera capture wire protocol.
//
// A capture is requested by publishing the correlation id as plain text on
// the command topic. The camera answers on three topics, each message a JSON
// object carrying the correlation id in its "timestamp" field:
//
//	start  {"timestamp": "...", "total": 12345}
//	chunk  {"timestamp": "...", "offset": 0, "data": "<base64 fragment>"}
//	end    {"timestamp": "..."}
//
// Offsets and totals count characters of the base64 text, not decoded bytes.
package protocol
