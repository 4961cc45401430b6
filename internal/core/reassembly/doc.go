// Package reassembly rebuilds a chunked base64 payload.
//
// A ChunkSet collects offset to fragment pairs for a single correlation id.
// Fragments may arrive in any order and duplicate offsets overwrite earlier
// ones. Assemble concatenates fragments in ascending offset order and decodes
// the result, tolerating malformed input: bad fragments are skipped and the
// longest decodable prefix of the payload is kept, with every problem
// reported as a decode error.
//
// ChunkSet is not safe for concurrent use; the capture session guards it.
package reassembly
