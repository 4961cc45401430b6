// Package photo persists reassembled camera photos.
//
// Files are named after the capture's correlation id:
//
//	photo_<id>.jpg           complete capture
//	photo_<id>_partial.jpg   payload length disagreed with the announced total
//
// When an encryption key is configured the file is sealed with
// pkg/crypto/adaptive, bound to its correlation id, and gets a ".sealed"
// suffix. Writes are atomic.
package photo
