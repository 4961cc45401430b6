// Package adaptive provides authenticated encryption with hardware-aware
// algorithm selection.
//
// Supported algorithms:
//
//   - AES-256-GCM: chosen where the CPU accelerates AES (amd64, arm64)
//   - ChaCha20-Poly1305: chosen everywhere else, e.g. 32-bit ARM boards
//
// Seal produces a self-describing envelope (magic, algorithm id, nonce,
// ciphertext), so data sealed on one machine opens on any other holding
// the key regardless of which algorithm that machine would pick.
//
// Usage:
//
//	key, err := adaptive.ParseKey(hexKey)
//	c, err := adaptive.New(key)
//	sealed, err := adaptive.Seal(c, plaintext, aad)
//	plaintext, err := adaptive.Open(key, sealed, aad)
package adaptive
