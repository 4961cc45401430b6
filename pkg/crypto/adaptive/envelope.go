package adaptive

import (
	"bytes"
	"errors"
	"fmt"
)

// Envelope layout: magic (4) | algorithm id (1) | Encrypt output.
var magic = []byte("GCS1")

const (
	idAESGCM   byte = 1
	idChaCha20 byte = 2
)

// ErrNotSealed is returned by Open for data without the envelope header.
var ErrNotSealed = errors.New("adaptive: not a sealed envelope")

// Seal encrypts plaintext with c and wraps it in an envelope.
func Seal(c Cipher, plaintext, additionalData []byte) ([]byte, error) {
	var id byte
	switch c.Type() {
	case CipherAESGCM:
		id = idAESGCM
	case CipherChaCha20:
		id = idChaCha20
	default:
		return nil, fmt.Errorf("adaptive: cannot seal with %q", c.Type())
	}

	ct, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(magic)+1+len(ct))
	out = append(out, magic...)
	out = append(out, id)
	return append(out, ct...), nil
}

// Open decrypts an envelope produced by Seal with the same key.
func Open(key, sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < len(magic)+1 || !bytes.Equal(sealed[:len(magic)], magic) {
		return nil, ErrNotSealed
	}

	var typ CipherType
	switch sealed[len(magic)] {
	case idAESGCM:
		typ = CipherAESGCM
	case idChaCha20:
		typ = CipherChaCha20
	default:
		return nil, fmt.Errorf("adaptive: unknown algorithm id %d", sealed[len(magic)])
	}

	c, err := NewWithType(key, typ)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(sealed[len(magic)+1:], additionalData)
}
