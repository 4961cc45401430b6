package reassembly

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/yndnr/gatecam/internal/core/domain"
)

// ChunkSet accumulates fragments of one payload.
type ChunkSet struct {
	expected int
	chunks   map[int]string
}

// New creates an empty ChunkSet.
func New() *ChunkSet {
	return &ChunkSet{chunks: make(map[int]string)}
}

// Start clears collected fragments and records the declared total length.
func (c *ChunkSet) Start(total int) {
	clear(c.chunks)
	c.expected = total
}

// Reset clears fragments and the declared total.
func (c *ChunkSet) Reset() {
	c.Start(0)
}

// Put stores the fragment at offset. It reports whether an earlier fragment
// at the same offset was replaced.
func (c *ChunkSet) Put(offset int, data string) bool {
	_, replaced := c.chunks[offset]
	c.chunks[offset] = data
	return replaced
}

// Len returns the number of distinct offsets collected.
func (c *ChunkSet) Len() int {
	return len(c.chunks)
}

// Expected returns the total length declared by the start message.
func (c *ChunkSet) Expected() int {
	return c.expected
}

// Result is the outcome of Assemble.
type Result struct {
	// Encoded is the concatenation of valid fragments in offset order.
	Encoded string

	// Decoded is the binary payload; partial when Errors is non-empty.
	Decoded []byte

	Expected int
	Got      int
	Chunks   int

	// Errors holds one *domain.DomainError per malformed fragment and one
	// for a payload that could not be decoded in full.
	Errors []error
}

// Empty reports whether no fragments were collected.
func (r Result) Empty() bool {
	return r.Chunks == 0
}

// LengthMismatch reports whether the reassembled length differs from the
// declared total.
func (r Result) LengthMismatch() bool {
	return r.Got != r.Expected
}

// Assemble concatenates the collected fragments in ascending offset order
// and decodes them. The ChunkSet is left unchanged.
func (c *ChunkSet) Assemble() Result {
	res := Result{
		Expected: c.expected,
		Chunks:   len(c.chunks),
	}
	if len(c.chunks) == 0 {
		return res
	}

	var sb strings.Builder
	for _, offset := range slices.Sorted(maps.Keys(c.chunks)) {
		fragment := c.chunks[offset]
		if pos := invalidBase64Index(fragment); pos >= 0 {
			res.Errors = append(res.Errors, domain.ErrFragmentDecode.WithDetails(
				fmt.Sprintf("offset %d: illegal character %q at %d", offset, fragment[pos], pos)))
			continue
		}
		sb.WriteString(fragment)
	}

	res.Encoded = sb.String()
	res.Got = len(res.Encoded)

	decoded, errs := decodeTolerant(res.Encoded)
	res.Decoded = decoded
	res.Errors = append(res.Errors, errs...)
	return res
}

// decodeTolerant decodes standard base64 with or without padding and keeps
// the longest decodable prefix when the input is corrupt.
func decodeTolerant(text string) ([]byte, []error) {
	var errs []error

	s := strings.TrimRight(text, "=")
	if len(s)%4 == 1 {
		errs = append(errs, domain.ErrFragmentDecode.WithDetails(
			fmt.Sprintf("dangling character at %d", len(s)-1)))
		s = s[:len(s)-1]
	}

	out, err := base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return out, errs
	}

	errs = append(errs, domain.ErrFragmentDecode.WithDetails("payload").WithCause(err))

	var corrupt base64.CorruptInputError
	if !errors.As(err, &corrupt) {
		return nil, errs
	}
	prefix := int(corrupt) / 4 * 4
	out, err = base64.RawStdEncoding.DecodeString(s[:prefix])
	if err != nil {
		return nil, errs
	}
	return out, errs
}

// invalidBase64Index returns the index of the first byte outside the
// standard base64 alphabet, or -1.
func invalidBase64Index(s string) int {
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch {
		case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		case b == '+', b == '/', b == '=':
		default:
			return i
		}
	}
	return -1
}
