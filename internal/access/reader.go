package access

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineReader reads one UID per line, as printed by keyboard-emulating USB
// RFID readers or typed on stdin. Blank lines are skipped.
type LineReader struct {
	src   io.Reader
	once  sync.Once
	lines chan string
	err   error
}

// NewLineReader creates a reader over r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{src: r, lines: make(chan string)}
}

// ReadUID returns the next UID. It returns io.EOF once r is exhausted and
// ctx.Err() when ctx ends first.
func (r *LineReader) ReadUID(ctx context.Context) (string, error) {
	r.once.Do(func() { go r.scan() })

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-r.lines:
			if !ok {
				if r.err != nil {
					return "", r.err
				}
				return "", io.EOF
			}
			if line = strings.TrimSpace(line); line != "" {
				return line, nil
			}
		}
	}
}

// scan runs until the source ends. A blocked send after the consumer has
// gone keeps the goroutine parked, which matches the lifetime of stdin.
func (r *LineReader) scan() {
	sc := bufio.NewScanner(r.src)
	for sc.Scan() {
		r.lines <- sc.Text()
	}
	r.err = sc.Err()
	close(r.lines)
}
