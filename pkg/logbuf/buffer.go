// Package logbuf implements the append-only log buffer shared between the
// active run and its pollers.
package logbuf

import "sync"

// Buffer is a monotonically growing text log. Exactly one writer (the
// active run or action) appends; any number of readers take consistent
// snapshots. Offsets are byte positions in the accumulated text; appends
// are whole, decoded text, so every offset handed out lies on a rune
// boundary.
type Buffer struct {
	mu   sync.Mutex
	data []byte
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds text to the end of the buffer. Every append strictly
// increases the length; there are no retroactive edits.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, text...)
}

// Snapshot returns the full accumulated text and its length. The pair is
// consistent: no in-flight append is ever partially visible.
func (b *Buffer) Snapshot() (string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data), len(b.data)
}

// Since returns the text between offset and the current end of the buffer.
// Offsets beyond the end clamp to empty, negative offsets clamp to zero, so
// a poller with a stale offset from an earlier run self-corrects.
func (b *Buffer) Since(offset int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.data) {
		return ""
	}
	return string(b.data[offset:])
}

// Len returns the current length of the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Reset clears the buffer, starting a new log epoch. Called only when a new
// run begins; offsets handed out before a reset are clamped by Since.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}
