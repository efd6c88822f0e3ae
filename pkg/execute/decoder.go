package execute

import (
	"strings"
	"unicode/utf8"
)

// streamDecoder converts raw subprocess output into complete UTF-8 text.
// A multi-byte character split across two reads is held back until its
// remaining bytes arrive, so no read boundary can corrupt the log.
type streamDecoder struct {
	partial []byte
}

// Decode consumes one chunk and returns the text that is safe to emit now.
// Invalid sequences decode to the replacement character instead of stalling
// the stream.
func (d *streamDecoder) Decode(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	d.partial = append(d.partial, chunk...)
	cut := completePrefixLen(d.partial)
	if cut == 0 {
		return ""
	}
	out := toValidText(d.partial[:cut])
	d.partial = append(d.partial[:0], d.partial[cut:]...)
	return out
}

// Flush returns whatever bytes remain once the stream has ended. An
// incomplete trailing sequence at EOF decodes to replacement characters.
func (d *streamDecoder) Flush() string {
	if len(d.partial) == 0 {
		return ""
	}
	out := toValidText(d.partial)
	d.partial = d.partial[:0]
	return out
}

// completePrefixLen returns the length of the longest prefix of b that ends
// on a rune boundary. At most utf8.UTFMax-1 trailing bytes are ever
// withheld; an invalid sequence counts as complete since it decodes as
// replacement runes, so garbage can never stall the stream.
func completePrefixLen(b []byte) int {
	i := len(b) - 1
	for i >= 0 && len(b)-i < utf8.UTFMax && !utf8.RuneStart(b[i]) {
		i--
	}
	if i < 0 {
		return len(b)
	}
	if utf8.FullRune(b[i:]) {
		return len(b)
	}
	return i
}

func toValidText(b []byte) string {
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
