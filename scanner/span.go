// Package scanner implements the byte-level XML tokenizer: a vectorized
// cursor over a byte buffer that classifies markup constructs and reports
// well-formedness violations in strict mode.
package scanner

// Span references a contiguous region of an input buffer without copying
// it. A Span with Length 0 denotes the empty string at Offset.
type Span struct {
	Offset uint32
	Length uint16
}

// IsEmpty reports whether the span denotes the empty string.
func (s Span) IsEmpty() bool { return s.Length == 0 }

// Slice returns the bytes s refers to within buf.
func (s Span) Slice(buf []byte) []byte {
	return buf[s.Offset : int(s.Offset)+int(s.Length)]
}

func spanOf(start, end int) Span {
	return Span{Offset: uint32(start), Length: uint16(end - start)}
}
