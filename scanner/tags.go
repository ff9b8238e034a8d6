package scanner

// ParseStartTag extracts an element's name and self-closing flag from a raw
// TokStartTag span, without attribute parsing or well-formedness checks.
// Used by the streaming parser, which drives scanner.Lexer directly at a
// lower validation level than the full Scanner affords mid-feed.
func ParseStartTag(buf []byte, raw Span) (name Span, isEmpty bool, ok bool) {
	start := int(raw.Offset) + 1
	end := int(raw.Offset) + int(raw.Length)
	if end-start < 2 {
		return Span{}, false, false
	}
	isEmpty = buf[end-2] == '/'
	tagEnd := end - 1
	if isEmpty {
		tagEnd--
	}
	nameEnd, ok := scanName(buf, start, false)
	if !ok || nameEnd > tagEnd {
		return Span{}, false, false
	}
	return spanOf(start, nameEnd), isEmpty, true
}

// ParseEndTagName extracts the element name from a raw TokEndTag span.
func ParseEndTagName(buf []byte, raw Span) (name Span, ok bool) {
	start := int(raw.Offset) + 2
	end := int(raw.Offset) + int(raw.Length) - 1
	for start < end && isSpace(buf[start]) {
		start++
	}
	nameEnd := end
	for nameEnd > start && isSpace(buf[nameEnd-1]) {
		nameEnd--
	}
	if nameEnd <= start {
		return Span{}, false
	}
	return spanOf(start, nameEnd), true
}
