package scanner

import "unicode/utf8"

// nameStartTable/nameTable are ASCII fast-path lookup tables for the XML
// 1.0 Fifth Edition NameStartChar/NameChar productions. Non-ASCII bytes
// fall back to the codepoint-range checks below.
var nameStartTable [128]bool
var nameTable [128]bool

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		nameStartTable[c] = true
		nameTable[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		nameStartTable[c] = true
		nameTable[c] = true
	}
	nameStartTable[':'] = true
	nameStartTable['_'] = true
	nameTable[':'] = true
	nameTable['_'] = true
	nameTable['-'] = true
	nameTable['.'] = true
	for c := '0'; c <= '9'; c++ {
		nameTable[c] = true
	}
}

// isNameStartRune reports whether r may begin a Name, per the XML 1.0
// Fifth Edition NameStartChar production (ASCII letters/':'/'_' plus the
// principal non-ASCII letter ranges).
func isNameStartRune(r rune) bool {
	switch {
	case r < 0x80:
		return nameStartTable[r]
	case r == 0xB7:
		return false
	case r >= 0xC0 && r <= 0xD6:
		return true
	case r >= 0xD8 && r <= 0xF6:
		return true
	case r >= 0xF8 && r <= 0x2FF:
		return true
	case r >= 0x370 && r <= 0x37D:
		return true
	case r >= 0x37F && r <= 0x1FFF:
		return true
	case r >= 0x200C && r <= 0x200D:
		return true
	case r >= 0x2070 && r <= 0x218F:
		return true
	case r >= 0x2C00 && r <= 0x2FEF:
		return true
	case r >= 0x3001 && r <= 0xD7FF:
		return true
	case r >= 0xF900 && r <= 0xFDCF:
		return true
	case r >= 0xFDF0 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0xEFFFF:
		return true
	}
	return false
}

// isNameRune reports whether r may continue a Name (NameChar production).
func isNameRune(r rune) bool {
	if r < 0x80 {
		return nameTable[r]
	}
	switch {
	case r == 0xB7, r == 0x387:
		return true
	case r >= 0x0300 && r <= 0x036F:
		return true
	case r >= 0x203F && r <= 0x2040:
		return true
	}
	return isNameStartRune(r)
}

// isDelimiterByte reports whether c ends a name in lenient mode: whitespace
// and the bytes that structurally terminate a name token (tag close,
// self-close, attribute '=').
func isDelimiterByte(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '=', '>', '/':
		return true
	}
	return false
}

// scanName reads a Name starting at data[pos] and returns the end offset.
// strict enforces the full NameStartChar/NameChar productions. lenient
// never rejects on character-class grounds: it accepts any run of bytes up
// to the next structural delimiter, so malformed names recover instead of
// aborting the parse, per spec 4.1.
func scanName(data []byte, pos int, strict bool) (end int, ok bool) {
	start := pos
	if !strict {
		for pos < len(data) && !isDelimiterByte(data[pos]) {
			pos++
		}
		if pos == start {
			return pos, false
		}
		return pos, true
	}
	r, size := utf8.DecodeRune(data[pos:])
	if r == utf8.RuneError && size <= 1 {
		return pos, false
	}
	if !isNameStartRune(r) {
		return pos, false
	}
	pos += size
	for pos < len(data) {
		r, size := utf8.DecodeRune(data[pos:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		if !isNameRune(r) {
			break
		}
		pos += size
	}
	if pos == start {
		return pos, false
	}
	return pos, true
}

// splitPrefix splits a qualified name "prefix:local" into its prefix and
// local-name spans using the name's bytes in buf. If there is no colon,
// prefix is the zero Span and local is name unchanged.
func splitPrefix(buf []byte, name Span) (prefix, local Span) {
	raw := name.Slice(buf)
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			prefix = spanOf(int(name.Offset), int(name.Offset)+i)
			local = spanOf(int(name.Offset)+i+1, int(name.Offset)+int(name.Length))
			return prefix, local
		}
	}
	return Span{}, name
}
