package scanner

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// isLegalXMLChar reports whether r is a legal XML 1.0 character, per the
// Char production: #x9, #xA, #xD, #x20-#xD7FF, #xE000-#xFFFD,
// #x10000-#x10FFFF.
func isLegalXMLChar(r rune) bool {
	switch {
	case r == 0x9, r == 0xA, r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// DecodeEntities expands the five predefined entities and numeric
// character references in src, appending to dst. strict rejects unknown
// entity references and illegal character references; lenient preserves
// unrecognized references verbatim. Grounded on gosax.Unescape's
// scan-and-compact technique, generalized to not require in-place mutation
// so it can target a separate output buffer for on-demand decoding.
func DecodeEntities(dst []byte, src []byte, strict bool) ([]byte, error) {
	i := 0
	for i < len(src) {
		amp := bytes.IndexByte(src[i:], '&')
		if amp < 0 {
			dst = append(dst, src[i:]...)
			break
		}
		dst = append(dst, src[i:i+amp]...)
		i += amp

		semi := -1
		limit := i + 12
		if limit > len(src) {
			limit = len(src)
		}
		for j := i + 1; j < limit; j++ {
			if src[j] == ';' {
				semi = j
				break
			}
		}
		if semi < 0 {
			if strict {
				return nil, newErr(InvalidCharRef, i, "unterminated entity reference")
			}
			dst = append(dst, src[i])
			i++
			continue
		}
		ref := src[i+1 : semi]
		if len(ref) > 0 && ref[0] == '#' {
			r, err := decodeCharRef(ref)
			if err != nil || !isLegalXMLChar(r) {
				if strict {
					return nil, newErr(InvalidCharRef, i, "invalid character reference &%s;", ref)
				}
				dst = append(dst, src[i:semi+1]...)
				i = semi + 1
				continue
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			dst = append(dst, buf[:n]...)
			i = semi + 1
			continue
		}
		if repl, ok := predefinedEntity(ref); ok {
			dst = append(dst, repl)
			i = semi + 1
			continue
		}
		if strict {
			return nil, newErr(InvalidCharRef, i, "unknown entity reference &%s;", ref)
		}
		dst = append(dst, src[i:semi+1]...)
		i = semi + 1
	}
	return dst, nil
}

func predefinedEntity(name []byte) (byte, bool) {
	switch string(name) {
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	case "amp":
		return '&', true
	case "apos":
		return '\'', true
	case "quot":
		return '"', true
	}
	return 0, false
}

func decodeCharRef(ref []byte) (rune, error) {
	if len(ref) < 2 {
		return 0, errIncomplete
	}
	var v uint64
	var err error
	if ref[1] == 'x' || ref[1] == 'X' {
		v, err = strconv.ParseUint(string(ref[2:]), 16, 32)
	} else {
		v, err = strconv.ParseUint(string(ref[1:]), 10, 32)
	}
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}
