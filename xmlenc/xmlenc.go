// Package xmlenc sniffs and normalizes raw XML input into the UTF-8,
// LF-only byte buffer the scanner requires. It detects a leading BOM or a
// declared `encoding=` attribute, transcodes UTF-16 input to UTF-8 using
// golang.org/x/text/encoding/unicode (the same encoding-conversion family
// the pack's antchfx/xmlquery wires through golang.org/x/net/html/charset's
// CharsetReader), and folds CRLF/CR line endings to LF per XML 1.0 §2.11.
package xmlenc

import (
	"bytes"
	"fmt"
	"regexp"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var declEncodingRe = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)

// Result is the outcome of Normalize: the UTF-8, line-ending-normalized
// buffer ready for the scanner, plus the encoding name that was detected or
// declared (for Document.Encoding()).
type Result struct {
	Data     []byte
	Encoding string
}

// Normalize detects the input's encoding (BOM, then the zero-byte pattern
// XML 1.0 Appendix F describes for un-BOM'd UTF-16, then a declared
// encoding="..." attribute in the XML declaration, defaulting to UTF-8),
// transcodes to UTF-8 if needed, and normalizes line endings.
func Normalize(data []byte) (Result, error) {
	enc, body, name := sniffBOM(data)
	if enc == nil && name == "" {
		enc, body, name = sniffImplicitUTF16(data)
	}
	declared := name
	if enc == nil && name == "" {
		declared = sniffDeclaredEncoding(body)
		e, err := encodingByName(declared)
		if err != nil {
			return Result{}, err
		}
		enc = e
	}

	utf8Data := body
	if enc != nil {
		decoded, err := enc.NewDecoder().Bytes(body)
		if err != nil {
			return Result{}, fmt.Errorf("xmlenc: transcoding to UTF-8: %w", err)
		}
		utf8Data = decoded
	}

	if declared == "" {
		declared = "UTF-8"
	}
	return Result{Data: normalizeLineEndings(utf8Data), Encoding: declared}, nil
}

// sniffBOM inspects the first bytes of data for a UTF-16 or UTF-8 byte
// order mark, returning the encoding to use (nil for a bare UTF-8 BOM,
// since no transcoding is needed beyond stripping it), the remaining body
// with the BOM stripped, and a human-readable encoding name. Returns a nil
// encoding and empty name when no BOM is present.
func sniffBOM(data []byte) (enc encoding.Encoding, body []byte, name string) {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return nil, data[3:], "UTF-8"
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data[2:], "UTF-16LE"
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data[2:], "UTF-16BE"
	}
	return nil, data, ""
}

// sniffImplicitUTF16 recognizes UTF-16 input with no BOM by the zero-byte
// pattern of its first two bytes: '<' is ASCII-range, so one of every pair
// of bytes in "<?xml" is 0x00. This is the same autodetection XML 1.0
// Appendix F describes for BOM-less UTF-16 documents. Declared-encoding
// sniffing can't help here, since the declaration text itself is only
// readable after this same transcoding is applied.
func sniffImplicitUTF16(data []byte) (enc encoding.Encoding, body []byte, name string) {
	switch {
	case len(data) >= 2 && data[0] == 0x00 && data[1] == '<':
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), data, "UTF-16BE"
	case len(data) >= 2 && data[0] == '<' && data[1] == 0x00:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), data, "UTF-16LE"
	}
	return nil, data, ""
}

// sniffDeclaredEncoding scans the leading bytes of body (up to the first
// "?>" or a generous cap, whichever comes first) for an encoding="..."
// attribute in the XML declaration. Called only once the input is already
// known to be ASCII-compatible in its low byte range (no BOM, no implicit
// UTF-16 zero-byte pattern), so a byte-level regex scan is safe.
func sniffDeclaredEncoding(body []byte) string {
	limit := 200
	if len(body) < limit {
		limit = len(body)
	}
	head := body[:limit]
	if end := bytes.Index(head, []byte("?>")); end >= 0 {
		head = body[:end]
	}
	m := declEncodingRe.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// encodingByName maps a declared encoding label to a transcoding
// implementation. Only the UTF-16 family needs transcoding; UTF-8 (and an
// absent declaration, which XML 1.0 defaults to UTF-8) passes through
// untouched. Any other label is reported as an unsupported encoding.
func encodingByName(name string) (encoding.Encoding, error) {
	switch normalizeLabel(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	}
	return nil, fmt.Errorf("xmlenc: unsupported declared encoding %q", name)
}

func normalizeLabel(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}

// normalizeLineEndings folds CRLF and bare CR to LF per XML 1.0 §2.11,
// which requires every XML processor to normalize line endings before any
// other processing.
func normalizeLineEndings(data []byte) []byte {
	if bytes.IndexByte(data, '\r') < 0 {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\r' {
			out = append(out, '\n')
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			continue
		}
		out = append(out, c)
	}
	return out
}
