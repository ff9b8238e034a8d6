package scanner

import "bytes"

// Mode selects well-formedness enforcement level.
type Mode int

const (
	Strict Mode = iota
	Lenient
)

// Attr is one parsed attribute: its (possibly prefixed) name and value
// spans, plus whether the value contains '&' and needs entity decoding.
type Attr struct {
	Name        Span
	Prefix      Span
	Value       Span
	NeedsDecode bool
}

// Handler receives structural events in document order. Implementations
// are the Index Builder (4.3) and the SAX Collector (4.5).
type Handler interface {
	StartElement(name, prefix Span, attrs []Attr, isEmpty bool) error
	EndElement(name, prefix Span) error
	Text(span Span, needsDecode bool) error
	CData(span Span) error
	Comment(span Span) error
	ProcessingInstruction(target Span, data Span, hasData bool) error
	XMLDeclaration(attrs []Attr) error
	DoctypeSeen() error
}

type openTag struct {
	name   Span
	prefix Span
}

// Scanner is the full well-formedness-checking tokenizer: it wraps a Lexer
// with name/attribute parsing, entity-reference validation, and the
// open-element stack used to detect tag mismatches. It always runs over a
// complete, non-growing buffer (one-shot parse); the streaming parser uses
// Lexer directly instead, since it cannot afford full validation mid-feed.
type Scanner struct {
	buf        []byte
	lex        *Lexer
	mode       Mode
	stack      []openTag
	sawRoot    bool
	sawDoctype bool
	attrBuf    []Attr
}

// New creates a Scanner over a complete input buffer.
func New(buf []byte, mode Mode) *Scanner {
	return &Scanner{buf: buf, lex: NewLexer(buf), mode: mode}
}

// SawDoctype reports whether a DOCTYPE declaration was encountered.
func (s *Scanner) SawDoctype() bool { return s.sawDoctype }

func (s *Scanner) strict() bool { return s.mode == Strict }

// Run drives the scanner to completion, dispatching every event to h. It
// returns the first well-formedness error encountered in strict mode. In
// lenient mode it skips the name-character, comment-content, ']]>'-in-text,
// entity-reference, duplicate-attribute, single-root and declaration/DOCTYPE
// placement checks and closes still-open elements at end of input; it still
// fails on mismatched end tags, truncated or unterminated markup, empty
// names, and malformed attribute syntax.
func (s *Scanner) Run(h Handler) error {
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return err
		}
		switch tok.Kind {
		case TokEOF:
			return s.finish(h)
		case TokText:
			if err := s.handleText(h, tok.Raw); err != nil {
				return err
			}
		case TokStartTag:
			if err := s.handleStartTag(h, tok.Raw); err != nil {
				return err
			}
		case TokEndTag:
			if err := s.handleEndTag(h, tok.Raw); err != nil {
				return err
			}
		case TokComment:
			if err := s.handleComment(h, tok.Raw); err != nil {
				return err
			}
		case TokCData:
			if err := s.handleCData(h, tok.Raw); err != nil {
				return err
			}
		case TokPI:
			if err := s.handlePI(h, tok.Raw); err != nil {
				return err
			}
		case TokDoctype:
			s.sawDoctype = true
			if s.strict() && s.sawRoot {
				return newErr(BadDoctype, int(tok.Raw.Offset), "DOCTYPE must precede the root element")
			}
			if err := h.DoctypeSeen(); err != nil {
				return err
			}
		}
	}
}

func (s *Scanner) finish(h Handler) error {
	if len(s.stack) > 0 {
		if s.strict() {
			top := s.stack[len(s.stack)-1]
			return newErr(UnclosedTag, int(top.name.Offset), "unclosed element %q", string(top.name.Slice(s.buf)))
		}
		// Lenient: synthesize closes for any still-open elements, deepest first.
		for i := len(s.stack) - 1; i >= 0; i-- {
			if err := h.EndElement(s.stack[i].name, s.stack[i].prefix); err != nil {
				return err
			}
		}
		s.stack = nil
	}
	return nil
}

func (s *Scanner) handleText(h Handler, raw Span) error {
	text := raw.Slice(s.buf)
	if s.strict() {
		if bytes.Contains(text, []byte("]]>")) {
			return newErr(ForbiddenSequence, int(raw.Offset), "']]>' not allowed in character data")
		}
		if err := validateEntityRefs(text, int(raw.Offset)); err != nil {
			return err
		}
	}
	needsDecode := bytes.IndexByte(text, '&') >= 0
	return h.Text(raw, needsDecode)
}

func (s *Scanner) handleCData(h Handler, raw Span) error {
	inner := spanOf(int(raw.Offset)+9, int(raw.Offset)+int(raw.Length)-3)
	return h.CData(inner)
}

func (s *Scanner) handleComment(h Handler, raw Span) error {
	inner := spanOf(int(raw.Offset)+4, int(raw.Offset)+int(raw.Length)-3)
	if s.strict() {
		body := inner.Slice(s.buf)
		if bytes.Contains(body, []byte("--")) {
			return newErr(BadComment, int(raw.Offset), "'--' not allowed inside a comment")
		}
	}
	return h.Comment(inner)
}

func (s *Scanner) handlePI(h Handler, raw Span) error {
	start := int(raw.Offset) + 2
	end := int(raw.Offset) + int(raw.Length) - 2
	nameEnd, ok := scanName(s.buf, start, s.strict())
	if !ok || nameEnd > end {
		return newErr(BadName, start, "invalid processing-instruction target")
	}
	target := spanOf(start, nameEnd)
	targetStr := string(target.Slice(s.buf))

	dataStart := nameEnd
	for dataStart < end && isSpace(s.buf[dataStart]) {
		dataStart++
	}
	hasData := dataStart < end
	data := spanOf(dataStart, end)

	if targetStr == "xml" {
		if s.strict() && raw.Offset != 0 {
			return newErr(MalformedMarkup, int(raw.Offset), "xml declaration must be the first construct in the document")
		}
		attrs, err := s.parseAttrs(data.Slice(s.buf), dataStart)
		if err != nil {
			return err
		}
		if s.strict() {
			if err := validateXMLDecl(s.buf, attrs); err != nil {
				return err
			}
		}
		return h.XMLDeclaration(attrs)
	}
	if s.strict() && equalFold(targetStr, "xml") {
		return newErr(MalformedMarkup, start, "processing-instruction target %q is reserved", targetStr)
	}
	return h.ProcessingInstruction(target, data, hasData)
}

func validateXMLDecl(buf []byte, attrs []Attr) error {
	for _, a := range attrs {
		if string(a.Name.Slice(buf)) == "standalone" {
			v := string(a.Value.Slice(buf))
			if v != "yes" && v != "no" {
				return newErr(MalformedMarkup, int(a.Value.Offset), "standalone must be 'yes' or 'no', got %q", v)
			}
		}
	}
	return nil
}

func (s *Scanner) handleStartTag(h Handler, raw Span) error {
	start := int(raw.Offset) + 1
	end := int(raw.Offset) + int(raw.Length)
	isEmpty := s.buf[end-2] == '/'
	tagEnd := end - 1
	if isEmpty {
		tagEnd--
	}

	nameEnd, ok := scanName(s.buf, start, s.strict())
	if !ok {
		return newErr(BadName, start, "invalid element name")
	}
	name := spanOf(start, nameEnd)
	prefix, local := splitPrefix(s.buf, name)
	_ = local

	attrs, err := s.parseAttrs(s.buf[nameEnd:tagEnd], nameEnd)
	if err != nil {
		return err
	}
	if s.strict() {
		if err := checkDuplicateAttrs(s.buf, attrs); err != nil {
			return err
		}
	}

	if s.strict() && len(s.stack) == 0 {
		if s.sawRoot {
			return newErr(MalformedMarkup, start, "multiple root elements")
		}
	}
	s.sawRoot = true

	if err := h.StartElement(name, prefix, attrs, isEmpty); err != nil {
		return err
	}
	if !isEmpty {
		s.stack = append(s.stack, openTag{name: name, prefix: prefix})
	}
	return nil
}

func (s *Scanner) handleEndTag(h Handler, raw Span) error {
	start := int(raw.Offset) + 2
	end := int(raw.Offset) + int(raw.Length) - 1
	for start < end && isSpace(s.buf[start]) {
		start++
	}
	nameEnd := end
	for nameEnd > start && isSpace(s.buf[nameEnd-1]) {
		nameEnd--
	}
	if nameEnd <= start {
		return newErr(BadName, start, "missing name in end tag")
	}
	name := spanOf(start, nameEnd)

	if len(s.stack) == 0 {
		return newErr(MismatchedEndTag, start, "end tag %q has no matching start tag", string(name.Slice(s.buf)))
	}
	top := s.stack[len(s.stack)-1]
	if !bytes.Equal(top.name.Slice(s.buf), name.Slice(s.buf)) {
		return newErr(MismatchedEndTag, start, "expected end tag %q, found %q",
			string(top.name.Slice(s.buf)), string(name.Slice(s.buf)))
	}
	s.stack = s.stack[:len(s.stack)-1]
	return h.EndElement(top.name, top.prefix)
}

// parseAttrs parses "name=\"value\" ..." pairs out of raw (the bytes
// between a tag's name and its closing '>'/'/>'), recording each
// attribute's absolute offset via base.
func (s *Scanner) parseAttrs(raw []byte, base int) ([]Attr, error) {
	attrs := s.attrBuf[:0]
	i := 0
	for i < len(raw) {
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) {
			break
		}
		nameEnd, ok := scanName(raw, i, s.strict())
		if !ok {
			return nil, newErr(BadAttribute, base+i, "invalid attribute name")
		}
		name := spanOf(base+i, base+nameEnd)
		i = nameEnd
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || raw[i] != '=' {
			return nil, newErr(BadAttribute, base+i, "expected '=' after attribute name")
		}
		i++
		for i < len(raw) && isSpace(raw[i]) {
			i++
		}
		if i >= len(raw) || (raw[i] != '"' && raw[i] != '\'') {
			return nil, newErr(BadAttribute, base+i, "expected quoted attribute value")
		}
		quote := raw[i]
		i++
		valStart := i
		for i < len(raw) && raw[i] != quote {
			if raw[i] == '<' {
				return nil, newErr(BadAttribute, base+i, "'<' not allowed in attribute value")
			}
			i++
		}
		if i >= len(raw) {
			return nil, newErr(BadAttribute, base+valStart, "unterminated attribute value")
		}
		value := spanOf(base+valStart, base+i)
		i++
		if s.strict() {
			if err := validateEntityRefs(value.Slice(s.buf), int(value.Offset)); err != nil {
				return nil, err
			}
		}
		prefix, _ := splitPrefix(s.buf, name)
		attrs = append(attrs, Attr{
			Name:        name,
			Prefix:      prefix,
			Value:       value,
			NeedsDecode: bytes.IndexByte(value.Slice(s.buf), '&') >= 0,
		})
	}
	s.attrBuf = attrs
	out := make([]Attr, len(attrs))
	copy(out, attrs)
	return out, nil
}

func checkDuplicateAttrs(buf []byte, attrs []Attr) error {
	if len(attrs) < 2 {
		return nil
	}
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		key := string(a.Name.Slice(buf))
		if _, dup := seen[key]; dup {
			return newErr(BadAttribute, int(a.Name.Offset), "duplicate attribute %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// validateEntityRefs checks every '&' in text introduces a legal
// reference (predefined entity or numeric character reference),
// independent of actually decoding it.
func validateEntityRefs(text []byte, base int) error {
	i := 0
	for {
		amp := bytes.IndexByte(text[i:], '&')
		if amp < 0 {
			return nil
		}
		pos := i + amp
		semi := -1
		limit := pos + 12
		if limit > len(text) {
			limit = len(text)
		}
		for j := pos + 1; j < limit; j++ {
			if text[j] == ';' {
				semi = j
				break
			}
		}
		if semi < 0 {
			return newErr(InvalidCharRef, base+pos, "'&' not followed by a valid entity reference")
		}
		ref := text[pos+1 : semi]
		if len(ref) > 0 && ref[0] == '#' {
			r, err := decodeCharRef(ref)
			if err != nil || !isLegalXMLChar(r) {
				return newErr(InvalidCharRef, base+pos, "invalid character reference &%s;", ref)
			}
		} else if _, ok := predefinedEntity(ref); !ok {
			return newErr(InvalidCharRef, base+pos, "unknown entity reference &%s;", ref)
		}
		i = semi + 1
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func equalFold(s, t string) bool {
	if len(s) != len(t) {
		return false
	}
	for i := 0; i < len(s); i++ {
		a, b := s[i], t[i]
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}
