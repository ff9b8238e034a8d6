// Package sax implements the SAX Collector: it runs a scanner.Scanner and
// produces a flat, ordered sequence of events without constructing or
// retaining any tree.
package sax

import "github.com/jeffhuen/xmlcore/scanner"

// EventKind classifies one emitted Event.
type EventKind int

const (
	StartElement EventKind = iota
	EndElement
	Characters
	CData
	Comment
	ProcessingInstruction
)

// Event is one document-order SAX event. Only the fields relevant to Kind
// are populated; text content is always fully entity-decoded, CData never
// needs decoding.
type Event struct {
	Kind      EventKind
	Name      string
	Prefix    string
	Attrs     []Attribute
	Text      string
	PITarget  string
	PIData    string
	PIHasData bool
}

// Attribute is one decoded attribute name/value pair.
type Attribute struct {
	Name  string
	Value string
}

// Collector implements scanner.Handler, appending each structural event to
// Events in document order. Empty elements produce a StartElement
// immediately followed by an EndElement.
type Collector struct {
	buf    []byte
	Events []Event
}

// NewCollector creates a Collector over buf. The same buf must be passed to
// scanner.New so that spans resolve correctly.
func NewCollector(buf []byte) *Collector {
	return &Collector{buf: buf, Events: make([]Event, 0, len(buf)/32+8)}
}

func (c *Collector) decodeSpan(span scanner.Span, needsDecode bool) string {
	raw := span.Slice(c.buf)
	if !needsDecode {
		return string(raw)
	}
	out, err := scanner.DecodeEntities(nil, raw, false)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func (c *Collector) StartElement(name, prefix scanner.Span, attrs []scanner.Attr, isEmpty bool) error {
	decoded := make([]Attribute, len(attrs))
	for i, a := range attrs {
		decoded[i] = Attribute{
			Name:  string(a.Name.Slice(c.buf)),
			Value: c.decodeSpan(a.Value, a.NeedsDecode),
		}
	}
	c.Events = append(c.Events, Event{
		Kind:   StartElement,
		Name:   string(name.Slice(c.buf)),
		Prefix: string(prefix.Slice(c.buf)),
		Attrs:  decoded,
	})
	if isEmpty {
		c.Events = append(c.Events, Event{
			Kind:   EndElement,
			Name:   string(name.Slice(c.buf)),
			Prefix: string(prefix.Slice(c.buf)),
		})
	}
	return nil
}

func (c *Collector) EndElement(name, prefix scanner.Span) error {
	c.Events = append(c.Events, Event{
		Kind:   EndElement,
		Name:   string(name.Slice(c.buf)),
		Prefix: string(prefix.Slice(c.buf)),
	})
	return nil
}

func (c *Collector) Text(span scanner.Span, needsDecode bool) error {
	if span.IsEmpty() {
		return nil
	}
	c.Events = append(c.Events, Event{Kind: Characters, Text: c.decodeSpan(span, needsDecode)})
	return nil
}

func (c *Collector) CData(span scanner.Span) error {
	c.Events = append(c.Events, Event{Kind: CData, Text: string(span.Slice(c.buf))})
	return nil
}

func (c *Collector) Comment(span scanner.Span) error {
	c.Events = append(c.Events, Event{Kind: Comment, Text: string(span.Slice(c.buf))})
	return nil
}

func (c *Collector) ProcessingInstruction(target, data scanner.Span, hasData bool) error {
	c.Events = append(c.Events, Event{
		Kind:      ProcessingInstruction,
		PITarget:  string(target.Slice(c.buf)),
		PIData:    string(data.Slice(c.buf)),
		PIHasData: hasData,
	})
	return nil
}

func (c *Collector) XMLDeclaration(attrs []scanner.Attr) error { return nil }
func (c *Collector) DoctypeSeen() error                        { return nil }
