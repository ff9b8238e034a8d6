// Package streaming implements the Streaming Parser: it accepts input in
// arbitrary chunks and emits complete matching elements as serialized byte
// ranges under bounded working memory, without ever holding the whole
// document in memory at once.
package streaming

import (
	"fmt"

	"github.com/jeffhuen/xmlcore/scanner"
)

// Error is a streaming-specific failure: malformed markup discovered while
// scanning, or leftover partial markup at Finalize in strict mode.
type Error struct {
	Message string
	Offset  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("xmlcore/streaming: %s at byte %d", e.Message, e.Offset)
}

// State is the streaming parser's working state: a growing buffer, a
// cursor marking how far the scanner has consumed it, an element stack for
// depth tracking, and a capture frame recording the bounds of whatever
// filter-matching element is currently open. It mirrors the teacher's
// parser.go parseState (an explicit stack plus a depth counter), adapted
// from a channel-push-per-element model to an explicit completed-queue
// that Feed/Take/Finalize drain under the caller's control.
type State struct {
	buf    []byte
	cursor int
	lex    *scanner.Lexer
	mode   scanner.Mode
	filter string

	stack []string

	capturing        bool
	captureStart     int
	captureStackSize int

	completed [][]byte
}

// New creates an empty streaming state. filter, if non-empty, restricts
// emission to elements with that tag name (at any nesting depth, the
// outermost match only — a filter match nested inside an already-capturing
// match is not separately emitted, since its bytes are already part of the
// enclosing captured range). An empty filter streams nothing, mirroring
// the teacher's "empty streamNames streams nothing" convention.
func New(filter string, mode scanner.Mode) *State {
	return &State{lex: scanner.NewLexer(nil), mode: mode, filter: filter}
}

// Feed appends chunk to the buffered input and scans forward as far as the
// available bytes allow, stopping at the first token that cannot yet be
// completed. It returns the number of entries now sitting in the completed
// queue and the size of the unconsumed tail of the buffer.
func (s *State) Feed(chunk []byte) (completedAvailable int, bufferSize int) {
	s.buf = append(s.buf, chunk...)
	_ = s.scanForward(false)
	return len(s.completed), len(s.buf) - s.cursor
}

// Take drains up to max entries from the completed queue as owned byte
// slices, in the order their end tags appeared in the input, then compacts
// the buffer if the consumed prefix has grown past half its size.
func (s *State) Take(max int) [][]byte {
	var out [][]byte
	if max > 0 && len(s.completed) > 0 {
		if max > len(s.completed) {
			max = len(s.completed)
		}
		out = s.completed[:max]
		s.completed = s.completed[max:]
	}
	s.compact()
	return out
}

// Finalize requires the cursor to reach end-of-input, surfacing any
// leftover partial markup as an error in strict mode (the same error is
// simply discarded in lenient mode). It returns any residual completed
// entries regardless.
func (s *State) Finalize() ([][]byte, error) {
	err := s.scanForward(true)
	if err != nil && s.mode == scanner.Strict {
		return s.drainAll(), err
	}
	if s.cursor < len(s.buf) && s.mode == scanner.Strict {
		return s.drainAll(), &Error{Message: "unconsumed trailing bytes at end of input", Offset: s.cursor}
	}
	return s.drainAll(), nil
}

func (s *State) drainAll() [][]byte {
	out := s.completed
	s.completed = nil
	return out
}

func (s *State) scanForward(atEOF bool) error {
	s.lex.Reset(s.buf, s.cursor, atEOF)
	for {
		tok, err := s.lex.Next()
		if err != nil {
			if scanner.ErrIncomplete(err) {
				break
			}
			if s.mode == scanner.Lenient {
				// Recover by skipping the offending byte and resuming the
				// scan just past it, so one malformed construct cannot
				// wedge the cursor forever.
				skip := s.lex.Pos() + 1
				if skip > len(s.buf) {
					break
				}
				s.lex.Reset(s.buf, skip, atEOF)
				s.cursor = skip
				continue
			}
			return err
		}
		if tok.Kind == scanner.TokEOF {
			break
		}
		switch tok.Kind {
		case scanner.TokStartTag:
			s.handleStartTag(tok.Raw)
		case scanner.TokEndTag:
			s.handleEndTag(tok.Raw)
		}
		s.cursor = s.lex.Pos()
	}
	return nil
}

func (s *State) handleStartTag(raw scanner.Span) {
	name, isEmpty, ok := scanner.ParseStartTag(s.buf, raw)
	if !ok {
		return
	}
	nameStr := string(name.Slice(s.buf))
	if isEmpty {
		if !s.capturing && s.filter != "" && nameStr == s.filter {
			s.emit(raw.Slice(s.buf))
		}
		return
	}
	matchesNow := !s.capturing && s.filter != "" && nameStr == s.filter
	s.stack = append(s.stack, nameStr)
	if matchesNow {
		s.capturing = true
		s.captureStart = int(raw.Offset)
		s.captureStackSize = len(s.stack)
	}
}

func (s *State) handleEndTag(raw scanner.Span) {
	if len(s.stack) > 0 {
		s.stack = s.stack[:len(s.stack)-1]
	}
	if s.capturing && len(s.stack) == s.captureStackSize-1 {
		end := int(raw.Offset) + int(raw.Length)
		s.emit(s.buf[s.captureStart:end])
		s.capturing = false
	}
}

func (s *State) emit(raw []byte) {
	owned := make([]byte, len(raw))
	copy(owned, raw)
	s.completed = append(s.completed, owned)
}

// compactThreshold sets how much of the buffer must already be consumed
// before compaction is worth the copy: at least 1/compactThreshold of it.
const compactThreshold = 2

func (s *State) compact() {
	limit := s.cursor
	if s.capturing && s.captureStart < limit {
		limit = s.captureStart
	}
	if limit == 0 || limit*compactThreshold < len(s.buf) {
		return
	}
	rest := make([]byte, len(s.buf)-limit)
	copy(rest, s.buf[limit:])
	s.buf = rest
	s.cursor -= limit
	if s.capturing {
		s.captureStart -= limit
	}
}
