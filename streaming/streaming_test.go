package streaming

import (
	"strings"
	"testing"

	"github.com/jeffhuen/xmlcore/scanner"
)

func TestFeedAcrossChunkBoundary(t *testing.T) {
	s := New("item", scanner.Strict)
	avail, _ := s.Feed([]byte(`<root><item id="1"`))
	if avail != 0 {
		t.Fatalf("expected no completed entries before the tag closes, got %d", avail)
	}
	avail, _ = s.Feed([]byte(`/><item id="2"/></root>`))
	if avail != 2 {
		t.Fatalf("expected 2 completed entries, got %d", avail)
	}
	got := s.Take(2)
	if string(got[0]) != `<item id="1"/>` || string(got[1]) != `<item id="2"/>` {
		t.Fatalf("got %q", got)
	}
}

func TestNestedMatchingElementNotDoubleEmitted(t *testing.T) {
	s := New("item", scanner.Strict)
	s.Feed([]byte(`<root><item><item/></item></root>`))
	out, err := s.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only the outer match emitted, got %d entries: %q", len(out), out)
	}
	if string(out[0]) != `<item><item/></item>` {
		t.Fatalf("got %q", out[0])
	}
}

func TestEmptyFilterStreamsNothing(t *testing.T) {
	s := New("", scanner.Strict)
	s.Feed([]byte(`<root><item/><item/></root>`))
	out, err := s.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected nothing streamed, got %d", len(out))
	}
}

func TestFinalizeStrictRejectsTruncatedInput(t *testing.T) {
	s := New("item", scanner.Strict)
	s.Feed([]byte(`<root><item id="1"`))
	_, err := s.Finalize()
	if err == nil {
		t.Fatal("expected finalize to fail on truncated input in strict mode")
	}
}

func TestTenThousandSiblingsTakeFive(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<root>")
	for i := 0; i < 10000; i++ {
		sb.WriteString("<item/>")
	}
	sb.WriteString("</root>")
	xml := sb.String()

	s := New("item", scanner.Strict)
	const chunkSize = 4096
	data := []byte(xml)
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		s.Feed(data[i:end])
	}

	first := s.Take(5)
	if len(first) != 5 {
		t.Fatalf("expected take(5) to return exactly 5 entries, got %d", len(first))
	}
	for _, e := range first {
		if string(e) != "<item/>" {
			t.Fatalf("got %q", e)
		}
	}

	total := len(first)
	for {
		batch := s.Take(1000)
		if len(batch) == 0 {
			break
		}
		total += len(batch)
	}
	residual, err := s.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total += len(residual)
	if total != 10000 {
		t.Fatalf("expected 10000 total items, got %d", total)
	}
}

func TestBufferCompactionKeepsActiveCapture(t *testing.T) {
	s := New("item", scanner.Strict)
	s.Feed([]byte(`<root>`))
	s.Feed([]byte(`<item>`))
	// Feed a large run of text inside the open <item>; compact() must not
	// discard bytes belonging to the still-active capture even though the
	// consumed prefix (<root><item>) is a large fraction of a small buffer.
	filler := strings.Repeat("x", 4096)
	s.Feed([]byte(filler))
	s.Take(0) // triggers the compaction check path with nothing to drain
	s.Feed([]byte(`</item></root>`))
	out, err := s.Finalize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || string(out[0]) != "<item>"+filler+"</item>" {
		t.Fatalf("capture corrupted by compaction: len=%d", len(out))
	}
}
