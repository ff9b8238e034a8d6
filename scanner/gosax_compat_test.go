package scanner

import (
	"strings"
	"testing"

	"github.com/orisano/gosax"
)

// gosaxEventCounts tokenizes xml with the real orisano/gosax reader, the
// same library scanner's vectorized byte-search technique is grounded on,
// and counts start/end/text/cdata/comment events.
func gosaxEventCounts(t *testing.T, xml string) map[string]int {
	t.Helper()
	r := gosax.NewReaderSize(strings.NewReader(xml), 4096)
	counts := map[string]int{}
	for {
		e, err := r.Event()
		if err != nil {
			t.Fatalf("gosax.Event: %v", err)
		}
		switch e.Type() {
		case gosax.EventEOF:
			return counts
		case gosax.EventStart:
			counts["start"]++
		case gosax.EventEnd:
			counts["end"]++
		case gosax.EventText:
			if len(e.Bytes) > 0 {
				counts["text"]++
			}
		case gosax.EventCData:
			counts["cdata"]++
		case gosax.EventComment:
			counts["comment"]++
		}
	}
}

func scannerEventCounts(t *testing.T, xml string) map[string]int {
	t.Helper()
	rec, err := run(t, xml, Strict)
	if err != nil {
		t.Fatalf("scanner.Run: %v", err)
	}
	counts := map[string]int{}
	for _, e := range rec.events {
		counts[e]++
	}
	return counts
}

// TestAgreesWithGosaxOnStructuralEventCounts cross-checks the scanner's
// event counts against orisano/gosax's own tokenizer on a handful of
// documents, the library this scanner's token-boundary search technique is
// grounded on. The two tokenizers attribute text runs to boundaries
// differently in places (gosax does not coalesce adjacent text/CDATA the
// way scanner's Handler callers do), so this only compares the structural
// counts (elements, CDATA sections, comments) that must agree exactly.
func TestAgreesWithGosaxOnStructuralEventCounts(t *testing.T) {
	docs := []string{
		`<root><a/><a/><a/></root>`,
		`<doc><p>hello <b>world</b></p><!-- note --></doc>`,
		`<doc><![CDATA[raw <stuff>]]></doc>`,
		`<a><b><c/></b><b><c/></b></a>`,
	}
	for _, xml := range docs {
		gosaxCounts := gosaxEventCounts(t, xml)
		scannerCounts := scannerEventCounts(t, xml)
		for _, kind := range []string{"start", "end", "cdata", "comment"} {
			if gosaxCounts[kind] != scannerCounts[kind] {
				t.Errorf("doc %q: %s count mismatch: gosax=%d scanner=%d", xml, kind, gosaxCounts[kind], scannerCounts[kind])
			}
		}
	}
}
