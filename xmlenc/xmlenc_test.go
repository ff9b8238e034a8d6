package xmlenc

import (
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func TestPlainUTF8NoDeclarationPassesThrough(t *testing.T) {
	in := []byte("<root>hi</root>")
	res, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if string(res.Data) != string(in) {
		t.Fatalf("expected unchanged data, got %q", res.Data)
	}
	if res.Encoding != "UTF-8" {
		t.Fatalf("expected default UTF-8 encoding, got %q", res.Encoding)
	}
}

func TestUTF8BOMIsStripped(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<root/>")...)
	res, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if string(res.Data) != "<root/>" {
		t.Fatalf("BOM should be stripped, got %q", res.Data)
	}
}

func TestUTF16LEBOMTranscodesToUTF8(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	raw, err := enc.NewEncoder().Bytes([]byte("<root>x</root>"))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if string(res.Data) != "<root>x</root>" {
		t.Fatalf("expected transcoded UTF-8 body, got %q", res.Data)
	}
	if res.Encoding != "UTF-16LE" {
		t.Fatalf("expected UTF-16LE, got %q", res.Encoding)
	}
}

func TestBOMlessUTF16BEDetectedByZeroBytePattern(t *testing.T) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	body := `<?xml version="1.0" encoding="UTF-16BE"?><root>y</root>`
	raw, err := enc.NewEncoder().Bytes([]byte(body))
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	res, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if res.Encoding != "UTF-16BE" {
		t.Fatalf("expected UTF-16BE from the zero-byte pattern, got %q", res.Encoding)
	}
}

func TestCRLFAndBareCRNormalizeToLF(t *testing.T) {
	in := []byte("<root>\r\na\rb\r\n</root>")
	res, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "<root>\na\nb\n</root>"
	if string(res.Data) != want {
		t.Fatalf("expected %q, got %q", want, res.Data)
	}
}

func TestUnsupportedDeclaredEncodingIsAnError(t *testing.T) {
	body := []byte(`<?xml version="1.0" encoding="ISO-8859-7"?><root/>`)
	if _, err := Normalize(body); err == nil {
		t.Fatal("expected an error for an unsupported declared encoding")
	}
}
