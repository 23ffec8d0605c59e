package transcode

import "testing"

func TestAutoDetectsUTF8(t *testing.T) {
	out, err := Decode([]byte("桜桃"), Auto)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != "桜桃" {
		t.Fatalf("got %q", out)
	}
}

func TestShiftJISRoundTrip(t *testing.T) {
	const want = "青空文庫"
	encoded, err := Encode(want, ShiftJIS)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(encoded, ShiftJIS)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %q want %q", got, want)
	}
}

func TestAutoFallsBackToShiftJISForNonUTF8(t *testing.T) {
	encoded, err := Encode("漢字", ShiftJIS)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(encoded, Auto)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != "漢字" {
		t.Fatalf("got %q", got)
	}
}

func TestEUCJPRoundTrip(t *testing.T) {
	const want = "吾輩は猫である"
	encoded, err := Encode(want, EUCJP)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(encoded, EUCJP)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %q want %q", got, want)
	}
}

func TestUTF8DeclaredButInvalidErrors(t *testing.T) {
	invalid := []byte{0xff, 0xfe, 0xfd}
	if _, err := Decode(invalid, UTF8); err == nil {
		t.Fatalf("expected error for invalid utf-8 declared explicitly")
	}
}

func TestParseEncoding(t *testing.T) {
	cases := map[string]Encoding{
		"":          Auto,
		"auto":      Auto,
		"utf-8":     UTF8,
		"shift_jis": ShiftJIS,
		"euc-jp":    EUCJP,
	}
	for name, want := range cases {
		got, err := ParseEncoding(name)
		if err != nil {
			t.Fatalf("ParseEncoding(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseEncoding(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseEncoding("bogus"); err == nil {
		t.Fatalf("expected error for unknown encoding name")
	}
}
