// Package transcode decodes the legacy Japanese byte encodings Aozora
// Bunko source texts are historically distributed in (Shift_JIS, with
// EUC-JP seen on some mirrors) into the Unicode string every later
// pipeline phase assumes.
package transcode

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names a supported source byte encoding.
type Encoding int

const (
	// Auto sniffs the encoding: valid UTF-8 is accepted outright,
	// anything else is assumed Shift_JIS, matching the dominant
	// encoding of the Aozora Bunko corpus.
	Auto Encoding = iota
	UTF8
	ShiftJIS
	EUCJP
)

// ParseEncoding maps a CLI-facing name to an Encoding constant.
func ParseEncoding(name string) (Encoding, error) {
	switch name {
	case "", "auto":
		return Auto, nil
	case "utf-8", "utf8":
		return UTF8, nil
	case "shift_jis", "shift-jis", "sjis":
		return ShiftJIS, nil
	case "euc-jp", "eucjp":
		return EUCJP, nil
	default:
		return Auto, fmt.Errorf("transcode: unknown encoding %q", name)
	}
}

// Decode converts data to a UTF-8 string according to enc. Auto sniffs
// between UTF-8 pass-through and Shift_JIS. A malformed byte sequence
// for the declared encoding returns a wrapped error rather than
// silently dropping or replacing bytes.
func Decode(data []byte, enc Encoding) (string, error) {
	if enc == Auto {
		if utf8.Valid(data) {
			return string(data), nil
		}
		enc = ShiftJIS
	}

	if enc == UTF8 {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("transcode: declared utf-8 but input is not valid UTF-8")
		}
		return string(data), nil
	}

	dec := decoderFor(enc).NewDecoder()
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), dec))
	if err != nil {
		return "", fmt.Errorf("transcode: decoding %s: %w", encodingName(enc), err)
	}
	// The x/text decoders substitute U+FFFD for malformed input instead
	// of failing; neither legacy encoding can produce U+FFFD on its own.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("transcode: malformed %s byte sequence", encodingName(enc))
	}
	return string(out), nil
}

// Encode converts a Unicode string to the given legacy encoding. It
// exists mainly for round-trip tests; the pipeline never calls it
// (the compiler only ever produces UTF-8 output).
func Encode(s string, enc Encoding) ([]byte, error) {
	if enc == Auto || enc == UTF8 {
		return []byte(s), nil
	}
	encd := decoderFor(enc).NewEncoder()
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader([]byte(s)), encd))
	if err != nil {
		return nil, fmt.Errorf("transcode: encoding %s: %w", encodingName(enc), err)
	}
	return out, nil
}

func decoderFor(enc Encoding) *encoding.Encoding {
	switch enc {
	case EUCJP:
		return japanese.EUCJP
	default:
		return japanese.ShiftJIS
	}
}

func encodingName(enc Encoding) string {
	switch enc {
	case EUCJP:
		return "euc-jp"
	default:
		return "shift_jis"
	}
}
