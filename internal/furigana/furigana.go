// Package furigana is the optional enrichment pass SPEC_FULL's linter
// extension calls out: it wraps a kagome morphological tokenizer to
// suggest a reading for kanji runs the linter flags as unglossed.
//
// It is never imported by internal/lint directly. Callers that want
// SuggestedRuby diagnostics build an Advisor and pass its Lookup method
// to lint.WithFuriganaLookup, keeping the core linter free of the
// multi-megabyte IPA dictionary unless a caller opts in.
package furigana

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Advisor suggests hiragana readings for kanji text.
type Advisor struct {
	t *tokenizer.Tokenizer
}

// NewAdvisor loads the embedded IPA dictionary and builds an Advisor.
// Loading the dictionary is the expensive part (a multi-megabyte
// embed); callers should build one Advisor and reuse it.
func NewAdvisor() (*Advisor, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("furigana: building tokenizer: %w", err)
	}
	return &Advisor{t: t}, nil
}

// Lookup resolves a reading for surface, matching the
// lint.FuriganaLookup signature. surface is expected to be a single
// kanji run (the linter only calls this for text composed entirely of
// Kanji-class characters), but Lookup tokenizes it as ordinary text so
// multi-morpheme runs still get a reading.
func (a *Advisor) Lookup(surface string) (reading string, ok bool) {
	if strings.TrimSpace(surface) == "" {
		return "", false
	}

	tokens := a.t.Tokenize(surface)
	var b strings.Builder
	found := false
	for _, tok := range tokens {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		features := tok.Features()
		// IPA dictionary feature schema: index 7 is the katakana
		// reading (index 6 is the base form / lemma).
		if len(features) > 7 && features[7] != "*" {
			b.WriteString(toHiragana(features[7]))
			found = true
		} else {
			// No reading available for this morpheme (e.g. an
			// out-of-dictionary surface): fall back to the surface
			// itself so the suggestion is never silently truncated.
			b.WriteString(tok.Surface)
		}
	}
	if !found {
		return "", false
	}
	return b.String(), true
}

// toHiragana converts a katakana reading to hiragana, since Aozora
// ruby glosses are conventionally hiragana.
func toHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}
