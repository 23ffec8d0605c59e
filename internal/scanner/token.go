package scanner

import "github.com/aozora-toolkit/compiler/internal/span"

// TextKind classifies a maximal run of same-script characters.
type TextKind int

const (
	Hiragana TextKind = iota
	Katakana
	Kanji
	Other
)

func (k TextKind) String() string {
	switch k {
	case Hiragana:
		return "Hiragana"
	case Katakana:
		return "Katakana"
	case Kanji:
		return "Kanji"
	default:
		return "Other"
	}
}

// Kind tags the variant a Token carries. Only the fields relevant to a
// given Kind are populated; see the comment on each constant.
type Kind int

const (
	// Text carries Content, TextKind, Span.
	Text Kind = iota
	// RubyGloss carries Content (the gloss body), Span.
	RubyGloss
	// RubyBase carries only Span (the single-character ｜ marker).
	RubyBase
	// Command carries Content (the body between [# and ]), Span.
	Command
	// Newline carries only Span.
	Newline
	// Iter carries only Span (the ／＼ repetition glyph).
	Iter
	// VoicedIter carries only Span (the ／″＼ repetition glyph).
	VoicedIter
)

// Token is a single lexical unit produced by Scan. It is a flat tagged
// struct rather than an interface hierarchy: most phases that consume
// tokens need only a handful of fields and a switch on Kind, and a flat
// struct keeps that switch a plain comparison instead of a type assertion.
type Token struct {
	Kind     Kind
	Content  string
	TextKind TextKind // meaningful only when Kind == Text
	Span     span.Span
}
