// Package lint checks a compiled Block tree against a closed set of
// style and structural rules. It never fails: the output is always a
// (possibly empty) diagnostic list, produced without mutating the tree.
package lint

import (
	"fmt"

	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/scanner"
	"github.com/aozora-toolkit/compiler/internal/span"
)

// Severity ranks a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Kind tags the rule that produced a Diagnostic.
type Kind int

const (
	MissingParagraphIndent Kind = iota
	PunctuationBeforeQuote
	OddEllipsisOrDash
	InvalidAfterExclamation
	RubyWithoutText // reserved: the item parser's diagnostic path does not exist yet
	UnknownCommand
	MismatchedBlockTags // reserved: the block builder does not retain the mismatched tag
	SuggestedRuby
)

// Diagnostic is one lint finding.
type Diagnostic struct {
	Kind     Kind
	Span     span.Span
	Severity Severity
	Message  string
}

var validParagraphStarts = map[rune]bool{
	'　': true, '「': true, '『': true, '（': true, '【': true,
	'〈': true, '《': true, '─': true, '―': true, '…': true,
}

var closingBrackets = map[rune]bool{
	'」': true, '』': true, '）': true, '】': true, '〉': true, '》': true,
}

func isExclamationWhitespace(r rune) bool {
	switch r {
	case '　', ' ', '\n', '\r':
		return true
	default:
		return false
	}
}

// FuriganaLookup resolves a reading for a kanji-only surface string.
// internal/furigana implements this against a morphological tokenizer;
// it is optional, and Lint runs its suggestion pass only when one is
// supplied.
type FuriganaLookup func(surface string) (reading string, ok bool)

// Option configures a Lint call.
type Option func(*options)

type options struct {
	furigana FuriganaLookup
}

// WithFuriganaLookup enables the SuggestedRuby rule.
func WithFuriganaLookup(f FuriganaLookup) Option {
	return func(o *options) { o.furigana = f }
}

// Lint runs every rule in the closed set against root and originalText
// and returns the accumulated diagnostics.
func Lint(root *block.Block, originalText string, opts ...Option) []Diagnostic {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	var diags []Diagnostic
	checkParagraphStart(root.Children, true, &diags)
	checkTextPatterns(originalText, &diags)
	checkUnknownCommands(root, &diags)
	if o.furigana != nil {
		checkSuggestedRuby(root, o.furigana, &diags)
	}
	return diags
}

func checkParagraphStart(elements []block.Element, atStart bool, diags *[]Diagnostic) {
	for _, el := range elements {
		switch el.Kind {
		case block.ElementBlock:
			checkParagraphStart(el.Block.Children, true, diags)
			atStart = false

		case block.ElementItem:
			switch el.Item.Kind {
			case itemparser.ItemNewline:
				atStart = true
			case itemparser.ItemCmd:
				// Commands may legitimately open a line; they neither
				// set nor clear the flag.
			case itemparser.ItemText:
				if atStart {
					validateParagraphStart(el.Item, diags)
				}
				atStart = false
			default:
				atStart = false
			}
		}
	}
}

func validateParagraphStart(it itemparser.Item, diags *[]Diagnostic) {
	runes := []rune(it.Text.Text)
	if len(runes) == 0 {
		return
	}
	if !validParagraphStarts[runes[0]] {
		*diags = append(*diags, Diagnostic{
			Kind:     MissingParagraphIndent,
			Span:     it.Span,
			Severity: Warning,
			Message:  fmt.Sprintf("paragraph does not start with an indent or opening bracket: %q", string(runes[0])),
		})
	}
}

func checkTextPatterns(text string, diags *[]Diagnostic) {
	runes := []rune(text)
	n := len(runes)

	i := 0
	for i < n {
		r := runes[i]

		if (r == '。' || r == '．') && i+1 < n && runes[i+1] == '」' {
			*diags = append(*diags, Diagnostic{
				Kind:     PunctuationBeforeQuote,
				Span:     span.New(i, i+2),
				Severity: Warning,
				Message:  "closing quote immediately follows sentence-ending punctuation",
			})
		}

		if r == '…' || r == '―' {
			start := i
			for i < n && runes[i] == r {
				i++
			}
			runLen := i - start
			if runLen%2 == 1 {
				*diags = append(*diags, Diagnostic{
					Kind:     OddEllipsisOrDash,
					Span:     span.New(start, i),
					Severity: Warning,
					Message:  fmt.Sprintf("odd-length run of %q (length %d)", string(r), runLen),
				})
			}
			continue
		}

		if (r == '！' || r == '？') && i+1 < n {
			next := runes[i+1]
			if next != '！' && next != '？' && !closingBrackets[next] && !isExclamationWhitespace(next) {
				*diags = append(*diags, Diagnostic{
					Kind:     InvalidAfterExclamation,
					Span:     span.New(i, i+2),
					Severity: Warning,
					Message:  fmt.Sprintf("%q is followed by an unexpected character %q", string(r), string(next)),
				})
			}
		}

		i++
	}
}

func checkUnknownCommands(b *block.Block, diags *[]Diagnostic) {
	for _, el := range b.Children {
		switch el.Kind {
		case block.ElementBlock:
			checkUnknownCommands(el.Block, diags)
		case block.ElementItem:
			if el.Item.Kind == itemparser.ItemCmd && el.Item.Command.Kind == command.KindUnknown {
				*diags = append(*diags, Diagnostic{
					Kind:     UnknownCommand,
					Span:     el.Item.Span,
					Severity: Warning,
					Message:  fmt.Sprintf("unrecognised command: %q", el.Item.Command.Raw),
				})
			}
		}
	}
}

func checkSuggestedRuby(b *block.Block, lookup FuriganaLookup, diags *[]Diagnostic) {
	for _, el := range b.Children {
		switch el.Kind {
		case block.ElementBlock:
			checkSuggestedRuby(el.Block, lookup, diags)
		case block.ElementItem:
			if el.Item.Kind != itemparser.ItemText || el.Item.Text.Ruby != nil {
				continue
			}
			if !isAllKanji(el.Item.Text.Text) {
				continue
			}
			reading, ok := lookup(el.Item.Text.Text)
			if !ok {
				continue
			}
			*diags = append(*diags, Diagnostic{
				Kind:     SuggestedRuby,
				Span:     el.Item.Span,
				Severity: Info,
				Message:  fmt.Sprintf("suggested reading: %s", reading),
			})
		}
	}
}

func isAllKanji(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !scanner.IsKanji(r) {
			return false
		}
	}
	return true
}
