package lint

import (
	"testing"

	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/scanner"
	"github.com/aozora-toolkit/compiler/internal/span"
)

func buildFrom(t *testing.T, text string) (*block.Block, string) {
	t.Helper()
	toks, err := scanner.Scan(text)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	doc := itemparser.Parse(toks)
	root, err := block.Build(doc.Items)
	if err != nil {
		t.Fatalf("block build error: %v", err)
	}
	return root, text
}

func hasKind(diags []Diagnostic, k Kind) bool {
	for _, d := range diags {
		if d.Kind == k {
			return true
		}
	}
	return false
}

func TestMissingParagraphIndentFlagsBareStart(t *testing.T) {
	root, text := buildFrom(t, "\n\n普通の文\n")
	diags := Lint(root, text)
	if !hasKind(diags, MissingParagraphIndent) {
		t.Fatalf("expected MissingParagraphIndent, got %+v", diags)
	}
}

func TestValidParagraphStartIsQuiet(t *testing.T) {
	root, text := buildFrom(t, "\n\n「これは会話文」\n")
	diags := Lint(root, text)
	if hasKind(diags, MissingParagraphIndent) {
		t.Fatalf("did not expect MissingParagraphIndent, got %+v", diags)
	}
}

func TestPunctuationBeforeQuote(t *testing.T) {
	root, text := buildFrom(t, "\n\n「そうだ。」と言った\n")
	diags := Lint(root, text)
	if !hasKind(diags, PunctuationBeforeQuote) {
		t.Fatalf("expected PunctuationBeforeQuote, got %+v", diags)
	}
}

func TestOddEllipsisRunFlagged(t *testing.T) {
	root, text := buildFrom(t, "\n\n「えっと………」\n") // three ellipsis runes
	diags := Lint(root, text)
	if !hasKind(diags, OddEllipsisOrDash) {
		t.Fatalf("expected OddEllipsisOrDash for a 3-run, got %+v", diags)
	}
}

func TestEvenEllipsisRunIsQuiet(t *testing.T) {
	empty, err := block.Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diags := Lint(empty, "……") // two runes, even
	if hasKind(diags, OddEllipsisOrDash) {
		t.Fatalf("even-length run should not be flagged: %+v", diags)
	}
}

func TestInvalidAfterExclamation(t *testing.T) {
	root, text := buildFrom(t, "\n\n驚いた！次\n")
	diags := Lint(root, text)
	if !hasKind(diags, InvalidAfterExclamation) {
		t.Fatalf("expected InvalidAfterExclamation, got %+v", diags)
	}
}

func TestExclamationFollowedByBracketIsQuiet(t *testing.T) {
	root, text := buildFrom(t, "\n\n「驚いた！」\n")
	diags := Lint(root, text)
	if hasKind(diags, InvalidAfterExclamation) {
		t.Fatalf("did not expect InvalidAfterExclamation, got %+v", diags)
	}
}

func TestUnknownCommandLifted(t *testing.T) {
	root, text := buildFrom(t, "\n\n［＃よくわからない指示］本文\n")
	diags := Lint(root, text)
	if !hasKind(diags, UnknownCommand) {
		t.Fatalf("expected UnknownCommand, got %+v", diags)
	}
	for _, d := range diags {
		if d.Kind == UnknownCommand && d.Severity != Warning {
			t.Fatalf("expected Warning severity, got %v", d.Severity)
		}
	}
}

func TestSuggestedRubyUsesLookup(t *testing.T) {
	root, text := buildFrom(t, "\n\n漢字\n")
	lookup := func(surface string) (string, bool) {
		if surface == "漢字" {
			return "かんじ", true
		}
		return "", false
	}
	diags := Lint(root, text, WithFuriganaLookup(lookup))
	found := false
	for _, d := range diags {
		if d.Kind == SuggestedRuby {
			found = true
			if d.Severity != Info {
				t.Fatalf("expected Info severity, got %v", d.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected SuggestedRuby, got %+v", diags)
	}
}

func TestSuggestedRubySkippedWithoutLookup(t *testing.T) {
	root, text := buildFrom(t, "\n\n漢字\n")
	diags := Lint(root, text)
	if hasKind(diags, SuggestedRuby) {
		t.Fatalf("did not expect SuggestedRuby with no lookup configured: %+v", diags)
	}
}

func TestNestedBlockResetsParagraphStart(t *testing.T) {
	items := []itemparser.Item{
		{
			Kind: itemparser.ItemCmd,
			Command: command.Command{
				Kind:  command.KindBlockBegin,
				Begin: command.Decoration{Tag: command.TagHeading},
			},
			Span: span.New(0, 1),
		},
		{Kind: itemparser.ItemText, Text: itemparser.DecoratedText{Text: "普通の見出し", Span: span.New(1, 7)}, Span: span.New(1, 7)},
		{
			Kind:    itemparser.ItemCmd,
			Command: command.Command{Kind: command.KindBlockEnd, EndTag: command.TagHeading},
			Span:    span.New(7, 8),
		},
	}
	root, err := block.Build(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diags := Lint(root, "")
	if !hasKind(diags, MissingParagraphIndent) {
		t.Fatalf("expected the nested block's first text to be checked as a paragraph start: %+v", diags)
	}
}
