// Package itemparser turns a scanner token stream into a flat Document:
// title/author metadata plus an ordered Item sequence, with ruby glosses
// attached to the text they annotate and headings given their
// begin/text/end shape.
package itemparser

import (
	"strings"

	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/scanner"
	"github.com/aozora-toolkit/compiler/internal/span"
)

// biblioSentinel is the 55-ASCII-hyphen marker that brackets a
// bibliographic comment block.
const biblioSentinel = "-------------------------------------------------------"

// DecoratedText is a run of text with an optional ruby gloss.
type DecoratedText struct {
	Text string
	Ruby *string
	Span span.Span
}

// ItemKind tags the variant an Item carries.
type ItemKind int

const (
	ItemText ItemKind = iota
	ItemCmd
	ItemNewline
	ItemIter
	ItemVoicedIter
)

// Item is one element of the flat sequence the block builder consumes.
type Item struct {
	Kind    ItemKind
	Text    DecoratedText  // meaningful when Kind == ItemText
	Command command.Command // meaningful when Kind == ItemCmd
	Span    span.Span
}

// Metadata is the title/author pair extracted from the document's first
// two lines.
type Metadata struct {
	Title  string
	Author string
}

// Document is the item parser's output.
type Document struct {
	Metadata Metadata
	Items    []Item
}

// Parse consumes a token stream into a Document. It never fails: the
// spec reserves a ParseError type for a future diagnostic path, but the
// current policy is to always produce a best-effort Document.
func Parse(tokens []scanner.Token) Document {
	p := &parser{tokens: tokens}
	return p.run()
}

type parser struct {
	tokens []scanner.Token
	pos    int

	items []Item
	buf   []scanner.Token // buffered consecutive Text tokens

	skippingBiblio bool
}

func (p *parser) run() Document {
	meta := Metadata{
		Title:  p.consumeLineAsString(),
		Author: p.consumeLineAsString(),
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]

		switch tok.Kind {
		case scanner.Text:
			if strings.Contains(tok.Content, biblioSentinel) {
				p.toggleBiblio()
				p.pos++
				continue
			}
			if p.skippingBiblio {
				p.pos++
				continue
			}
			p.buf = append(p.buf, tok)
			p.pos++

		case scanner.RubyGloss:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.attachRubyGloss(tok)

		case scanner.RubyBase:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.flushBuffer()
			p.parseRangedRuby(tok)

		case scanner.Command:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.flushBuffer()
			p.appendCommand(tok)

		case scanner.Newline:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.flushBuffer()
			p.items = append(p.items, Item{Kind: ItemNewline, Span: tok.Span})

		case scanner.Iter:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.flushBuffer()
			p.items = append(p.items, Item{Kind: ItemIter, Span: tok.Span})

		case scanner.VoicedIter:
			p.pos++
			if p.skippingBiblio {
				continue
			}
			p.flushBuffer()
			p.items = append(p.items, Item{Kind: ItemVoicedIter, Span: tok.Span})

		default:
			p.pos++
		}
	}

	if !p.skippingBiblio {
		p.flushBuffer()
	}

	return Document{Metadata: meta, Items: p.items}
}

// consumeLineAsString collects Text token content up to and including
// the next Newline (which is consumed, not emitted). Gloss and command
// tokens contribute nothing.
func (p *parser) consumeLineAsString() string {
	var b strings.Builder
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		if tok.Kind == scanner.Newline {
			p.pos++
			break
		}
		if tok.Kind == scanner.Text {
			b.WriteString(tok.Content)
		}
		p.pos++
	}
	return b.String()
}

// toggleBiblio flips the bibliographic-comment skip mode. Turning it
// off consumes a single trailing newline, if present.
func (p *parser) toggleBiblio() {
	p.skippingBiblio = !p.skippingBiblio
	if !p.skippingBiblio && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Kind == scanner.Newline {
		p.pos++
	}
}

// flushBuffer emits the buffered text run as a single ruby=none item,
// merging spans and concatenating content, then clears the buffer.
func (p *parser) flushBuffer() {
	if len(p.buf) == 0 {
		return
	}
	p.items = append(p.items, Item{
		Kind: ItemText,
		Text: mergeText(p.buf, nil),
		Span: mergeSpan(p.buf),
	})
	p.buf = p.buf[:0]
}

func mergeText(toks []scanner.Token, ruby *string) DecoratedText {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.Content)
	}
	return DecoratedText{Text: b.String(), Ruby: ruby, Span: mergeSpan(toks)}
}

func mergeSpan(toks []scanner.Token) span.Span {
	s := toks[0].Span
	for _, t := range toks[1:] {
		s = span.Merge(s, t.Span)
	}
	return s
}

// attachRubyGloss implements rule 1: a gloss attaches to the single
// most recent buffered text token. Everything buffered before it is
// flushed as ruby=none first.
func (p *parser) attachRubyGloss(gloss scanner.Token) {
	if len(p.buf) == 0 {
		return // discarded silently, whether or not gloss.Content is empty
	}
	last := p.buf[len(p.buf)-1]
	rest := p.buf[:len(p.buf)-1]
	if len(rest) > 0 {
		p.items = append(p.items, Item{Kind: ItemText, Text: mergeText(rest, nil), Span: mergeSpan(rest)})
	}
	content := gloss.Content
	s := span.Merge(last.Span, gloss.Span)
	p.items = append(p.items, Item{
		Kind: ItemText,
		Text: DecoratedText{Text: last.Content, Ruby: &content, Span: s},
		Span: s,
	})
	p.buf = p.buf[:0]
}

// parseRangedRuby implements rule 2: a RubyBase opens a subparser that
// peeks forward over Text tokens, succeeding if it finds a RubyGloss
// and failing (emitting the base marker literally) on anything else.
func (p *parser) parseRangedRuby(base scanner.Token) {
	start := p.pos
	var acc []scanner.Token
	for p.pos < len(p.tokens) && p.tokens[p.pos].Kind == scanner.Text {
		acc = append(acc, p.tokens[p.pos])
		p.pos++
	}

	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == scanner.RubyGloss {
		gloss := p.tokens[p.pos]
		p.pos++
		content := gloss.Content
		var text DecoratedText
		if len(acc) > 0 {
			text = mergeText(acc, &content)
			text.Span = span.Merge(base.Span, gloss.Span)
		} else {
			text = DecoratedText{Text: "", Ruby: &content, Span: span.Merge(base.Span, gloss.Span)}
		}
		p.items = append(p.items, Item{Kind: ItemText, Text: text, Span: text.Span})
		return
	}

	// Failure: emit the base marker literally, then the accumulator as
	// plain text. The terminating token (if any) is left for the outer
	// loop, so roll pos back to where the peek started.
	p.pos = start
	p.items = append(p.items, Item{
		Kind: ItemText,
		Text: DecoratedText{Text: "｜", Span: base.Span},
		Span: base.Span,
	})
	if len(acc) > 0 {
		s := mergeSpan(acc)
		p.items = append(p.items, Item{Kind: ItemText, Text: mergeText(acc, nil), Span: s})
		p.pos = start + len(acc)
	}
}

// appendCommand recognises the command body and applies the heading
// reference transformation when applicable.
func (p *parser) appendCommand(tok scanner.Token) {
	cmd := command.Parse(tok.Content)

	if cmd.Kind == command.KindInline && cmd.Inline.Kind == command.InlineKindHeadingRef {
		if n := len(p.items); n > 0 {
			prev := p.items[n-1]
			if prev.Kind == ItemText && prev.Text.Text == cmd.Inline.Content {
				p.items = p.items[:n-1]
				p.items = append(p.items,
					Item{Kind: ItemCmd, Command: command.Command{
						Kind:  command.KindBlockBegin,
						Begin: command.Decoration{Tag: command.TagHeading, Heading: cmd.Inline.Heading},
					}, Span: tok.Span},
					prev,
					Item{Kind: ItemCmd, Command: command.Command{
						Kind:   command.KindBlockEnd,
						EndTag: command.TagHeading,
					}, Span: tok.Span},
				)
				return
			}
		}
	}

	p.items = append(p.items, Item{Kind: ItemCmd, Command: cmd, Span: tok.Span})
}
