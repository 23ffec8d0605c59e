// Package xhtml renders a compiled Block tree into an XHTML 1.1
// document string plus the table of contents collected along the way.
package xhtml

import (
	"fmt"
	"strings"

	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
)

// TocEntry is one entry in the generated table of contents.
type TocEntry struct {
	Level int // 2, 3, or 4
	Text  string
	ID    string
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escape(s string) string {
	return escaper.Replace(s)
}

type generator struct {
	toc    []TocEntry
	nextID int
}

// Generate renders root into a full XHTML document and returns its TOC.
func Generate(root *block.Block, title string) (string, []TocEntry) {
	g := &generator{}
	body := g.renderChildren(root.Children, false)

	var out strings.Builder
	out.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	out.WriteString(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.1//EN" "http://www.w3.org/TR/xhtml11/DTD/xhtml11.dtd">` + "\n")
	out.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" xml:lang="ja" class="vrtl">` + "\n")
	out.WriteString("<head>\n")
	out.WriteString(`<meta charset="UTF-8"/>` + "\n")
	out.WriteString("<title>" + escape(title) + "</title>\n")
	out.WriteString(`<link rel="stylesheet" type="text/css" href="../style/book-style.css"/>` + "\n")
	out.WriteString("</head>\n")
	out.WriteString("<body>\n")
	out.WriteString(`<div class="main">`)
	out.WriteString(body)
	out.WriteString("</div>\n")
	out.WriteString("</body>\n")
	out.WriteString("</html>\n")

	return out.String(), g.toc
}

func headingLevel(size command.HeadingSize) int {
	switch size {
	case command.HeadingLarge:
		return 2
	case command.HeadingSmall:
		return 4
	default:
		return 3
	}
}

// resolveContainer maps a Block's decoration to the element/class it
// renders as, per the structural rendering table.
func resolveContainer(dec *command.Decoration) (tag, class string, isHeading bool, level int) {
	if dec == nil {
		return "div", "", false, 0
	}
	switch dec.Tag {
	case command.TagHeading:
		if dec.Heading.Kind == command.HeadingInline {
			return "span", "midashi-dogyo", false, 0
		}
		lvl := headingLevel(dec.Heading.Size)
		return fmt.Sprintf("h%d", lvl), "", true, lvl
	case command.TagIndent:
		if dec.Indent.Direction == command.IndentTrailing {
			return "div", fmt.Sprintf("chitsuki-%d", dec.Indent.Spaces), false, 0
		}
		return "div", fmt.Sprintf("jisage-%d", dec.Indent.Spaces), false, 0
	case command.TagFramed:
		return "div", "kakomi", false, 0
	case command.TagHorizontal:
		return "div", "yokogumi", false, 0
	default:
		return "div", "", false, 0
	}
}

func (g *generator) nextHeadingID() string {
	g.nextID++
	return fmt.Sprintf("midashi-%d", g.nextID)
}

// renderChildren walks one Block's children, buffering inline items
// into paragraphs and recursing into nested blocks and inline headings
// as it goes. isHeading suppresses the empty-buffer <p><br/></p>
// placeholder, since that would be invalid inside an h-tag.
func (g *generator) renderChildren(children []block.Element, isHeading bool) string {
	var out strings.Builder
	var buf []itemparser.Item

	flush := func(atNewline bool) {
		if len(buf) > 0 {
			if !isHeading {
				out.WriteString("<p>")
			}
			for _, it := range buf {
				out.WriteString(g.renderItem(it))
			}
			if !isHeading {
				out.WriteString("</p>")
			}
			buf = buf[:0]
			return
		}
		if atNewline && !isHeading {
			out.WriteString("<p><br/></p>")
		}
	}

	for _, el := range children {
		if el.Kind == block.ElementBlock {
			flush(false)
			out.WriteString(g.renderBlock(el.Block))
			continue
		}

		it := el.Item
		switch it.Kind {
		case itemparser.ItemNewline:
			flush(true)

		case itemparser.ItemCmd:
			if it.Command.Kind == command.KindInline && it.Command.Inline.Kind == command.InlineKindHeadingRef {
				flush(false)
				out.WriteString(g.renderInlineHeading(it.Command.Inline))
				continue
			}
			buf = append(buf, it)

		default:
			buf = append(buf, it)
		}
	}

	flush(false)
	return out.String()
}

func (g *generator) renderBlock(b *block.Block) string {
	tag, class, isHeading, level := resolveContainer(b.Decoration)
	inner := g.renderChildren(b.Children, isHeading)

	if isHeading {
		id := g.nextHeadingID()
		g.toc = append(g.toc, TocEntry{Level: level, Text: collectText(b.Children), ID: id})
		return fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, id, inner, level)
	}

	if class == "" {
		return fmt.Sprintf("<%s>%s</%s>", tag, inner, tag)
	}
	return fmt.Sprintf(`<%s class="%s">%s</%s>`, tag, class, inner, tag)
}

func (g *generator) renderInlineHeading(inline command.InlineCommand) string {
	id := g.nextHeadingID()
	level := headingLevel(inline.Heading.Size)
	g.toc = append(g.toc, TocEntry{Level: level, Text: inline.Content, ID: id})
	return fmt.Sprintf(`<h%d id="%s">%s</h%d>`, level, id, escape(inline.Content), level)
}

// collectText gathers a heading block's TOC text: descendant Text item
// content and inline-heading command content literals, ignoring
// everything else.
func collectText(children []block.Element) string {
	var b strings.Builder
	for _, el := range children {
		if el.Kind == block.ElementBlock {
			b.WriteString(collectText(el.Block.Children))
			continue
		}
		switch el.Item.Kind {
		case itemparser.ItemText:
			b.WriteString(el.Item.Text.Text)
		case itemparser.ItemCmd:
			if el.Item.Command.Kind == command.KindInline && el.Item.Command.Inline.Kind == command.InlineKindHeadingRef {
				b.WriteString(el.Item.Command.Inline.Content)
			}
		}
	}
	return b.String()
}

func (g *generator) renderItem(it itemparser.Item) string {
	switch it.Kind {
	case itemparser.ItemText:
		if it.Text.Ruby == nil {
			return escape(it.Text.Text)
		}
		return "<ruby>" + escape(it.Text.Text) + "<rt>" + escape(*it.Text.Ruby) + "</rt></ruby>"

	case itemparser.ItemIter:
		return "／＼"

	case itemparser.ItemVoicedIter:
		return "／″＼"

	case itemparser.ItemCmd:
		return g.renderCommand(it.Command)

	default:
		return ""
	}
}

func (g *generator) renderCommand(cmd command.Command) string {
	if cmd.Kind != command.KindInline {
		return "" // Unknown and any stray BlockBegin/BlockEnd render nothing
	}
	switch cmd.Inline.Kind {
	case command.InlineKindBold:
		return `<span class="bold">` + escape(cmd.Inline.Content) + `</span>`
	case command.InlineKindItalic:
		return `<span class="italic">` + escape(cmd.Inline.Content) + `</span>`
	case command.InlineKindEmphasis:
		return `<span class="em">` + escape(cmd.Inline.Content) + `</span>`
	case command.InlineKindUnderline:
		return `<span class="bousen">` + escape(cmd.Inline.Content) + `</span>`
	case command.InlineKindPageBreak:
		switch cmd.Inline.PageBreak {
		case command.PageBreakKaimihiraki:
			return `<div class="kaimihiraki"></div>`
		case command.PageBreakKaidan:
			return `<div class="column-break"></div>`
		default: // Kaicho, Kaipage
			return `<div class="page-break"></div>`
		}
	default:
		// InlineKindIndent (single-line indent) has no rendering in the
		// grounding source's emitter either; it is a layout directive
		// with nothing to wrap.
		return ""
	}
}
