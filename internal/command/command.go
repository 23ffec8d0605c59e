// Package command recognises the body of a Command token (the text
// between "[#" and "]") against the closed set of annotation patterns
// this compiler understands, turning it into a structured Command value.
package command

import "regexp"

// HeadingSize is the 大/中/小 size of a heading decoration.
type HeadingSize int

const (
	HeadingLarge HeadingSize = iota
	HeadingMiddle
	HeadingSmall
)

// HeadingKind distinguishes plain, same-line (同行), and margin (窓)
// headings.
type HeadingKind int

const (
	HeadingNormal HeadingKind = iota
	HeadingInline
	HeadingWindow
)

// HeadingInfo is the parameter payload of a Heading decoration.
type HeadingInfo struct {
	Size HeadingSize
	Kind HeadingKind
}

// IndentDirection distinguishes leading indent (字下げ) from trailing
// alignment (地付き). Only Leading is ever produced by Parse today; the
// recogniser's closed table has no pattern for 地付き, matching the
// incompleteness of the corpus this recogniser is grounded on.
type IndentDirection int

const (
	IndentLeading IndentDirection = iota
	IndentTrailing
)

// IndentInfo is the parameter payload of an Indent decoration.
type IndentInfo struct {
	Direction IndentDirection
	Spaces    uint32
}

// DecorationTag identifies which Decoration kind a BlockBegin pairs
// with a later BlockEnd. Framed, Horizontal, and Monospace are part of
// the data model the emitter knows how to render, but Parse's closed
// table has no pattern that produces them yet.
type DecorationTag int

const (
	TagHeading DecorationTag = iota
	TagIndent
	TagFramed
	TagHorizontal
	TagMonospace
)

// Decoration is the opening side of a paired block command: it carries
// whatever parameters that decoration needs.
type Decoration struct {
	Tag       DecorationTag
	Heading   HeadingInfo
	Indent    IndentInfo
	Monospace uint32
}

// PageBreakKind enumerates the page/column-break family of inline
// commands.
type PageBreakKind int

const (
	PageBreakKaicho PageBreakKind = iota
	PageBreakKaipage
	PageBreakKaimihiraki
	PageBreakKaidan
)

// InlineKind distinguishes the shapes an Inline command can take.
// Bold/Italic/Emphasis/Underline are part of the data model the
// emitter renders, but Parse's closed table has no pattern that
// produces them yet — the same gap as Framed/Horizontal on the
// Decoration side.
type InlineKind int

const (
	InlineKindHeadingRef InlineKind = iota
	InlineKindIndent
	InlineKindPageBreak
	InlineKindBold
	InlineKindItalic
	InlineKindEmphasis
	InlineKindUnderline
)

// InlineCommand is a self-contained annotation whose effect is local to
// the point it appears at.
type InlineCommand struct {
	Kind      InlineKind
	Heading   HeadingInfo
	Content   string // heading reference's own content literal
	Indent    IndentInfo
	PageBreak PageBreakKind
}

// Kind tags the variant a Command carries.
type Kind int

const (
	KindBlockBegin Kind = iota
	KindBlockEnd
	KindInline
	KindUnknown
)

// Command is the parsed form of an annotation body.
type Command struct {
	Kind   Kind
	Begin  Decoration    // meaningful when Kind == KindBlockBegin
	EndTag DecorationTag // meaningful when Kind == KindBlockEnd
	Inline InlineCommand // meaningful when Kind == KindInline
	Raw    string        // meaningful when Kind == KindUnknown
}

var (
	reRef         = regexp.MustCompile(`^「(.+?)」は(同行|窓)?(大|中|小)見出し$`)
	reBegin       = regexp.MustCompile(`^(?:ここから)?(同行|窓)?(大|中|小)見出し$`)
	reEnd         = regexp.MustCompile(`^(?:ここで)?(同行|窓)?(大|中|小)見出し終わり$`)
	reJisage      = regexp.MustCompile(`^([０-９]+)字下げ$`)
	reJisageBegin = regexp.MustCompile(`^ここから([０-９]+)字下げ$`)
)

var literalInline = map[string]PageBreakKind{
	"改丁":   PageBreakKaicho,
	"改ページ": PageBreakKaipage,
	"改見開き": PageBreakKaimihiraki,
	"改段":   PageBreakKaidan,
}

func headingSize(s string) HeadingSize {
	switch s {
	case "大":
		return HeadingLarge
	case "小":
		return HeadingSmall
	default:
		return HeadingMiddle
	}
}

func headingKind(s string) HeadingKind {
	switch s {
	case "同行":
		return HeadingInline
	case "窓":
		return HeadingWindow
	default:
		return HeadingNormal
	}
}

// fullWidthDigits converts a run of full-width digits (U+FF10..U+FF19)
// to its numeric value. It returns ok=false if s contains anything
// outside that range or is empty.
func fullWidthDigits(s string) (value uint32, ok bool) {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0, false
	}
	for _, r := range runes {
		if r < '０' || r > '９' {
			return 0, false
		}
		value = value*10 + uint32(r-'０')
	}
	return value, true
}

// Parse recognises a command body against the closed pattern table.
// Anything it cannot classify comes back as KindUnknown with Raw set to
// body, never an error: recognition failure is a linter concern, not a
// pipeline failure.
func Parse(body string) Command {
	if m := reRef.FindStringSubmatch(body); m != nil {
		return Command{
			Kind: KindInline,
			Inline: InlineCommand{
				Kind:    InlineKindHeadingRef,
				Heading: HeadingInfo{Size: headingSize(m[3]), Kind: headingKind(m[2])},
				Content: m[1],
			},
		}
	}
	if m := reBegin.FindStringSubmatch(body); m != nil {
		return Command{
			Kind: KindBlockBegin,
			Begin: Decoration{
				Tag:     TagHeading,
				Heading: HeadingInfo{Size: headingSize(m[2]), Kind: headingKind(m[1])},
			},
		}
	}
	if m := reEnd.FindStringSubmatch(body); m != nil {
		return Command{Kind: KindBlockEnd, EndTag: TagHeading}
	}
	if m := reJisage.FindStringSubmatch(body); m != nil {
		if n, ok := fullWidthDigits(m[1]); ok {
			return Command{
				Kind: KindInline,
				Inline: InlineCommand{
					Kind:   InlineKindIndent,
					Indent: IndentInfo{Direction: IndentLeading, Spaces: n},
				},
			}
		}
	}
	if m := reJisageBegin.FindStringSubmatch(body); m != nil {
		if n, ok := fullWidthDigits(m[1]); ok {
			return Command{
				Kind: KindBlockBegin,
				Begin: Decoration{
					Tag:    TagIndent,
					Indent: IndentInfo{Direction: IndentLeading, Spaces: n},
				},
			}
		}
	}

	if pb, ok := literalInline[body]; ok {
		return Command{Kind: KindInline, Inline: InlineCommand{Kind: InlineKindPageBreak, PageBreak: pb}}
	}
	if body == "ここで字下げ終わり" {
		return Command{Kind: KindBlockEnd, EndTag: TagIndent}
	}

	return Command{Kind: KindUnknown, Raw: body}
}
