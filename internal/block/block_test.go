package block

import (
	"testing"

	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/span"
)

func textItem(s string, sp span.Span) itemparser.Item {
	return itemparser.Item{Kind: itemparser.ItemText, Text: itemparser.DecoratedText{Text: s, Span: sp}, Span: sp}
}

func beginItem(tag command.DecorationTag, sp span.Span) itemparser.Item {
	return itemparser.Item{
		Kind:    itemparser.ItemCmd,
		Command: command.Command{Kind: command.KindBlockBegin, Begin: command.Decoration{Tag: tag}},
		Span:    sp,
	}
}

func endItem(tag command.DecorationTag, sp span.Span) itemparser.Item {
	return itemparser.Item{
		Kind:    itemparser.ItemCmd,
		Command: command.Command{Kind: command.KindBlockEnd, EndTag: tag},
		Span:    sp,
	}
}

func TestFlatItemsBecomeRootChildren(t *testing.T) {
	items := []itemparser.Item{
		textItem("一", span.New(0, 1)),
		textItem("二", span.New(1, 2)),
	}
	root, err := Build(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Decoration != nil {
		t.Fatalf("root should have no decoration")
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d children", len(root.Children))
	}
}

func TestNestedBlock(t *testing.T) {
	items := []itemparser.Item{
		beginItem(command.TagHeading, span.New(0, 3)),
		textItem("見出し本文", span.New(3, 8)),
		endItem(command.TagHeading, span.New(8, 12)),
		textItem("後続", span.New(12, 14)),
	}
	root, err := Build(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("got %d children: %+v", len(root.Children), root.Children)
	}
	if root.Children[0].Kind != ElementBlock {
		t.Fatalf("expected first child to be a block")
	}
	nested := root.Children[0].Block
	if nested.Decoration == nil || nested.Decoration.Tag != command.TagHeading {
		t.Fatalf("got decoration %+v", nested.Decoration)
	}
	if nested.Span.Start != 0 || nested.Span.End != 12 {
		t.Fatalf("got span %v, want [0,12)", nested.Span)
	}
	if len(nested.Children) != 1 {
		t.Fatalf("got %d nested children", len(nested.Children))
	}
}

func TestMismatchedEndTagToleratedLeniently(t *testing.T) {
	items := []itemparser.Item{
		beginItem(command.TagHeading, span.New(0, 1)),
		textItem("x", span.New(1, 2)),
		endItem(command.TagIndent, span.New(2, 3)), // wrong tag, accepted anyway
	}
	root, err := Build(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 1 || root.Children[0].Kind != ElementBlock {
		t.Fatalf("got %+v", root.Children)
	}
}

func TestUnexpectedEndAtRoot(t *testing.T) {
	items := []itemparser.Item{
		endItem(command.TagHeading, span.New(0, 1)),
	}
	_, err := Build(items)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*UnexpectedEndError); !ok {
		t.Fatalf("got %T, want *UnexpectedEndError", err)
	}
}

func TestImplicitCloseAtEOF(t *testing.T) {
	items := []itemparser.Item{
		beginItem(command.TagHeading, span.New(0, 1)),
		beginItem(command.TagIndent, span.New(1, 2)),
		textItem("x", span.New(2, 3)),
		// both blocks left open at end of stream
	}
	root, err := Build(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("got %d root children: %+v", len(root.Children), root.Children)
	}
	outer := root.Children[0].Block
	if outer.Decoration.Tag != command.TagHeading {
		t.Fatalf("got outer decoration %+v", outer.Decoration)
	}
	if len(outer.Children) != 1 || outer.Children[0].Kind != ElementBlock {
		t.Fatalf("got outer children %+v", outer.Children)
	}
	inner := outer.Children[0].Block
	if inner.Decoration.Tag != command.TagIndent {
		t.Fatalf("got inner decoration %+v", inner.Decoration)
	}
	if len(inner.Children) != 1 {
		t.Fatalf("got inner children %+v", inner.Children)
	}
}

func TestEmptyRootHasZeroSpan(t *testing.T) {
	root, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Span.Start != 0 || root.Span.End != 0 {
		t.Fatalf("got span %v, want zero value", root.Span)
	}
}
