// Package block builds the item sequence produced by internal/itemparser
// into a tree of Blocks, matching BlockBegin/BlockEnd command pairs with
// an explicit stack and auto-closing whatever is still open at end of
// stream.
package block

import (
	"fmt"

	"github.com/aozora-toolkit/compiler/internal/command"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/span"
)

// ElementKind tags whether an Element is a leaf Item or a nested Block.
type ElementKind int

const (
	ElementItem ElementKind = iota
	ElementBlock
)

// Element is one child of a Block: either an Item or a nested Block.
type Element struct {
	Kind  ElementKind
	Item  itemparser.Item // meaningful when Kind == ElementItem
	Block *Block          // meaningful when Kind == ElementBlock
}

// Block is a node in the tree: either the decorationless root, or a
// block opened by a BlockBegin command and (usually) closed by a
// matching BlockEnd.
type Block struct {
	Decoration *command.Decoration // nil for the root
	Children   []Element
	Span       span.Span
}

// UnexpectedEndError reports a BlockEnd command with no matching open
// block (the stack held only the root).
type UnexpectedEndError struct {
	Tag  command.DecorationTag
	Span span.Span
}

func (e *UnexpectedEndError) Error() string {
	return fmt.Sprintf("unexpected block end (tag %d) at %d:%d", e.Tag, e.Span.Start, e.Span.End)
}

// Build assembles a flat item sequence into a Block tree. The only
// error it returns is *UnexpectedEndError; an end tag that does not
// match its block's opening decoration is accepted silently (lenient
// recovery), and blocks still open at end of stream are auto-closed in
// LIFO order rather than treated as an error.
func Build(items []itemparser.Item) (*Block, error) {
	root := &Block{}
	stack := []*Block{root}

	for _, it := range items {
		if it.Kind == itemparser.ItemCmd {
			switch it.Command.Kind {
			case command.KindBlockBegin:
				decoration := it.Command.Begin
				stack = append(stack, &Block{Decoration: &decoration, Span: it.Span})
				continue

			case command.KindBlockEnd:
				if len(stack) <= 1 {
					return nil, &UnexpectedEndError{Tag: it.Command.EndTag, Span: it.Span}
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				top.Span = span.Merge(top.Span, it.Span)
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, Element{Kind: ElementBlock, Block: top})
				continue
			}
		}

		top := stack[len(stack)-1]
		top.Children = append(top.Children, Element{Kind: ElementItem, Item: it})
	}

	// Implicit close: anything still open gets popped onto its parent,
	// innermost first.
	for len(stack) > 1 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, Element{Kind: ElementBlock, Block: top})
	}

	if len(root.Children) > 0 {
		first := elementSpan(root.Children[0])
		last := elementSpan(root.Children[len(root.Children)-1])
		root.Span = span.Merge(first, last)
	}

	return root, nil
}

func elementSpan(e Element) span.Span {
	if e.Kind == ElementBlock {
		return e.Block.Span
	}
	return e.Item.Span
}
