package xhtml

import (
	"strings"
	"testing"

	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/scanner"
)

func compile(t *testing.T, text string) *block.Block {
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
	return root
}

func TestEnvelopeIncludesTitleAndStylesheet(t *testing.T) {
	root := compile(t, "\n\n本文\n")
	out, _ := Generate(root, "桜桃")
	if !strings.Contains(out, "<title>桜桃</title>") {
		t.Fatalf("missing title: %s", out)
	}
	if !strings.Contains(out, `href="../style/book-style.css"`) {
		t.Fatalf("missing stylesheet link: %s", out)
	}
	if !strings.Contains(out, `class="vrtl"`) {
		t.Fatalf("missing vrtl class: %s", out)
	}
}

func TestParagraphWrapping(t *testing.T) {
	root := compile(t, "\n\n一行目\n二行目\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "<p>一行目</p>") || !strings.Contains(out, "<p>二行目</p>") {
		t.Fatalf("got %s", out)
	}
}

func TestRubyRendering(t *testing.T) {
	root := compile(t, "\n\n明日《あす》\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "<ruby>明日<rt>あす</rt></ruby>") {
		t.Fatalf("got %s", out)
	}
}

func TestHeadingBlockStructureAndToc(t *testing.T) {
	root := compile(t, "\n\n見出し［＃「見出し」は大見出し］\n本文\n")
	out, toc := Generate(root, "t")
	if !strings.Contains(out, `<h2 id="midashi-1">見出し</h2>`) {
		t.Fatalf("got %s", out)
	}
	if len(toc) != 1 || toc[0].Level != 2 || toc[0].Text != "見出し" || toc[0].ID != "midashi-1" {
		t.Fatalf("got toc %+v", toc)
	}
}

func TestEmptyLineBecomesBr(t *testing.T) {
	root := compile(t, "\n\n一行目\n\n二行目\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "<p><br/></p>") {
		t.Fatalf("got %s", out)
	}
}

func TestIndentBlockClassName(t *testing.T) {
	root := compile(t, "\n\n［＃ここから２字下げ］字下げされた本文［＃ここで字下げ終わり］\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, `class="jisage-2"`) {
		t.Fatalf("got %s", out)
	}
}

func TestEscaping(t *testing.T) {
	root := compile(t, "\n\na<b&c\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "a&lt;b&amp;c") {
		t.Fatalf("got %s", out)
	}
}

func TestUnknownCommandRendersNothing(t *testing.T) {
	root := compile(t, "\n\n前［＃なぞの指示］後\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "<p>前後</p>") {
		t.Fatalf("got %s", out)
	}
}

func TestOdorijiLiteral(t *testing.T) {
	root := compile(t, "\n\n時々／＼\n")
	out, _ := Generate(root, "t")
	if !strings.Contains(out, "／＼") {
		t.Fatalf("got %s", out)
	}
}
