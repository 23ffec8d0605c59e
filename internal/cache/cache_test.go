package cache

import (
	"testing"

	"github.com/aozora-toolkit/compiler/internal/lint"
	"github.com/aozora-toolkit/compiler/internal/xhtml"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetMissIsNotAnError(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Get("nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss")
	}
}

func TestPutThenGetIsIdempotent(t *testing.T) {
	c := openTestCache(t)
	want := Entry{
		Title: "桜桃",
		XHTML: "<html></html>",
		TOC:   []xhtml.TocEntry{{Level: 2, Text: "序章", ID: "midashi-1"}},
		Diagnostics: []lint.Diagnostic{
			{Kind: lint.OddEllipsisOrDash, Severity: lint.Warning, Message: "test"},
		},
	}
	if err := c.Put("hash-1", want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := c.Get("hash-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit")
	}
	if got.XHTML != want.XHTML || got.Title != want.Title {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if len(got.TOC) != 1 || got.TOC[0].ID != "midashi-1" {
		t.Fatalf("toc not preserved: %+v", got.TOC)
	}
	if len(got.Diagnostics) != 1 {
		t.Fatalf("diagnostics not preserved: %+v", got.Diagnostics)
	}
}

func TestPutOverwritesExistingHash(t *testing.T) {
	c := openTestCache(t)
	if err := c.Put("hash-1", Entry{Title: "A", XHTML: "<p>A</p>"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Put("hash-1", Entry{Title: "B", XHTML: "<p>B</p>"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get("hash-1")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Title != "B" {
		t.Fatalf("expected overwrite, got %q", got.Title)
	}
}
