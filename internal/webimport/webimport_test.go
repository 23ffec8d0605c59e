package webimport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSanitizeRubyStripsRtAndRp(t *testing.T) {
	in := []byte(`<p>漢字<rp>（</rp><rt>かんじ</rt><rp>）</rp>です。</p>`)
	out := string(SanitizeRuby(in))
	if strings.Contains(out, "<rt") || strings.Contains(out, "<rp") {
		t.Fatalf("ruby markup survived: %s", out)
	}
	if !strings.Contains(out, "漢字") || !strings.Contains(out, "です") {
		t.Fatalf("base text lost: %s", out)
	}
}

func TestFetchExtractsArticle(t *testing.T) {
	const page = `<!DOCTYPE html>
<html><head><title>テスト</title></head>
<body>
<article>
<h1>見出し</h1>
<p>これは本文です。<rp>（</rp><rt>ほんぶん</rt><rp>）</rp>もう少し文章を足して、readabilityが本文として認識できる程度の長さにします。さらに文章を続けます。</p>
</article>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	defer srv.Close()

	result, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if strings.Contains(result.Text, "ほんぶん") {
		t.Fatalf("expected ruby reading to be stripped, got: %s", result.Text)
	}
	if !strings.Contains(result.Text, "本文です") {
		t.Fatalf("expected base text preserved, got: %s", result.Text)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Fetch(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected an error for a 404 response")
	}
}
