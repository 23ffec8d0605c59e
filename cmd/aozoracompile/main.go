// Command aozoracompile compiles an Aozora Bunko source file (or a web
// article) through the scanner, item parser, block builder, linter,
// and XHTML emitter, optionally caching results in SQLite and
// packaging the output as an EPUB.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aozora-toolkit/compiler/internal/batch"
	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/cache"
	"github.com/aozora-toolkit/compiler/internal/epub"
	"github.com/aozora-toolkit/compiler/internal/furigana"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/lint"
	"github.com/aozora-toolkit/compiler/internal/scanner"
	"github.com/aozora-toolkit/compiler/internal/transcode"
	"github.com/aozora-toolkit/compiler/internal/webimport"
	"github.com/aozora-toolkit/compiler/internal/xhtml"
)

func main() {
	inFlag := flag.String("in", "", "path to an Aozora Bunko source file")
	urlFlag := flag.String("url", "", "URL to fetch and compile instead of -in")
	encodingFlag := flag.String("encoding", "auto", "source encoding: auto, shift_jis, euc-jp, utf-8 (ignored with -url)")
	dbFlag := flag.String("db", "", "path to a SQLite compile cache; omitted disables caching")
	epubFlag := flag.String("epub", "", "path to write a packaged .epub; omitted prints XHTML to stdout")
	furiganaFlag := flag.Bool("furigana", false, "load the IPA dictionary and suggest missing ruby via the linter")
	dateFlag := flag.String("date", "", "free-form date for the EPUB's dcterms:modified (default a fixed epoch)")
	workersFlag := flag.Int("workers", 4, "worker pool size for batch mode (one or more trailing file arguments)")
	flag.Parse()

	batchFiles := flag.Args()
	if len(batchFiles) == 0 && *inFlag == "" && *urlFlag == "" {
		log.Fatal("Please provide -in, -url, or one or more trailing file arguments for batch mode")
	}
	if len(batchFiles) > 0 && (*inFlag != "" || *urlFlag != "") {
		log.Fatal("trailing file arguments (batch mode) and -in/-url are mutually exclusive")
	}
	if *inFlag != "" && *urlFlag != "" {
		log.Fatal("-in and -url are mutually exclusive")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var lookup lint.FuriganaLookup
	if *furiganaFlag {
		advisor, err := furigana.NewAdvisor()
		if err != nil {
			log.Fatalf("Failed to load furigana dictionary: %v", err)
		}
		lookup = advisor.Lookup
	}

	var c *cache.Cache
	if *dbFlag != "" {
		var err error
		c, err = cache.Open(*dbFlag)
		if err != nil {
			log.Fatalf("Failed to open compile cache: %v", err)
		}
		defer c.Close()
	}

	if len(batchFiles) > 0 {
		runBatch(batchFiles, *encodingFlag, *epubFlag, *dateFlag, lookup, c, *workersFlag)
		return
	}

	title, text := fetchSource(ctx, *inFlag, *urlFlag, *encodingFlag)

	result, cacheHit, err := compile(text, title, lookup, c)
	if err != nil {
		log.Fatalf("Compilation failed: %v", err)
	}
	if cacheHit {
		fmt.Fprintln(os.Stderr, "Cache hit; reusing previously compiled output.")
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", d.Severity, d.Message)
	}

	if *epubFlag == "" {
		fmt.Println(result.XHTML)
		return
	}

	f, err := os.Create(*epubFlag)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *epubFlag, err)
	}
	defer f.Close()

	meta := epub.Metadata{Title: title, Modified: *dateFlag}
	if err := epub.Package(f, result.XHTML, result.TOC, meta); err != nil {
		log.Fatalf("Failed to package EPUB: %v", err)
	}
	fmt.Printf("Wrote %s\n", *epubFlag)
}

// runBatch compiles every file in paths concurrently through
// internal/batch.Compile with per-document error isolation: one file's
// failure is logged and does not abort its siblings. If
// epubDir is set, each document's output is packaged as an .epub inside
// it instead of being printed to stdout.
func runBatch(paths []string, encodingName, epubDir, date string, lookup lint.FuriganaLookup, c *cache.Cache, workers int) {
	enc, err := transcode.ParseEncoding(encodingName)
	if err != nil {
		log.Fatalf("Invalid -encoding %q: %v", encodingName, err)
	}

	docs := make([]batch.Input, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", p, err)
		}
		text, err := transcode.Decode(data, enc)
		if err != nil {
			log.Fatalf("Failed to decode %s: %v", p, err)
		}
		docs[i] = batch.Input{Name: p, Text: text}
	}

	results := batch.Compile(context.Background(), docs, batch.Options{
		Workers:  workers,
		Cache:    c,
		Furigana: lookup,
	})

	if epubDir != "" {
		if err := os.MkdirAll(epubDir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", epubDir, err)
		}
	}

	for _, r := range results {
		if r.Err != nil {
			log.Printf("%s: compilation failed: %v", r.Name, r.Err)
			continue
		}
		for _, d := range r.Diagnostics {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", r.Name, d.Severity, d.Message)
		}

		if epubDir == "" {
			fmt.Printf("----- %s -----\n%s\n", r.Name, r.XHTML)
			continue
		}

		outPath := filepath.Join(epubDir, strings.TrimSuffix(filepath.Base(r.Name), filepath.Ext(r.Name))+".epub")
		f, err := os.Create(outPath)
		if err != nil {
			log.Printf("%s: failed to create %s: %v", r.Name, outPath, err)
			continue
		}
		err = epub.Package(f, r.XHTML, r.TOC, epub.Metadata{Title: r.Name, Modified: date})
		f.Close()
		if err != nil {
			log.Printf("%s: failed to package epub: %v", r.Name, err)
			continue
		}
		fmt.Printf("Wrote %s\n", outPath)
	}
}

// fetchSource resolves -in/-url into a decoded title and body text.
func fetchSource(ctx context.Context, inPath, url, encodingName string) (title, text string) {
	if url != "" {
		res, err := webimport.Fetch(ctx, url)
		if err != nil {
			log.Fatalf("Failed to fetch %s: %v", url, err)
		}
		return res.Title, res.Text
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", inPath, err)
	}
	enc, err := transcode.ParseEncoding(encodingName)
	if err != nil {
		log.Fatalf("Invalid -encoding %q: %v", encodingName, err)
	}
	decoded, err := transcode.Decode(data, enc)
	if err != nil {
		log.Fatalf("Failed to decode %s: %v", inPath, err)
	}
	return inPath, decoded
}

type compileResult struct {
	XHTML       string
	TOC         []xhtml.TocEntry
	Diagnostics []lint.Diagnostic
}

// compile runs the core pipeline, consulting and populating c (if
// non-nil) the same way internal/batch.compileOne does for a single
// document compiled outside a batch run.
func compile(text, title string, lookup lint.FuriganaLookup, c *cache.Cache) (compileResult, bool, error) {
	hash := contentHash(text)

	if c != nil {
		if entry, ok, err := c.Get(hash); err != nil {
			log.Printf("Warning: cache lookup failed, recompiling: %v", err)
		} else if ok {
			return compileResult{XHTML: entry.XHTML, TOC: entry.TOC, Diagnostics: entry.Diagnostics}, true, nil
		}
	}

	tokens, err := scanner.Scan(text)
	if err != nil {
		return compileResult{}, false, fmt.Errorf("scanning: %w", err)
	}
	itemDoc := itemparser.Parse(tokens)

	root, err := block.Build(itemDoc.Items)
	if err != nil {
		return compileResult{}, false, fmt.Errorf("building blocks: %w", err)
	}

	var opts []lint.Option
	if lookup != nil {
		opts = append(opts, lint.WithFuriganaLookup(lookup))
	}
	diags := lint.Lint(root, text, opts...)

	docTitle := itemDoc.Metadata.Title
	if docTitle == "" {
		docTitle = title
	}
	out, toc := xhtml.Generate(root, docTitle)

	result := compileResult{XHTML: out, TOC: toc, Diagnostics: diags}

	if c != nil {
		entry := cache.Entry{Title: docTitle, XHTML: out, TOC: toc, Diagnostics: diags}
		if err := c.Put(hash, entry); err != nil {
			return result, false, fmt.Errorf("writing compile cache: %w", err)
		}
	}

	return result, false, nil
}

// contentHash is the same SHA-256 hex digest internal/batch uses as a
// cache key, so documents compiled via this CLI and via batch.Compile
// share cache entries.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
