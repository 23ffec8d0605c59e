// Package batch is the concurrency layer spec.md §5 anticipates but
// deliberately leaves outside the core ("multiple documents may be
// compiled in parallel by invoking the pipeline from independent
// execution contexts... no synchronisation is required"). It runs
// many documents' full pipelines through a fixed worker pool and
// commits cache writes through a batching transactional writer,
// reassembling results in input order by writing each one into a
// slice slot keyed by its submission index.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/aozora-toolkit/compiler/internal/block"
	"github.com/aozora-toolkit/compiler/internal/cache"
	"github.com/aozora-toolkit/compiler/internal/itemparser"
	"github.com/aozora-toolkit/compiler/internal/lint"
	"github.com/aozora-toolkit/compiler/internal/scanner"
	"github.com/aozora-toolkit/compiler/internal/xhtml"
)

// Input is one document submitted for compilation.
type Input struct {
	Name string // caller-facing identifier, e.g. a file path
	Text string // decoded Unicode source (already transcoded)
}

// Result is one document's compiled output, or the error its pipeline
// stopped on. One document's error does not cancel its siblings.
type Result struct {
	Name        string
	XHTML       string
	TOC         []xhtml.TocEntry
	Diagnostics []lint.Diagnostic
	CacheHit    bool
	Err         error
}

// Options configures a Compile call.
type Options struct {
	// Workers is the worker pool size. Defaults to 4 if <= 0.
	Workers int
	// Cache, if non-nil, is consulted before compiling and written to
	// (through a batching writer) after compiling.
	Cache *cache.Cache
	// Furigana, if non-nil, enables the linter's SuggestedRuby rule.
	Furigana lint.FuriganaLookup
}

type indexedResult struct {
	index int
	res   Result
}

// Compile runs docs through the full compiler pipeline concurrently
// and returns their results in input order, regardless of completion
// order.
func Compile(ctx context.Context, docs []Input, opts Options) []Result {
	if len(docs) == 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}

	resultCh := make(chan indexedResult, len(docs))

	var bw *BatchWriter
	if opts.Cache != nil {
		bw = NewBatchWriter(opts.Cache, 20, 100*time.Millisecond)
		defer bw.Close()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wp := NewWorkerPool(workers, workers*2, func(jobCtx context.Context, job Job) {
		res := compileOne(job.Doc, opts, bw)
		select {
		case resultCh <- indexedResult{index: job.Index, res: res}:
		case <-jobCtx.Done():
		}
	})
	wp.Start(ctx)
	defer wp.Close()

	for i, doc := range docs {
		_ = wp.Submit(Job{Index: i, Doc: doc})
	}

	results := make([]Result, len(docs))
	for received := 0; received < len(docs); received++ {
		select {
		case ir := <-resultCh:
			results[ir.index] = ir.res
		case <-ctx.Done():
			for i := range results {
				if results[i].Name == "" && results[i].Err == nil {
					results[i] = Result{Name: docs[i].Name, Err: ctx.Err()}
				}
			}
			return results
		}
	}
	return results
}

// compileOne runs one document through scan → parse → build → lint →
// emit, consulting and populating the cache if one is configured.
func compileOne(doc Input, opts Options, bw *BatchWriter) Result {
	hash := contentHash(doc.Text)

	if opts.Cache != nil {
		if entry, ok, err := opts.Cache.Get(hash); err == nil && ok {
			return Result{
				Name:        doc.Name,
				XHTML:       entry.XHTML,
				TOC:         entry.TOC,
				Diagnostics: entry.Diagnostics,
				CacheHit:    true,
			}
		}
	}

	tokens, err := scanner.Scan(doc.Text)
	if err != nil {
		return Result{Name: doc.Name, Err: err}
	}

	itemDoc := itemparser.Parse(tokens)

	root, err := block.Build(itemDoc.Items)
	if err != nil {
		return Result{Name: doc.Name, Err: err}
	}

	var lintOpts []lint.Option
	if opts.Furigana != nil {
		lintOpts = append(lintOpts, lint.WithFuriganaLookup(opts.Furigana))
	}
	diags := lint.Lint(root, doc.Text, lintOpts...)

	out, toc := xhtml.Generate(root, itemDoc.Metadata.Title)

	result := Result{Name: doc.Name, XHTML: out, TOC: toc, Diagnostics: diags}

	if bw != nil {
		entry := cache.Entry{Title: itemDoc.Metadata.Title, XHTML: out, TOC: toc, Diagnostics: diags}
		_ = bw.Submit(hash, entry) // Submit fails only once the writer is closed; commit errors come back from Close, which Compile discards
	}

	return result
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
