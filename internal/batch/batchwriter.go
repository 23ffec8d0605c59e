package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aozora-toolkit/compiler/internal/cache"
)

// cacheWrite is a single cache.PutTx call buffered for a grouped
// commit.
type cacheWrite struct {
	hash  string
	entry cache.Entry
}

// BatchWriter buffers cache.Put calls and commits them in grouped
// SQLite transactions rather than one transaction per document.
type BatchWriter struct {
	mu          sync.Mutex
	buf         []cacheWrite
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan []cacheWrite
	c        *cache.Cache
	OnError  func(error)

	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter creates a BatchWriter over c. bufferSize triggers a
// flush once reached; flushInterval additionally flushes on a timer
// (0 disables the timer).
func NewBatchWriter(c *cache.Cache, bufferSize int, flushInterval time.Duration) *BatchWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		buf:      make([]cacheWrite, 0, bufferSize),
		cap:      bufferSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan []cacheWrite, 2),
		c:        c,
	}

	bw.wg.Add(1)
	go bw.committer()

	if flushInterval > 0 {
		bw.flushTicker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.loop()
	}
	return bw
}

// Submit enqueues a cache write.
func (bw *BatchWriter) Submit(hash string, entry cache.Entry) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, cacheWrite{hash: hash, entry: entry})
	if len(bw.buf) >= bw.cap {
		bw.flushLocked()
	}
	return nil
}

func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]cacheWrite, 0, bw.cap)

	select {
	case bw.commitCh <- batch:
	case <-bw.ctx.Done():
		err := fmt.Errorf("batch writer: dropping batch of %d items due to shutdown", len(batch))
		bw.recordErr(err)
		if bw.OnError != nil {
			bw.OnError(err)
		}
	}
}

func (bw *BatchWriter) committer() {
	defer bw.wg.Done()
	for batch := range bw.commitCh {
		if err := bw.executeBatch(batch); err != nil {
			bw.recordErr(err)
			if bw.OnError != nil {
				bw.OnError(err)
			}
		}
	}
}

func (bw *BatchWriter) executeBatch(batch []cacheWrite) error {
	if bw.c == nil {
		return nil
	}

	tx, err := bw.c.BeginTx(context.Background())
	if err != nil {
		return fmt.Errorf("batch writer: beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op once committed
	}()

	for _, w := range batch {
		if err := cache.PutTx(tx, w.hash, w.entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("batch writer: committing batch of %d items: %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) loop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.flushTicker.C:
			bw.mu.Lock()
			if len(bw.buf) > 0 {
				bw.flushLocked()
			}
			bw.mu.Unlock()
		}
	}
}

func (bw *BatchWriter) recordErr(err error) {
	bw.errMu.Lock()
	if bw.lastErr == nil {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
}

// Close stops accepting submissions, flushes pending writes, and
// returns the first error observed during any flush.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.flushTicker != nil {
		bw.flushTicker.Stop()
	}
	if len(bw.buf) > 0 {
		bw.flushLocked()
	}
	bw.mu.Unlock()

	bw.cancel()
	close(bw.commitCh)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
