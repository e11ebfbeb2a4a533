// Package copier implements the block copy loop: fixed-size reads and
// writes between two files, progress events on an interval, and a
// best-effort flush request once the last block is down.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/toasterbag/rr/internal/event"
)

// DefaultBlockSize is the read/write chunk size when none is given.
const DefaultBlockSize = 1 << 20 // 1 MiB

// DefaultInterval is the cadence for progress events.
const DefaultInterval = 500 * time.Millisecond

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, DefaultBlockSize)
		return &b
	},
}

// Task describes a single block copy from Source to Dest. A Task is
// owned by the goroutine that calls Run and is not reusable.
type Task struct {
	Source io.Reader
	Dest   *os.File

	// BlockSize is the read/write chunk size. Zero means DefaultBlockSize.
	BlockSize int

	// Count caps the number of blocks read. Zero means copy until EOF.
	Count int64

	// Preallocate, when positive, reserves that many bytes on Dest
	// before the loop starts. Best effort; never extends the visible
	// file size.
	Preallocate int64

	// Events receives CopyProgress/CopyDone/SyncDone/CopyFailed.
	// Run closes the channel when it returns.
	Events chan<- event.Event

	// Interval paces CopyProgress events. Zero means DefaultInterval.
	Interval time.Duration

	// Limiter, when non-nil, throttles reads. Its burst must be at
	// least BlockSize (see NewBWLimiter).
	Limiter *rate.Limiter
}

// Run copies blocks until EOF or the block budget is spent, then issues
// a flush request on Dest and returns the total bytes written. The
// events channel is closed before Run returns.
//
// A flush failure is not an error here: it is carried on the SyncDone
// event so the consumer can warn. Read and write failures are both
// published as CopyFailed and returned.
func (t *Task) Run(ctx context.Context) (uint64, error) {
	defer close(t.Events)

	blockSize := t.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var buf []byte
	if blockSize == DefaultBlockSize {
		bufp := bufPool.Get().(*[]byte)
		defer bufPool.Put(bufp)
		buf = *bufp
	} else {
		buf = make([]byte, blockSize)
	}

	if t.Preallocate > 0 {
		preallocate(t.Dest, t.Preallocate)
	}

	src := t.Source
	if t.Limiter != nil {
		src = &limitedReader{r: t.Source, limiter: t.Limiter, ctx: ctx}
	}

	budget := t.Count
	unlimited := budget == 0

	var total uint64
	lastEmit := time.Now()

	for unlimited || budget > 0 {
		if err := ctx.Err(); err != nil {
			t.Events <- event.Event{Type: event.CopyFailed, Bytes: total, Err: err}
			return total, err
		}

		n, err := src.Read(buf)
		if n > 0 {
			// Write exactly the bytes read. The tail of the buffer
			// holds stale data from earlier blocks.
			if werr := writeFull(t.Dest, buf[:n]); werr != nil {
				werr = fmt.Errorf("write destination: %w", werr)
				t.Events <- event.Event{Type: event.CopyFailed, Bytes: total, Err: werr}
				return total, werr
			}
			total += uint64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			err = fmt.Errorf("read source: %w", err)
			t.Events <- event.Event{Type: event.CopyFailed, Bytes: total, Err: err}
			return total, err
		}
		if n == 0 {
			break
		}

		budget--

		if time.Since(lastEmit) >= interval {
			t.Events <- event.Event{Type: event.CopyProgress, Bytes: total}
			lastEmit = time.Now()
		}
	}

	// Final snapshot is unconditional; the timed emissions above may
	// have skipped the last blocks.
	t.Events <- event.Event{Type: event.CopyProgress, Bytes: total}
	t.Events <- event.Event{Type: event.CopyDone, Bytes: total}

	// Ask the kernel to start writing dirty pages out. Failure does not
	// fail the copy, but the consumer gets to see it.
	flushErr := flush(t.Dest)
	if flushErr != nil {
		flushErr = fmt.Errorf("flush destination: %w", flushErr)
	}
	t.Events <- event.Event{Type: event.SyncDone, Bytes: total, Err: flushErr}

	return total, nil
}

// writeFull writes all of p, looping on short writes.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
