// Package engine wires the block copier, the writeback sampler and the
// progress reporter into one run: copy phase first, then flush phase.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/toasterbag/rr/internal/copier"
	"github.com/toasterbag/rr/internal/event"
	"github.com/toasterbag/rr/internal/progress"
	"github.com/toasterbag/rr/internal/writeback"
)

// ErrDestIsDir reports that the output path names a directory. The copy
// refuses to run rather than guess a file name inside it.
var ErrDestIsDir = errors.New("destination is a directory")

// eventBuffer is sized so the copier's 500ms cadence never blocks on a
// consumer that is mid-poll.
const eventBuffer = 32

// Config describes one copy run.
type Config struct {
	Input  string
	Output string

	// BlockSize is the read/write chunk size. Zero means the copier's
	// default of 1 MiB.
	BlockSize int

	// Count caps the number of blocks copied. Zero means until EOF.
	Count int64

	// SyncProgress enables percentage lines during the flush phase,
	// estimated from the kernel's dirty page counter.
	SyncProgress bool

	// BWLimit caps copy throughput in bytes per second. Zero means
	// unlimited.
	BWLimit int64

	// Quiet drops per-snapshot progress lines. Banners and the summary
	// stay.
	Quiet bool

	// IsTTY selects in-place progress rendering.
	IsTTY bool

	// Out receives all product output. Nil means os.Stdout.
	Out io.Writer

	// Sampler overrides the platform dirty page sampler. Nil picks the
	// platform default when SyncProgress is set.
	Sampler writeback.Sampler

	// PollInterval is the flush phase sampling cadence. Zero means 500ms.
	PollInterval time.Duration
}

// Result is the outcome of a completed run.
type Result struct {
	BytesWritten uint64
	Total        uint64
	Elapsed      time.Duration

	// SyncWarning is set when the flush request failed. The copy itself
	// succeeded; the data may still be in the page cache.
	SyncWarning error
}

// Run executes a copy, blocking until the flush signal. Product output
// (banners, progress, summary) goes to cfg.Out; diagnostics go to slog.
func Run(ctx context.Context, cfg Config) (Result, error) {
	var state stateVar
	state.Set(StateInitializing)

	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = copier.DefaultBlockSize
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = copier.DefaultInterval
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	total, err := totalExpected(cfg.Input, blockSize, cfg.Count)
	if err != nil {
		return Result{}, err
	}

	if info, statErr := os.Stat(cfg.Output); statErr == nil && info.IsDir() {
		return Result{}, fmt.Errorf("%s: %w", cfg.Output, ErrDestIsDir)
	}

	// Resolve the sampler up front so a platform without dirty page
	// accounting fails before any bytes move. Without the flush display
	// there is nothing to sample and the flush phase just blocks on the
	// copier's signal.
	var sampler writeback.Sampler
	if cfg.SyncProgress && !cfg.Quiet {
		sampler = cfg.Sampler
		if sampler == nil {
			if sampler, err = writeback.New(); err != nil {
				return Result{}, fmt.Errorf("sync progress: %w", err)
			}
		}
	}

	src, err := os.Open(cfg.Input)
	if err != nil {
		return Result{}, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("open destination: %w", err)
	}
	defer dst.Close()

	var limiter *rate.Limiter
	if cfg.BWLimit > 0 {
		limiter = copier.NewBWLimiter(cfg.BWLimit, blockSize)
	}

	events := make(chan event.Event, eventBuffer)
	task := &copier.Task{
		Source:      src,
		Dest:        dst,
		BlockSize:   blockSize,
		Count:       cfg.Count,
		Preallocate: int64(total), //nolint:gosec // G115: total derived from file size / flag values
		Events:      events,
		Limiter:     limiter,
	}

	reporter := progress.NewReporter(out, total, cfg.IsTTY)

	slog.Debug("starting copy",
		"input", cfg.Input,
		"output", cfg.Output,
		"blocksize", blockSize,
		"count", cfg.Count,
		"total", total,
	)

	start := time.Now()
	reporter.Banner("Writing file to OS buffer")
	state.Set(StateCopying)

	g, gctx := errgroup.WithContext(ctx)
	var written uint64
	g.Go(func() error {
		n, runErr := task.Run(gctx)
		written = n
		return runErr
	})

	syncWarning, syncSeen, err := consumeCopyPhase(events, reporter, &state, cfg.Quiet)
	if err == nil && !syncSeen {
		syncWarning, err = consumeFlushPhase(ctx, events, sampler, reporter, total, poll)
	}

	waitErr := g.Wait()
	if err == nil {
		err = waitErr
	}
	if err != nil {
		return Result{}, err
	}

	elapsed := time.Since(start)
	state.Set(StateDone)

	if syncWarning != nil {
		slog.Warn("flush request failed; data may not be durable", "error", syncWarning)
	}
	reporter.Summary(elapsed)

	return Result{
		BytesWritten: written,
		Total:        total,
		Elapsed:      elapsed,
		SyncWarning:  syncWarning,
	}, nil
}

// consumeCopyPhase drains copy snapshots until the copier marks its own
// completion. The phase transition rides the CopyDone marker, never a
// comparison against the predicted total: a count-derived total can
// overshoot the source's real length.
func consumeCopyPhase(
	events <-chan event.Event,
	reporter *progress.Reporter,
	state *stateVar,
	quiet bool,
) (syncWarning error, syncSeen bool, err error) {
	for ev := range events {
		switch ev.Type {
		case event.CopyProgress:
			if !quiet {
				reporter.Report(ev.Bytes)
			}
		case event.CopyDone:
			state.Set(StateFlushing)
			slog.Debug("copy phase complete", "state", state.Get(), "bytes", ev.Bytes)
			reporter.Banner("Syncing filesystem")
			return nil, false, nil
		case event.SyncDone:
			// Flush signal with no CopyDone seen: nothing to monitor.
			return ev.Err, true, nil
		case event.CopyFailed:
			return nil, false, ev.Err
		}
	}
	return nil, true, nil
}

// consumeFlushPhase waits for the copier's flush signal. With a sampler
// it renders estimated flush progress between polls; the estimate is the
// predicted total minus the system-wide dirty byte count, clamped to the
// total. The loop exits on the signal, not on the estimate reaching 100%.
func consumeFlushPhase(
	ctx context.Context,
	events <-chan event.Event,
	sampler writeback.Sampler,
	reporter *progress.Reporter,
	total uint64,
	poll time.Duration,
) (error, error) { //nolint:revive // two error results: flush warning and fatal error
	if sampler == nil {
		for ev := range events {
			if ev.Type == event.SyncDone {
				return ev.Err, nil
			}
		}
		return nil, nil
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil, nil
			}
			if ev.Type == event.SyncDone {
				return ev.Err, nil
			}
		case <-ticker.C:
			dirty, err := sampler.Dirty(ctx)
			if err != nil {
				return nil, fmt.Errorf("flush progress: %w", err)
			}
			est := uint64(0)
			if dirty < total {
				est = total - dirty
			}
			reporter.Report(est)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// totalExpected resolves the percentage denominator once, before the
// copy starts: block count times block size when a count is given, the
// source's current length otherwise.
func totalExpected(input string, blockSize int, count int64) (uint64, error) {
	if count > 0 {
		return uint64(count) * uint64(blockSize), nil //nolint:gosec // G115: flag values validated non-negative
	}
	info, err := os.Stat(input)
	if err != nil {
		return 0, fmt.Errorf("source: %w", err)
	}
	return uint64(info.Size()), nil //nolint:gosec // G115: regular file sizes are non-negative
}
