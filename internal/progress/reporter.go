// Package progress renders copy and flush progress lines. One line per
// report on plain output; in-place rewrites on a terminal.
package progress

import (
	"fmt"
	"io"
	"time"
)

// clearLine rewinds the cursor and erases the current line.
const clearLine = "\r\x1b[K"

// Reporter formats progress against a fixed total. It keeps only the
// previous value and its timestamp, for the instantaneous rate.
type Reporter struct {
	Out   io.Writer
	Total uint64
	IsTTY bool

	last    uint64
	lastAt  time.Time
	pending bool // a TTY progress line is on screen without a newline
}

// NewReporter returns a reporter writing to out. The rate of the first
// report is measured from this call.
func NewReporter(out io.Writer, total uint64, isTTY bool) *Reporter {
	return &Reporter{Out: out, Total: total, IsTTY: isTTY, lastAt: time.Now()}
}

// Report renders a progress line for the given cumulative byte count.
func (r *Reporter) Report(bytes uint64) {
	r.reportAt(bytes, time.Now())
}

func (r *Reporter) reportAt(bytes uint64, now time.Time) {
	line := fmt.Sprintf("Progress %d%% (%dMiB of %dMiB, %.1fMiB/s)",
		r.percent(bytes),
		bytes/1_000_000,
		r.Total/1_000_000,
		r.rate(bytes, now),
	)

	if r.IsTTY {
		fmt.Fprint(r.Out, clearLine+line)
		r.pending = true
	} else {
		fmt.Fprintln(r.Out, line)
	}

	r.last = bytes
	r.lastAt = now
}

// percent floors value/total. A zero total reads as done: a zero-length
// source has nothing left to copy.
func (r *Reporter) percent(bytes uint64) uint64 {
	if r.Total == 0 {
		return 100
	}
	return bytes * 100 / r.Total
}

// rate is the delta from the previous report over the measured elapsed
// interval, in MB/s. Negative when the estimate moves backwards, which
// the flush phase can produce.
func (r *Reporter) rate(bytes uint64, now time.Time) float64 {
	elapsed := now.Sub(r.lastAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return (float64(bytes) - float64(r.last)) / elapsed / 1e6
}

// Banner prints a standalone message line, closing any pending
// in-place progress line first.
func (r *Reporter) Banner(msg string) {
	r.endLine()
	fmt.Fprintln(r.Out, msg)
}

// Summary prints the final line with the average throughput over the
// whole run. Elapsed is floored to whole seconds, matching the
// coarse-grained average this tool has always reported; sub-second runs
// count as one second.
func (r *Reporter) Summary(elapsed time.Duration) {
	r.endLine()
	secs := uint64(elapsed.Seconds())
	if secs == 0 {
		secs = 1
	}
	fmt.Fprintf(r.Out, "Finished in %v, %.1fMiB/s\n",
		elapsed, float64(r.Total/secs)/1e6)
}

func (r *Reporter) endLine() {
	if r.pending {
		fmt.Fprintln(r.Out)
		r.pending = false
	}
}
