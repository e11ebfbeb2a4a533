package copier

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// NewBWLimiter creates a rate.Limiter that caps throughput to
// bytesPerSec. The burst is sized to the block so a full-block WaitN
// never exceeds it.
func NewBWLimiter(bytesPerSec int64, blockSize int) *rate.Limiter {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), blockSize)
}

// limitedReader wraps an io.Reader and throttles reads after the fact,
// so the first block goes through at full speed and the limiter debt is
// paid before the next one.
type limitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		if waitErr := l.limiter.WaitN(l.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
