// Package writeback reads the kernel's dirty page accounting, which the
// flush phase uses to estimate how much copied data still sits in memory
// waiting to reach stable storage.
package writeback

import (
	"context"
	"errors"
)

// ErrUnsupported is returned where the platform exposes no dirty page
// accounting. Callers that only need a blocking flush can proceed without
// a sampler.
var ErrUnsupported = errors.New("writeback: no dirty page accounting on this platform")

// Sampler reports bytes queued for write-back but not yet on stable
// storage. The count is system-wide, not per file.
type Sampler interface {
	Dirty(ctx context.Context) (uint64, error)
}
