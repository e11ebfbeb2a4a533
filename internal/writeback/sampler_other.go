//go:build !linux

package writeback

// New reports ErrUnsupported: dirty accounting comes from /proc/meminfo,
// which only Linux provides.
//
//nolint:ireturn // factory returns interface by design
func New() (Sampler, error) {
	return nil, ErrUnsupported
}
