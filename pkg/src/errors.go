package src

import "github.com/pkg/errors"

// Error kinds. Every error returned by this package wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrFormatViolation is fatal to the whole asset: bad magic, unsupported
	// version, a header that does not fit the data, or malformed header JSON.
	ErrFormatViolation = errors.New("src: format violation")

	// ErrChunkLayout is local to one index or attribute resolution: the
	// buffer view does not have exactly one chunk, a reference is dangling, or
	// the byte-length arithmetic does not match the chunk.
	ErrChunkLayout = errors.New("src: chunk layout mismatch")

	// ErrDecompression is fatal to the whole asset.
	ErrDecompression = errors.New("src: decompression failure")
)
