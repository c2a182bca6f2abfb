// Package common holds the error kinds and result types shared by the
// codec packages, plus timing helpers.
package common

import "errors"

// Sentinel errors shared by the codec packages. Callers wrap them with
// fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrFormat reports a malformed bit stream or a symbol whose geometry
	// does not match any known version.
	ErrFormat = errors.New("format error")

	// ErrChecksum reports that Reed-Solomon correction exceeded the error budget.
	ErrChecksum = errors.New("checksum error")

	// ErrArgument reports a violated precondition at the call site.
	ErrArgument = errors.New("invalid argument")

	// ErrNotFound reports that no symbol could be located in the input.
	ErrNotFound = errors.New("barcode not found")
)

// IsDecodeFailure reports whether err means "no barcode recognized"
// rather than a caller mistake.
func IsDecodeFailure(err error) bool {
	return errors.Is(err, ErrFormat) || errors.Is(err, ErrChecksum) || errors.Is(err, ErrNotFound)
}
