//go:build !barcode_gozxing

package barcode

func newDefaultBackend() (Backend, error) { return &pureBackend{}, nil }
