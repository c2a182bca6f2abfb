// Package barcode is the format-neutral facade over the Aztec and Data
// Matrix codecs. It encodes text or bytes into symbol matrices, decodes
// pure matrices, renders them to raster images and reads symbols back
// from images through a pluggable Backend.
//
// The default backend samples clean, axis-aligned renders. Building with
// the tag barcode_gozxing swaps in a gozxing reader that locates symbols
// in photographs and falls back to the sampler:
//
//	go build -tags=barcode_gozxing ./...
package barcode
