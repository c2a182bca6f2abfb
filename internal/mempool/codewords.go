package mempool

import (
	"sync"
)

// A simple sized pool for codeword ([]int) and module ([]bool) buffers used
// by the decoders when extracting raw bits and de-interleaving blocks.

var (
	intPools  sync.Map // key: size class (int), value: *sync.Pool of *[]int
	boolPools sync.Map // key: size class (int), value: *sync.Pool of *[]bool
)

// classStep is the bucket granularity. The largest symbols carry a few
// thousand codewords, so buckets stay small.
const classStep = 256

// sizeClass rounds n up to the next multiple of classStep.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	r := (n + classStep - 1) / classStep
	return r * classStep
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	p, _ := pAny.(*sync.Pool)
	return p
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	p := poolFor[T](pools, cls)
	if p == nil {
		return make([]T, cls)[:n]
	}
	var buf []T
	if ptr, ok := p.Get().(*[]T); ok && cap(*ptr) >= cls {
		buf = *ptr
	} else {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	// Pooled buffers are reused, callers rely on a zeroed prefix.
	clear(buf)
	return buf
}

func put[T any](pools *sync.Map, buf []T) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		// Foreign buffer whose capacity is not a class size.
		return
	}
	if p := poolFor[T](pools, cls); p != nil {
		full := buf[:cap(buf)]
		p.Put(&full)
	}
}

// GetInts retrieves a zeroed []int of length n from the pool.
// The caller must return it via PutInts when done.
func GetInts(n int) []int {
	return get[int](&intPools, n)
}

// PutInts returns a buffer to the pool. It is safe to pass a nil slice.
func PutInts(buf []int) {
	put(&intPools, buf)
}

// GetBool retrieves a zeroed []bool of length n from the pool.
// The caller must return it via PutBool when done.
func GetBool(n int) []bool {
	return get[bool](&boolPools, n)
}

// PutBool returns a buffer to the pool. It is safe to pass a nil slice.
func PutBool(buf []bool) {
	put(&boolPools, buf)
}
