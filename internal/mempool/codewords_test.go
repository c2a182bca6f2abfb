package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{name: "small size gets minimum", input: 1, expected: 256},
		{name: "exactly one step", input: 256, expected: 256},
		{name: "just over one step", input: 257, expected: 512},
		{name: "odd number", input: 1500, expected: 1536},
		{name: "144x144 codewords", input: 2178, expected: 2304},
		{name: "zero size", input: 0, expected: 256},
		{name: "negative size", input: -1, expected: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sizeClass(tt.input))
		})
	}
}

func TestGetInts_BasicFunctionality(t *testing.T) {
	for _, n := range []int{0, 5, 256, 1558, 3000} {
		buf := GetInts(n)
		assert.Len(t, buf, n)
		assert.GreaterOrEqual(t, cap(buf), n)
		for _, v := range buf {
			require.Zero(t, v)
		}
		PutInts(buf)
	}
}

func TestGetInts_ZeroedAfterReuse(t *testing.T) {
	for range 20 {
		buf := GetInts(100)
		for i := range buf {
			require.Zero(t, buf[i])
			buf[i] = i + 1
		}
		PutInts(buf)
	}
}

func TestGetBool_ZeroedAfterReuse(t *testing.T) {
	for range 20 {
		buf := GetBool(300)
		for i := range buf {
			require.False(t, buf[i])
			buf[i] = true
		}
		PutBool(buf)
	}
}

func TestPut_NilAndForeignBuffers(t *testing.T) {
	assert.NotPanics(t, func() {
		PutInts(nil)
		PutBool(nil)
		PutInts(make([]int, 0))
		PutInts(make([]int, 7))
		PutBool(make([]bool, 300))
	})
}

func TestConcurrentAccess(t *testing.T) {
	const workers = 8
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 200 {
				n := (w*37 + i) % 2500
				ints := GetInts(n)
				bools := GetBool(n)
				for j := range ints {
					if ints[j] != 0 || bools[j] {
						t.Errorf("buffer not zeroed at %d", j)
						return
					}
					ints[j] = j
					bools[j] = true
				}
				PutInts(ints)
				PutBool(bools)
			}
		}(w)
	}
	wg.Wait()
}

func BenchmarkGetPutInts(b *testing.B) {
	for b.Loop() {
		buf := GetInts(1558)
		PutInts(buf)
	}
}

func TestPools_StoreSlicePointers(t *testing.T) {
	buf := GetInts(700)
	buf[0] = 42
	PutInts(buf)

	p := poolFor[int](&intPools, sizeClass(700))
	require.NotNil(t, p)
	got := p.Get()
	ptr, ok := got.(*[]int)
	require.True(t, ok, "pool holds %T, want *[]int", got)
	assert.Equal(t, sizeClass(700), len(*ptr))
	p.Put(ptr)

	bp := poolFor[bool](&boolPools, classStep)
	require.NotNil(t, bp)
	_, ok = bp.Get().(*[]bool)
	assert.True(t, ok)

	again := GetInts(700)
	assert.Len(t, again, 700)
	assert.Zero(t, again[0])
	PutInts(again)
}
