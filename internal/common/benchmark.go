package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats is the subset of runtime.MemStats a benchmark reports.
type MemoryStats struct {
	Alloc      uint64
	TotalAlloc uint64
	Mallocs    uint64
	NumGC      uint32
}

// ReadMemoryStats samples the allocator counters.
func ReadMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Mallocs:    m.Mallocs,
		NumGC:      m.NumGC,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Mallocs: %d, GC: %d",
		m.Alloc/1024, m.TotalAlloc/1024, m.Mallocs, m.NumGC)
}

// BenchmarkResult summarises repeated runs of one operation.
type BenchmarkResult struct {
	Name       string        `json:"name"`
	Iterations int           `json:"iterations"`
	Total      time.Duration `json:"total"`
	PerOp      time.Duration `json:"per_op"`
	BytesPerOp uint64        `json:"bytes_per_op"`
	AllocsOp   uint64        `json:"allocs_per_op"`
	Err        error         `json:"-"`
}

// RunBenchmark calls fn iterations times, stopping at the first error.
func RunBenchmark(name string, iterations int, fn func() error) BenchmarkResult {
	result := BenchmarkResult{Name: name}
	if iterations < 1 {
		result.Err = fmt.Errorf("%w: %d iterations", ErrArgument, iterations)
		return result
	}
	runtime.GC()
	before := ReadMemoryStats()
	timer := StartTimer(name)
	for range iterations {
		if err := fn(); err != nil {
			result.Err = err
			break
		}
		result.Iterations++
	}
	result.Total = timer.Stop()
	after := ReadMemoryStats()
	if result.Iterations > 0 {
		n := uint64(result.Iterations)
		result.PerOp = result.Total / time.Duration(result.Iterations)
		result.BytesPerOp = (after.TotalAlloc - before.TotalAlloc) / n
		result.AllocsOp = (after.Mallocs - before.Mallocs) / n
	}
	return result
}

func (r BenchmarkResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: ERROR after %d iterations - %v", r.Name, r.Iterations, r.Err)
	}
	return fmt.Sprintf("%s: %d iterations, %v/op, %d B/op, %d allocs/op, total: %v",
		r.Name, r.Iterations, r.PerOp, r.BytesPerOp, r.AllocsOp, r.Total)
}
