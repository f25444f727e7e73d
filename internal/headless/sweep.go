package headless

import (
	"runtime"
	"sort"
	"sync"

	"convca/internal/core"
)

// SweepRecord pairs a candidate kernel with the outcome of running it.
type SweepRecord struct {
	Index  int
	Kernel core.Kernel
	Result Result
	Err    error
}

// Candidates draws n kernels in [min, max] under sym from a seeded source.
func Candidates(seed int64, n int, min, max float32, sym core.Symmetry) []core.Kernel {
	rng := core.NewRNG(seed)
	out := make([]core.Kernel, n)
	for i := range out {
		out[i] = core.GenerateKernel(rng, min, max, sym)
	}
	return out
}

// Sweep runs base once per kernel on a pool of workers and returns the
// records sorted by descending Score. Failed runs sort last. Every run uses
// the same seed so kernels are compared on identical initial states.
func Sweep(base Options, kernels []core.Kernel, workers int) []SweepRecord {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type job struct {
		index  int
		kernel core.Kernel
	}
	jobs := make(chan job)
	results := make(chan SweepRecord)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				opts := base
				opts.Kernel = &j.kernel
				res, err := Run(opts)
				results <- SweepRecord{Index: j.index, Kernel: j.kernel, Result: res, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for i, k := range kernels {
			jobs <- job{index: i, kernel: k}
		}
		close(jobs)
	}()

	all := make([]SweepRecord, 0, len(kernels))
	for rec := range results {
		all = append(all, rec)
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if sa, sb := a.Result.Score(), b.Result.Score(); sa != sb {
			return sa > sb
		}
		return a.Index < b.Index
	})
	return all
}
