package survival

import (
	"runtime"
	"sync"
)

// RunAll simulates every outage start time and returns the T x MaxDuration
// survival matrix. Start times are independent: each worker owns its private
// tensor buffers and writes to its own rows, so parallel and sequential
// execution produce identical results.
func (s *Simulator) RunAll(workers int) [][]float64 {
	T := s.Periods()
	matrix := make([][]float64, T)
	for t := range matrix {
		matrix[t] = make([]float64, s.cfg.MaxDuration)
	}

	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers <= 1 || T <= 1 {
		buf := s.newBuffers()
		for t := 0; t < T; t++ {
			s.Run(t, buf, matrix[t])
		}
		return matrix
	}
	if workers > T {
		workers = T
	}

	starts := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			buf := s.newBuffers()
			for t := range starts {
				s.Run(t, buf, matrix[t])
			}
		}()
	}
	for t := 0; t < T; t++ {
		starts <- t
	}
	close(starts)
	wg.Wait()
	return matrix
}
