package usecase

import "sync"

// parallelMap runs fn once per symbol with at most workers goroutines and
// collects a result or an error per symbol. Failures are independent: one
// symbol's error never affects the others. Completion order is arbitrary;
// callers re-impose request order during assembly.
func parallelMap[T any](symbols []string, workers int, fn func(string) (T, error)) (map[string]T, map[string]error) {
	results := make(map[string]T, len(symbols))
	errs := make(map[string]error)
	if len(symbols) == 0 {
		return results, errs
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				v, err := fn(sym)
				mu.Lock()
				if err != nil {
					errs[sym] = err
				} else {
					results[sym] = v
				}
				mu.Unlock()
			}
		}()
	}

	for _, sym := range symbols {
		jobs <- sym
	}
	close(jobs)
	wg.Wait()
	return results, errs
}
