// SPDX-License-Identifier: MIT

package ipsdta

import "golang.org/x/sync/errgroup"

// forEach runs fn(0..n-1) on at most workers goroutines and returns the first
// error. Each fn must write only to its own index; callers reduce afterwards
// in index order so results never depend on scheduling.
func forEach(workers, n int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}

	return g.Wait()
}
