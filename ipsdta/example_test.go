// SPDX-License-Identifier: MIT

package ipsdta_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/ipsdta/ipsdta"
)

// ExampleNew runs a short Ikeshita separation on a synthetic two-channel mixture.
func ExampleNew() {
	x := syntheticMixture(1, 2, 16, 32)

	cfg := ipsdta.DefaultConfig(ipsdta.Ikeshita)
	cfg.NumBasis = 2
	cfg.NumBlocks = 4

	eng, err := ipsdta.New(x, cfg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err = eng.Run(context.Background(), 3); err != nil {
		fmt.Println("error:", err)
		return
	}

	y := eng.Estimate()
	fmt.Println(eng)
	fmt.Println("partition:", eng.Partition())
	fmt.Println("loss values:", len(eng.Loss()))
	fmt.Println("estimate shape:", len(y), len(y[0]), len(y[0][0]))

	// Output:
	// Gauss-IPSDTA(n_basis=2, normalize=true, n_blocks=4, author=Ikeshita)
	// partition: Partition(16 bins: 4x4)
	// loss values: 4
	// estimate shape: 2 16 32
}

// ExampleWithObserver streams the loss after every iteration.
func ExampleWithObserver() {
	x := syntheticMixture(2, 2, 8, 16)

	cfg := ipsdta.DefaultConfig(ipsdta.Kondo)
	cfg.NumBasis = 1
	cfg.NumBlocks = 2
	cfg.SpatialIterations = 1

	seen := 0
	eng, err := ipsdta.New(x, cfg, ipsdta.WithObserver(func(s ipsdta.Snapshot) {
		if _, ok := s.LastLoss(); ok {
			seen++
		}
	}))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	_ = eng.Run(context.Background(), 2)
	fmt.Println("observer calls with a loss:", seen)

	// Output:
	// observer calls with a loss: 3
}
