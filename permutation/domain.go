// Copyright 2020 ConsenSys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package permutation

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// Domain is a multiplicative subgroup of the scalar field together with the
// fixed thread partition used by the evaluation kernels. The partition is part
// of the domain rather than an execution detail: each worker seeds its running
// root of unity from its start offset, so NumThreads·ThreadSize == Cardinality
// must hold at all times.
type Domain struct {
	*fft.Domain

	LogSize    uint64
	NumThreads uint64
	ThreadSize uint64
}

type domainConfig struct {
	numThreads uint64
}

// DomainOption configures a Domain at construction time.
type DomainOption func(*domainConfig)

// WithNumThreads pins the thread partition of the domain to n workers
// (n must be a power of two; a count above the domain size is clamped to
// the size). The kernels
// produce identical outputs for any partition; pinning is useful to exercise
// exactly that.
func WithNumThreads(n uint64) DomainOption {
	return func(cfg *domainConfig) {
		cfg.numThreads = n
	}
}

// NewDomain returns a domain of the given size (a power of two).
func NewDomain(size uint64, opts ...DomainOption) *Domain {
	if size == 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("permutation: domain size %d is not a power of two", size))
	}

	var cfg domainConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	numThreads := cfg.numThreads
	if numThreads == 0 {
		numThreads = 1
		for numThreads*2 <= uint64(runtime.NumCPU()) {
			numThreads *= 2
		}
	}
	if numThreads > size {
		numThreads = size
	}
	if numThreads&(numThreads-1) != 0 {
		panic(fmt.Sprintf("permutation: thread count %d is not a power of two", numThreads))
	}

	return &Domain{
		Domain:     fft.NewDomain(size),
		LogSize:    uint64(bits.TrailingZeros64(size)),
		NumThreads: numThreads,
		ThreadSize: size / numThreads,
	}
}

// LagrangeEvaluations returns L₁(z), L₁(z·ω²) and the vanishing evaluation
// zⁿ−1, where L₁ is the Lagrange kernel that is 1 at ω⁰ and 0 elsewhere on
// the domain. L₁(z·ω²) is the kernel that is 1 at ω^{n−2}, the row on which
// the grand-product wrap is enforced.
//
//	L₁(z)    = (zⁿ−1) / (n·(z−1))
//	L₁(z·ω²) = (zⁿ−1) / (n·(z·ω²−1))
//
// zⁿ is computed by LogSize successive squarings.
func (d *Domain) LagrangeEvaluations(z fr.Element) (l1, lEnd, vanishing fr.Element) {
	zPow := z
	for i := uint64(0); i < d.LogSize; i++ {
		zPow.Square(&zPow)
	}
	one := fr.One()
	vanishing.Sub(&zPow, &one)

	var numerator fr.Element
	numerator.Mul(&vanishing, &d.CardinalityInv)

	var omegaSqr fr.Element
	omegaSqr.Square(&d.Generator)

	denominators := make([]fr.Element, 2)
	denominators[0].Sub(&z, &one)
	denominators[1].Mul(&z, &omegaSqr).Sub(&denominators[1], &one)
	denominators = fr.BatchInvert(denominators)

	l1.Mul(&numerator, &denominators[0])
	lEnd.Mul(&numerator, &denominators[1])
	return
}

// parallelizeDomain runs work over the fixed thread partition of d and waits
// for all workers. The chunking is protocol-relevant (workers seed running
// roots from their start offset), so this is used instead of utils.Parallelize
// inside the kernels.
func parallelizeDomain(d *Domain, work func(thread, start, end uint64)) {
	var wg sync.WaitGroup
	for j := uint64(0); j < d.NumThreads; j++ {
		wg.Add(1)
		go func(j uint64) {
			work(j, j*d.ThreadSize, (j+1)*d.ThreadSize)
			wg.Done()
		}(j)
	}
	wg.Wait()
}
