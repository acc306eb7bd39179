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

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Permutation maps each wire position p ∈ [0, width·n) to the position whose
// value it must copy. Position (k, i), wire column k at row i, is flattened
// as k·n + i.
type Permutation []int64

// NewIdentityPermutation returns the permutation fixing every position.
func NewIdentityPermutation(size int) Permutation {
	p := make(Permutation, size)
	for i := range p {
		p[i] = int64(i)
	}
	return p
}

// NewCyclePermutation builds the permutation from copy-constraint cycles:
// within a cycle every position must carry the same value, so each position
// points at the next one. Positions may appear in at most one cycle; the
// rest stay fixed.
func NewCyclePermutation(size int, cycles ...[]int) Permutation {
	p := NewIdentityPermutation(size)
	seen := bitset.New(uint(size))
	for _, cycle := range cycles {
		for j, pos := range cycle {
			if pos < 0 || pos >= size {
				panic(fmt.Sprintf("permutation: position %d out of range [0,%d)", pos, size))
			}
			if seen.Test(uint(pos)) {
				panic(fmt.Sprintf("permutation: position %d appears in two cycles", pos))
			}
			seen.Set(uint(pos))
			p[pos] = int64(cycle[(j+1)%len(cycle)])
		}
	}
	return p
}

// BuildSigmas expands a position permutation into the σ selectors in
// Lagrange basis over the extended identity domain
//
//	[1, ω, …, ωⁿ⁻¹ | g₀·1, …, g₀·ωⁿ⁻¹ | g₁·1, … ]
//
// with gₖ = CosetGenerator(k), i.e. σₖ(ωⁱ) is the identity tag of the
// position that (k, i) maps to.
func BuildSigmas(p Permutation, width int, domain *Domain) [][]fr.Element {
	n := int(domain.Cardinality)
	if len(p) != width*n {
		panic(fmt.Sprintf("permutation: permutation has %d positions, want %d", len(p), width*n))
	}

	// sID = [1, ω, ..., ωⁿ⁻¹, g₀, g₀·ω, ..., g₁, g₁·ω, ...]
	sID := make([]fr.Element, width*n)
	sID[0].SetOne()
	for k := 1; k < width; k++ {
		sID[k*n] = CosetGenerator(k - 1)
	}
	for i := 1; i < n; i++ {
		for k := 0; k < width; k++ {
			sID[k*n+i].Mul(&sID[k*n+i-1], &domain.Generator)
		}
	}

	sigmas := make([][]fr.Element, width)
	for k := 0; k < width; k++ {
		sigmas[k] = make([]fr.Element, n)
		for i := 0; i < n; i++ {
			sigmas[k][i].Set(&sID[p[k*n+i]])
		}
	}
	return sigmas
}
