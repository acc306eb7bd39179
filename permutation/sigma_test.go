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
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCyclePermutation(t *testing.T) {
	p := NewCyclePermutation(6, []int{0, 3}, []int{1, 4, 5})
	assert.Equal(t, Permutation{3, 4, 2, 0, 5, 1}, p)

	assert.Panics(t, func() { NewCyclePermutation(4, []int{0, 1}, []int{1, 2}) }, "overlapping cycles")
	assert.Panics(t, func() { NewCyclePermutation(4, []int{0, 7}) }, "out of range")
}

// The identity permutation expands to σₖ(ωⁱ) = g_{k−1}·ωⁱ.
func TestBuildSigmasIdentity(t *testing.T) {
	const width, n = 3, 8
	d := NewDomain(n)
	sigmas := BuildSigmas(NewIdentityPermutation(width*n), width, d)

	gens := cosetGeneratorTable(width)
	for k := 0; k < width; k++ {
		for i := 0; i < n; i++ {
			var want fr.Element
			want.Exp(d.Generator, big.NewInt(int64(i)))
			if k > 0 {
				want.Mul(&want, &gens[k-1])
			}
			require.True(t, sigmas[k][i].Equal(&want), "sigma_%d[%d]", k+1, i)
		}
	}
}

// σ must permute the extended identity multiset.
func TestBuildSigmasPermutesTags(t *testing.T) {
	const width, n = 2, 8
	d := NewDomain(n)
	perm := NewCyclePermutation(width*n, []int{0, 9, 3})
	sigmas := BuildSigmas(perm, width, d)

	id := BuildSigmas(NewIdentityPermutation(width*n), width, d)
	seen := make(map[string]int)
	for k := 0; k < width; k++ {
		for i := 0; i < n; i++ {
			seen[id[k][i].String()]++
			seen[sigmas[k][i].String()]--
		}
	}
	for tag, count := range seen {
		assert.Zero(t, count, "tag %s not balanced", tag)
	}
}
