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
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// frMultiplicativeGen is the smallest generator of the full multiplicative
// group of BN254's scalar field; it matches fft.Domain.FrMultiplicativeGen,
// the shift used by the coset evaluations.
const frMultiplicativeGen = 5

// CosetGenerator returns gᵏ⁺¹ with g the multiplicative generator of the
// field. The permutation argument extends the identity domain to
// width·n positions by tagging wire column k+2 with CosetGenerator(k);
// together with 1, these elements index pairwise-distinct cosets of the
// 2-adic subgroup.
func CosetGenerator(k int) fr.Element {
	var g, res fr.Element
	g.SetUint64(frMultiplicativeGen)
	res.Set(&g)
	for i := 0; i < k; i++ {
		res.Mul(&res, &g)
	}
	return res
}

// cosetGeneratorTable returns the generators used by a circuit of the given
// width: entry k−1 tags wire column k+1, so the table has width−1 entries.
func cosetGeneratorTable(width int) []fr.Element {
	if width < 2 {
		return nil
	}
	gens := make([]fr.Element, width-1)
	gens[0] = CosetGenerator(0)
	for k := 1; k < width-1; k++ {
		gens[k].Mul(&gens[k-1], &gens[0])
	}
	return gens
}
