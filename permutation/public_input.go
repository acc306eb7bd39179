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

// ComputePublicInputDelta returns
//
//	Δ = ∏ⱼ (piⱼ + β·ω^{j+1} + γ) / (piⱼ − β·ω^{j+1} + γ)
//
// the correction absorbing the public inputs into the grand product, so that
// a valid witness satisfies Z(ωⁿ) = Δ. Both halves of the protocol compute Δ
// from the same transcript vector. The denominators are inverted in one
// batch.
func ComputePublicInputDelta(inputs []fr.Element, beta, gamma, omega fr.Element) fr.Element {
	numerator := fr.One()
	if len(inputs) == 0 {
		return numerator
	}

	denominators := make([]fr.Element, len(inputs))
	workRoot := omega
	var t0, t1, t2 fr.Element
	for j := range inputs {
		t0.Mul(&beta, &workRoot)
		t1.Add(&inputs[j], &gamma)
		t2.Add(&t1, &t0)
		numerator.Mul(&numerator, &t2)
		denominators[j].Sub(&t1, &t0)
		workRoot.Mul(&workRoot, &omega)
	}
	denominators = fr.BatchInvert(denominators)

	for j := range denominators {
		numerator.Mul(&numerator, &denominators[j])
	}
	return numerator
}
