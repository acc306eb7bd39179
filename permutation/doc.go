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

// Package permutation implements the permutation argument of a PLONK-style
// proof system over BN254's scalar field.
//
// The copy constraints of a circuit are compiled into a permutation σ of the
// wire positions; the argument enforces consistency of the wire values with σ
// through a single grand-product polynomial Z(X) with Z(1) = 1 and
//
//	Z(ω^{i+1}) = Z(ωⁱ) · ∏ₖ (wₖ(ωⁱ)+β·idₖ(ωⁱ)+γ) / ∏ₖ (wₖ(ωⁱ)+β·σₖ(ωⁱ)+γ)
//
// The prover half builds Z in coefficient form, contributes the permutation
// terms of the quotient polynomial on the 4n evaluation domain, and computes
// the linearisation polynomial r(X). The verifier half reconstructs the
// quotient evaluation from the opened values and accumulates the scalar
// multipliers of the committed polynomials for the final pairing check.
package permutation
