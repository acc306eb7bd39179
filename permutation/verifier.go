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
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// VerifierPermutationWidget mirrors the prover: it reconstructs the
// permutation terms of the quotient evaluation from the opened values, and
// accumulates the scalar multipliers of the committed polynomials for the
// final pairing check.
type VerifierPermutationWidget struct {
	vk *VerifyingKey
}

// NewVerifierPermutationWidget binds a widget to a verifying key.
func NewVerifierPermutationWidget(vk *VerifyingKey) *VerifierPermutationWidget {
	return &VerifierPermutationWidget{vk: vk}
}

// ComputeQuotientEvaluationContribution adds the permutation terms of the
// quotient numerator at the opening point to tEval and returns α⁴.
//
// With useLinearisation the transcript supplies width−1 σ openings and the
// opening of r; without it, width σ openings and the opening of Z, and the
// terms otherwise folded into r are reconstructed here.
func (vw *VerifierPermutationWidget) ComputeQuotientEvaluationContribution(alpha fr.Element, t *Transcript, tEval *fr.Element, useLinearisation bool) fr.Element {
	vk := vw.vk
	width := vk.ProgramWidth

	var alphaCubed fr.Element
	alphaCubed.Square(&alpha).Mul(&alphaCubed, &alpha)

	z := t.Challenge("z", 0)
	beta := t.Challenge("beta", 0)
	gamma := t.Challenge("beta", 1)
	var zBeta fr.Element
	zBeta.Mul(&z, &beta)

	numSigmaEvaluations := width
	if useLinearisation {
		numSigmaEvaluations = width - 1
	}
	sigmaEvaluations := make([]fr.Element, numSigmaEvaluations)
	for i := range sigmaEvaluations {
		sigmaEvaluations[i] = t.Element("sigma_" + strconv.Itoa(i+1))
	}
	wireEvaluations := make([]fr.Element, width)
	for i := range wireEvaluations {
		wireEvaluations[i] = t.Element("w_" + strconv.Itoa(i+1))
	}

	l1, lEnd, _ := vk.Domain.LagrangeEvaluations(z)

	zShiftedEval := t.Element("z_omega")

	// multiplicands of the Z and σ_width commitments; only consumed when the
	// linearisation folding has not already absorbed them.
	var t0 fr.Element
	zContribution := fr.One()
	gens := cosetGeneratorTable(width)
	for i := 0; i < width; i++ {
		if i == 0 {
			t0 = zBeta
		} else {
			t0.Mul(&zBeta, &gens[i-1])
		}
		t0.Add(&t0, &wireEvaluations[i])
		t0.Add(&t0, &gamma)
		zContribution.Mul(&zContribution, &t0)
	}
	var zMultiplicand fr.Element
	zMultiplicand.Mul(&zContribution, &alpha)
	t0.Mul(&l1, &alphaCubed)
	zMultiplicand.Add(&zMultiplicand, &t0)

	sigmaContribution := fr.One()
	for i := 0; i < width-1; i++ {
		t0.Mul(&sigmaEvaluations[i], &beta)
		t0.Add(&t0, &wireEvaluations[i])
		t0.Add(&t0, &gamma)
		sigmaContribution.Mul(&sigmaContribution, &t0)
	}
	sigmaContribution.Mul(&sigmaContribution, &zShiftedEval)
	var sigmaLastMultiplicand fr.Element
	sigmaLastMultiplicand.Mul(&sigmaContribution, &alpha)
	sigmaLastMultiplicand.Neg(&sigmaLastMultiplicand)
	sigmaLastMultiplicand.Mul(&sigmaLastMultiplicand, &beta)

	// reconstruct the quotient numerator evaluation from the openings
	var alphaPow [4]fr.Element
	alphaPow[0] = alpha
	for i := 1; i < 4; i++ {
		alphaPow[i].Mul(&alphaPow[i-1], &alphaPow[0])
	}

	reconstructed := fr.One()
	for i := 0; i < width-1; i++ {
		t0.Mul(&sigmaEvaluations[i], &beta)
		t0.Add(&t0, &wireEvaluations[i])
		t0.Add(&t0, &gamma)
		reconstructed.Mul(&reconstructed, &t0)
	}

	publicInputDelta := ComputePublicInputDelta(t.ElementVector("public_inputs"), beta, gamma, vk.Domain.Generator)

	t0.Add(&wireEvaluations[width-1], &gamma)
	reconstructed.Mul(&reconstructed, &t0)
	reconstructed.Mul(&reconstructed, &zShiftedEval)
	reconstructed.Mul(&reconstructed, &alphaPow[0])

	var t1, t2 fr.Element
	t1.Sub(&zShiftedEval, &publicInputDelta)
	t1.Mul(&t1, &lEnd)
	t1.Mul(&t1, &alphaPow[1])

	t2.Mul(&l1, &alphaPow[2])
	t1.Sub(&t1, &t2)
	t1.Sub(&t1, &reconstructed)

	if useLinearisation {
		linearEval := t.Element("r")
		t1.Add(&t1, &linearEval)
	}

	tEval.Add(tEval, &t1)

	if !useLinearisation {
		zEval := t.Element("z")
		t0.Mul(&zMultiplicand, &zEval)
		tEval.Add(tEval, &t0)
		t0.Mul(&sigmaLastMultiplicand, &sigmaEvaluations[width-1])
		tEval.Add(tEval, &t0)
	}

	var next fr.Element
	next.Square(&alpha).Square(&next)
	return next
}

// AppendScalarMultiplicationInputs accumulates the scalar multipliers of the
// "Z" and "SIGMA_width" commitments into scalars and returns αbase·α³.
// The accumulation only happens with linearisation; without it the openings
// are checked directly and no commitment needs a permutation scalar.
func (vw *VerifierPermutationWidget) AppendScalarMultiplicationInputs(alphaBase fr.Element, t *Transcript, scalars map[string]fr.Element, useLinearisation bool) fr.Element {
	vk := vw.vk
	width := vk.ProgramWidth

	alphaStep := t.Challenge("alpha", 0)

	var alphaCubed fr.Element
	alphaCubed.Square(&alphaStep).Mul(&alphaCubed, &alphaBase)

	zShiftedEval := t.Element("z_omega")

	z := t.Challenge("z", 0)
	beta := t.Challenge("beta", 0)
	gamma := t.Challenge("beta", 1)
	var zBeta fr.Element
	zBeta.Mul(&z, &beta)

	wireEvaluations := make([]fr.Element, width)
	for i := range wireEvaluations {
		wireEvaluations[i] = t.Element("w_" + strconv.Itoa(i+1))
	}

	l1, _, _ := vk.Domain.LagrangeEvaluations(z)

	if useLinearisation {
		linearNu := t.MapChallenge("nu", "r")

		var t0 fr.Element
		zContribution := fr.One()
		if !vk.IDPolys {
			gens := cosetGeneratorTable(width)
			for i := 0; i < width; i++ {
				if i == 0 {
					t0 = zBeta
				} else {
					t0.Mul(&zBeta, &gens[i-1])
				}
				t0.Add(&t0, &wireEvaluations[i])
				t0.Add(&t0, &gamma)
				zContribution.Mul(&zContribution, &t0)
			}
		} else {
			for i := 0; i < width; i++ {
				idEvaluation := t.Element("id_" + strconv.Itoa(i+1))
				t0.Mul(&idEvaluation, &beta)
				t0.Add(&t0, &wireEvaluations[i])
				t0.Add(&t0, &gamma)
				zContribution.Mul(&zContribution, &t0)
			}
		}
		var zMultiplicand fr.Element
		zMultiplicand.Mul(&zContribution, &alphaBase)
		t0.Mul(&l1, &alphaCubed)
		zMultiplicand.Add(&zMultiplicand, &t0)
		zMultiplicand.Mul(&zMultiplicand, &linearNu)
		zScalar := scalars["Z"]
		zScalar.Add(&zScalar, &zMultiplicand)
		scalars["Z"] = zScalar

		sigmaContribution := fr.One()
		for i := 0; i < width-1; i++ {
			permutationEvaluation := t.Element("sigma_" + strconv.Itoa(i+1))
			t0.Mul(&permutationEvaluation, &beta)
			t0.Add(&t0, &wireEvaluations[i])
			t0.Add(&t0, &gamma)
			sigmaContribution.Mul(&sigmaContribution, &t0)
		}
		sigmaContribution.Mul(&sigmaContribution, &zShiftedEval)
		var sigmaLastMultiplicand fr.Element
		sigmaLastMultiplicand.Mul(&sigmaContribution, &alphaBase)
		sigmaLastMultiplicand.Neg(&sigmaLastMultiplicand)
		sigmaLastMultiplicand.Mul(&sigmaLastMultiplicand, &beta)
		sigmaLastMultiplicand.Mul(&sigmaLastMultiplicand, &linearNu)
		label := "SIGMA_" + strconv.Itoa(width)
		sigmaScalar := scalars[label]
		sigmaScalar.Add(&sigmaScalar, &sigmaLastMultiplicand)
		scalars[label] = sigmaScalar
	}

	var next fr.Element
	next.Square(&alphaStep).Mul(&next, &alphaStep).Mul(&next, &alphaBase)
	return next
}
