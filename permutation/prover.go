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
	"math/big"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/rs/zerolog"

	"github.com/consensys/plonk-permutation/internal/utils"
	"github.com/consensys/plonk-permutation/logger"
)

// zRound is the proving round that constructs the grand product.
const zRound = 3

// ProverPermutationWidget builds the permutation argument on the prover side:
// the grand product Z(X), the permutation terms of the quotient polynomial,
// and the linearisation contribution r(X).
type ProverPermutationWidget struct {
	pk  *ProvingKey
	w   *Witness
	log zerolog.Logger
}

// NewProverPermutationWidget binds a widget to a proving key and a witness.
func NewProverPermutationWidget(pk *ProvingKey, w *Witness) *ProverPermutationWidget {
	return &ProverPermutationWidget{
		pk:  pk,
		w:   w,
		log: logger.Widget("permutation"),
	}
}

// ComputeRoundCommitments builds Z(X) when round 3 is reached, writes its
// coefficients into the witness and enqueues the commitment and the large
// domain evaluation. Other rounds are no-ops.
//
// Z(ω⁰) = 1 and Z(ω^{i+1}) = Z(ωⁱ)·numᵢ/denᵢ with
//
//	numᵢ = ∏ₖ (wₖ(ωⁱ) + β·idₖ(ωⁱ) + γ)
//	denᵢ = ∏ₖ (wₖ(ωⁱ) + β·σₖ(ωⁱ) + γ)
//
// The construction runs in three phases over the accumulator overlay: fill
// the 2·width factor columns, turn each column into prefix products, then
// fold and divide with a single Montgomery batched inversion per thread.
func (pw *ProverPermutationWidget) ComputeRoundCommitments(t *Transcript, round int, queue *WorkQueue) {
	if round != zRound {
		return
	}
	pk, w := pw.pk, pw.w
	width := pk.Width
	d := pk.DomainSmall
	n := d.Cardinality

	beta := t.Challenge("beta", 0)
	gamma := t.Challenge("beta", 1)

	acc := pk.accumulatorColumns(w)
	wires := w.WireLagrange
	sigmas := pk.SigmaLagrange
	ids := pk.IDLagrange
	gens := cosetGeneratorTable(width)

	pw.log.Debug().Uint64("n", n).Int("width", width).Bool("idpolys", pk.IDPolys).Msg("building grand product")

	// Phase A: factor columns. Each thread seeds ω^{start}·β once and steps
	// by ω, avoiding a per-row exponentiation.
	parallelizeDomain(d, func(_, start, end uint64) {
		var threadRoot fr.Element
		threadRoot.Exp(d.Generator, new(big.Int).SetUint64(start))
		var curRootTimesBeta fr.Element
		curRootTimesBeta.Mul(&threadRoot, &beta)
		var t0, wirePlusGamma fr.Element
		for i := start; i < end; i++ {
			wirePlusGamma.Add(&gamma, &wires[0][i])
			if pk.IDPolys {
				t0.Mul(&ids[0][i], &beta)
				acc[0][i].Add(&t0, &wirePlusGamma)
			} else {
				acc[0][i].Add(&curRootTimesBeta, &wirePlusGamma)
			}

			t0.Mul(&sigmas[0][i], &beta)
			acc[width][i].Add(&t0, &wirePlusGamma)

			for k := 1; k < width; k++ {
				wirePlusGamma.Add(&gamma, &wires[k][i])
				if pk.IDPolys {
					t0.Mul(&ids[k][i], &beta)
				} else {
					t0.Mul(&gens[k-1], &curRootTimesBeta)
				}
				acc[k][i].Add(&t0, &wirePlusGamma)

				t0.Mul(&sigmas[k][i], &beta)
				acc[k+width][i].Add(&t0, &wirePlusGamma)
			}
			if !pk.IDPolys {
				curRootTimesBeta.Mul(&curRootTimesBeta, &d.Generator)
			}
		}
	})

	// Phase B: prefix products, one serial scan per column. The 2·width
	// scans are the multithreading bottleneck of the construction.
	utils.Parallelize(2*width, func(colStart, colEnd int) {
		for c := colStart; c < colEnd; c++ {
			col := acc[c]
			for j := uint64(0); j < n-1; j++ {
				col[j+1].Mul(&col[j+1], &col[j])
			}
		}
	})

	// Phase C: fold the numerator columns into column 0 and the denominator
	// columns into column width, then divide with Montgomery's trick. The
	// inversion buffer is a column whose content is no longer needed once the
	// fold of the current row has happened. The last thread stops one row
	// short: the wrap cell z[n] is never written.
	inversionIndex := 2*width - 1
	if width == 1 {
		inversionIndex = 2
	}
	inversionCoefficients := acc[inversionIndex]
	parallelizeDomain(d, func(j, start, end uint64) {
		if j == d.NumThreads-1 {
			end--
		}
		inversionAccumulator := fr.One()
		for i := start; i < end; i++ {
			for k := 1; k < width; k++ {
				acc[0][i].Mul(&acc[0][i], &acc[k][i])
				acc[width][i].Mul(&acc[width][i], &acc[width+k][i])
			}
			inversionCoefficients[i].Mul(&acc[0][i], &inversionAccumulator)
			inversionAccumulator.Mul(&inversionAccumulator, &acc[width][i])
		}
		inversionAccumulator.Inverse(&inversionAccumulator)
		for i := int64(end) - 1; i >= int64(start); i-- {
			// acc[0][i] aliases z[i+1]
			acc[0][i].Mul(&inversionAccumulator, &inversionCoefficients[i])
			inversionAccumulator.Mul(&inversionAccumulator, &acc[width][i])
		}
	})

	w.Z[0].SetOne()

	z := w.Z[:n]
	d.FFTInverse(z, fft.DIF)
	fft.BitReverse(z)

	queue.Add(WorkItem{Type: WorkTypeCommit, Coefficients: z, Label: "Z"})
	queue.Add(WorkItem{Type: WorkTypeFFT, Label: "z"})
}

// ComputeQuotientContribution writes the permutation terms of the quotient
// polynomial into QuotientLarge, point by point on the coset of the large
// domain, and returns the α power handed to the next widget (αbase⁴).
//
// Precondition: ZFFT holds the coset evaluation of Z on the large domain (the
// orchestrator runs the FFT work item before this round). At index i the
// shift Z(X·ω) is the index shift (i+4) & (4n−1); the wrap kernel L₁(X·ω²)
// is the shift (i+8) & (4n−1) of LagrangeFirst.
func (pw *ProverPermutationWidget) ComputeQuotientContribution(alphaBase fr.Element, t *Transcript) fr.Element {
	pk, w := pw.pk, pw.w
	width := pk.Width
	blockMask := pk.DomainBig.Cardinality - 1

	var alphaSquared fr.Element
	alphaSquared.Square(&alphaBase)

	beta := t.Challenge("beta", 0)
	gamma := t.Challenge("beta", 1)

	publicInputDelta := ComputePublicInputDelta(t.ElementVector("public_inputs"), beta, gamma, pk.DomainSmall.Generator)

	zFFT := w.ZFFT
	l1 := pk.LagrangeFirst
	quotient := pk.QuotientLarge
	gens := cosetGeneratorTable(width)
	one := fr.One()

	pw.log.Debug().Uint64("size", pk.DomainBig.Cardinality).Msg("computing permutation quotient contribution")

	parallelizeDomain(pk.DomainBig, func(_, start, end uint64) {
		// X at index i is g·ω₄ₙⁱ with g the coset shift, so the running
		// term starts at ω₄ₙ^{start}·g·β.
		var curRootTimesBeta fr.Element
		curRootTimesBeta.Exp(pk.DomainBig.Generator, new(big.Int).SetUint64(start))
		curRootTimesBeta.Mul(&curRootTimesBeta, &pk.DomainSmall.FrMultiplicativeGen)
		curRootTimesBeta.Mul(&curRootTimesBeta, &beta)

		var wirePlusGamma, t0, numerator, denominator fr.Element
		for i := start; i < end; i++ {
			wirePlusGamma.Add(&gamma, &w.WireFFT[0][i])

			if pk.IDPolys {
				numerator.Mul(&pk.IDFFT[0][i], &beta)
				numerator.Add(&numerator, &wirePlusGamma)
			} else {
				numerator.Add(&curRootTimesBeta, &wirePlusGamma)
			}

			denominator.Mul(&pk.SigmaFFT[0][i], &beta)
			denominator.Add(&denominator, &wirePlusGamma)

			for k := 1; k < width; k++ {
				wirePlusGamma.Add(&gamma, &w.WireFFT[k][i])
				if pk.IDPolys {
					t0.Mul(&pk.IDFFT[k][i], &beta)
				} else {
					t0.Mul(&gens[k-1], &curRootTimesBeta)
				}
				t0.Add(&t0, &wirePlusGamma)
				numerator.Mul(&numerator, &t0)

				t0.Mul(&pk.SigmaFFT[k][i], &beta)
				t0.Add(&t0, &wirePlusGamma)
				denominator.Mul(&denominator, &t0)
			}

			numerator.Mul(&numerator, &zFFT[i])
			denominator.Mul(&denominator, &zFFT[(i+4)&blockMask])

			// Wrap check (Z(X·ω) − Δ)·αbase·L₁(X·ω²): the vanishing
			// polynomial of the argument excludes ωⁿ⁻¹, so the claim
			// Z(ωⁿ) = Δ is enforced one row earlier, on Z(X·ω).
			// TODO: with the reduction to a single Z polynomial this check is
			// subsumed by the start check; kept for verifier compatibility.
			t0.Sub(&zFFT[(i+4)&blockMask], &publicInputDelta)
			t0.Mul(&t0, &alphaBase)
			t0.Mul(&t0, &l1[(i+8)&blockMask])
			numerator.Add(&numerator, &t0)

			// Start check (Z(X) − 1)·αbase²·L₁(X).
			t0.Sub(&zFFT[i], &one)
			t0.Mul(&t0, &alphaSquared)
			t0.Mul(&t0, &l1[i])
			numerator.Add(&numerator, &t0)

			t0.Sub(&numerator, &denominator)
			quotient[i].Mul(&t0, &alphaBase)

			curRootTimesBeta.Mul(&curRootTimesBeta, &pk.DomainBig.Generator)
		}
	})

	var next fr.Element
	next.Square(&alphaBase).Square(&next)
	return next
}

// ComputeLinearContribution writes the permutation part of the linearisation
// polynomial into r (length n, coefficient basis) and returns α⁴.
//
// σ_width is consumed in coefficient form: it is the one committed polynomial
// whose opening stays implicit in r.
func (pw *ProverPermutationWidget) ComputeLinearContribution(alpha fr.Element, t *Transcript, r []fr.Element) fr.Element {
	pk, w := pw.pk, pw.w
	width := pk.Width
	n := int(pk.DomainSmall.Cardinality)
	if len(r) != n {
		panic(fmt.Sprintf("permutation: linearisation destination has %d coefficients, want %d", len(r), n))
	}

	zChallenge := t.Challenge("z", 0)
	l1, _, _ := pk.DomainSmall.LagrangeEvaluations(zChallenge)

	var alphaCubed fr.Element
	alphaCubed.Square(&alpha).Mul(&alphaCubed, &alpha)

	beta := t.Challenge("beta", 0)
	gamma := t.Challenge("beta", 1)
	var zBeta fr.Element
	zBeta.Mul(&zChallenge, &beta)

	wireEvaluations := make([]fr.Element, width)
	for i := 0; i < width; i++ {
		wireEvaluations[i] = t.Element("w_" + strconv.Itoa(i+1))
	}
	zShiftedEval := t.Element("z_omega")

	var t0 fr.Element
	zContribution := fr.One()
	if !pk.IDPolys {
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
	zMultiplicand.Mul(&zContribution, &alpha)
	t0.Mul(&l1, &alphaCubed)
	zMultiplicand.Add(&zMultiplicand, &t0)

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
	sigmaLastMultiplicand.Mul(&sigmaContribution, &alpha)
	sigmaLastMultiplicand.Neg(&sigmaLastMultiplicand)
	sigmaLastMultiplicand.Mul(&sigmaLastMultiplicand, &beta)

	sigmaLast := pk.SigmaCanonical[width-1]
	z := w.Z[:n]
	utils.Parallelize(n, func(start, end int) {
		var u0, u1 fr.Element
		for i := start; i < end; i++ {
			u0.Mul(&z[i], &zMultiplicand)
			u1.Mul(&sigmaLast[i], &sigmaLastMultiplicand)
			r[i].Add(&u0, &u1)
		}
	})

	var next fr.Element
	next.Square(&alpha).Square(&next)
	return next
}
