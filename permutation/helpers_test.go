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
	"math/rand"
	"strconv"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// testDomains returns a small domain of size n and its 4n companion.
func testDomains(n uint64, opts ...DomainOption) (*Domain, *Domain) {
	return NewDomain(n, opts...), NewDomain(4*n, opts...)
}

func randomElement(rng *rand.Rand) fr.Element {
	var e fr.Element
	if rng == nil {
		_, _ = e.SetRandom()
		return e
	}
	// reproducible variant used by the determinism tests
	e.SetUint64(rng.Uint64()).Mul(&e, &e).Add(&e, new(fr.Element).SetUint64(rng.Uint64()))
	return e
}

func randomVector(rng *rand.Rand, n int) []fr.Element {
	v := make([]fr.Element, n)
	for i := range v {
		v[i] = randomElement(rng)
	}
	return v
}

// randomPermutation returns a uniformly random position permutation.
func randomPermutation(rng *rand.Rand, size int) Permutation {
	p := make(Permutation, size)
	for i, v := range rng.Perm(size) {
		p[i] = int64(v)
	}
	return p
}

// cycleConsistentWires assigns a random value to every cycle of p, so the
// wires are consistent with the copy constraints the permutation encodes.
func cycleConsistentWires(rng *rand.Rand, p Permutation, width int, n int) [][]fr.Element {
	values := make([]fr.Element, width*n)
	assigned := make([]bool, width*n)
	for start := range values {
		if assigned[start] {
			continue
		}
		v := randomElement(rng)
		pos := start
		for !assigned[pos] {
			values[pos] = v
			assigned[pos] = true
			pos = int(p[pos])
		}
	}
	wires := make([][]fr.Element, width)
	for k := 0; k < width; k++ {
		wires[k] = values[k*n : (k+1)*n]
	}
	return wires
}

// evalPolynomial evaluates a polynomial in coefficient form at p.
func evalPolynomial(c []fr.Element, p fr.Element) fr.Element {
	var r fr.Element
	for i := len(c) - 1; i >= 0; i-- {
		r.Mul(&r, &p).Add(&r, &c[i])
	}
	return r
}

// zEvaluations returns the evaluation form of the grand product held in w.
func zEvaluations(pk *ProvingKey, w *Witness) []fr.Element {
	n := pk.DomainSmall.Cardinality
	evals := append([]fr.Element(nil), w.Z[:n]...)
	pk.DomainSmall.FFT(evals, fft.DIF)
	fft.BitReverse(evals)
	return evals
}

// referenceGrandProduct computes the grand product row ratios with naive
// per-row inversions: it returns the n evaluations Z(ωⁱ) and the total
// product over all rows (the wrap value).
func referenceGrandProduct(pk *ProvingKey, wires [][]fr.Element, beta, gamma fr.Element) (evals []fr.Element, wrap fr.Element) {
	n := int(pk.DomainSmall.Cardinality)
	width := pk.Width
	gens := cosetGeneratorTable(width)

	idTag := func(k, i int) fr.Element {
		if pk.IDPolys {
			return pk.IDLagrange[k][i]
		}
		var root fr.Element
		root.Exp(pk.DomainSmall.Generator, big.NewInt(int64(i)))
		if k > 0 {
			root.Mul(&root, &gens[k-1])
		}
		return root
	}

	evals = make([]fr.Element, n)
	evals[0].SetOne()
	wrap = fr.One()
	var t0, num, den fr.Element
	for i := 0; i < n; i++ {
		num.SetOne()
		den.SetOne()
		for k := 0; k < width; k++ {
			tag := idTag(k, i)
			t0.Mul(&tag, &beta)
			t0.Add(&t0, &wires[k][i])
			t0.Add(&t0, &gamma)
			num.Mul(&num, &t0)

			t0.Mul(&pk.SigmaLagrange[k][i], &beta)
			t0.Add(&t0, &wires[k][i])
			t0.Add(&t0, &gamma)
			den.Mul(&den, &t0)
		}
		den.Inverse(&den)
		t0.Mul(&num, &den)
		wrap.Mul(&wrap, &t0)
		if i < n-1 {
			evals[i+1].Mul(&evals[i], &t0)
		}
	}
	return evals, wrap
}

// buildZ runs round 3 and the queued FFT, leaving Z in coefficient form and
// its coset evaluation in ZFFT. The queued commitment item is dropped.
func buildZ(pk *ProvingKey, w *Witness, beta, gamma fr.Element) {
	t := NewTranscript()
	t.SetChallenge("beta", beta, gamma)
	queue := NewWorkQueue()
	NewProverPermutationWidget(pk, w).ComputeRoundCommitments(t, zRound, queue)

	n := pk.DomainSmall.Cardinality
	for i := range w.ZFFT {
		w.ZFFT[i].SetZero()
	}
	copy(w.ZFFT, w.Z[:n])
	pk.DomainBig.FFT(w.ZFFT, fft.DIF, fft.OnCoset())
	fft.BitReverse(w.ZFFT)
}

// proverOpenings fills the transcript with honest openings of every
// polynomial the verifier reads at the challenge point.
func proverOpenings(t *Transcript, pk *ProvingKey, w *Witness, r []fr.Element, zChallenge fr.Element) {
	n := pk.DomainSmall.Cardinality
	for k := 0; k < pk.Width; k++ {
		canonical := lagrangeToCanonical(pk.DomainSmall, w.WireLagrange[k])
		t.SetElement("w_"+strconv.Itoa(k+1), evalPolynomial(canonical, zChallenge))
		t.SetElement("sigma_"+strconv.Itoa(k+1), evalPolynomial(pk.SigmaCanonical[k], zChallenge))
		if pk.IDPolys {
			canonicalID := lagrangeToCanonical(pk.DomainSmall, pk.IDLagrange[k])
			t.SetElement("id_"+strconv.Itoa(k+1), evalPolynomial(canonicalID, zChallenge))
		}
	}

	var zOmega fr.Element
	zOmega.Mul(&zChallenge, &pk.DomainSmall.Generator)
	t.SetElement("z_omega", evalPolynomial(w.Z[:n], zOmega))
	t.SetElement("z", evalPolynomial(w.Z[:n], zChallenge))
	if r != nil {
		t.SetElement("r", evalPolynomial(r, zChallenge))
	}
	if len(w.PublicInputs) > 0 {
		t.SetElement("public_inputs", w.PublicInputs...)
	}
}
