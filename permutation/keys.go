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

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
)

// ProvingKey holds the precomputed permutation data of a circuit:
// the σ selectors in Lagrange, canonical and coset-evaluation form, the
// optional explicit identity selectors, the coset evaluation of L₁, and the
// scratch polynomials the prover overlays during Z construction.
type ProvingKey struct {
	Width   int
	IDPolys bool

	DomainSmall *Domain
	DomainBig   *Domain

	// σₖ per wire column. The canonical form of the last column is consumed
	// directly by the linearisation (σ_width is never opened on its own).
	SigmaLagrange  [][]fr.Element // width × n
	SigmaCanonical [][]fr.Element // width × n
	SigmaFFT       [][]fr.Element // width × 4n, coset evaluations

	// explicit identity selectors, only set when IDPolys is true
	IDLagrange [][]fr.Element
	IDFFT      [][]fr.Element

	// coset evaluation of L₁ on the large domain
	LagrangeFirst []fr.Element

	// scratch polynomials owned by the proving state; the grand-product
	// accumulator columns alias these (see accumulatorColumns). Memory at
	// n = 2²² does not allow separate allocations.
	OpeningPoly        []fr.Element // n
	ShiftedOpeningPoly []fr.Element // n
	LinearPoly         []fr.Element // n
	QuotientLarge      []fr.Element // 4n
}

// NewProvingKey builds the proving key from the σ selectors in Lagrange
// basis. idLagrange may be nil, in which case the identity polynomials are
// implicit: idₖ(X) = g_{k−1}·X with g₀ = 1.
func NewProvingKey(small, big *Domain, sigmaLagrange, idLagrange [][]fr.Element) *ProvingKey {
	width := len(sigmaLagrange)
	if width == 0 {
		panic("permutation: program width must be at least 1")
	}
	n := small.Cardinality
	if big.Cardinality != 4*n {
		panic(fmt.Sprintf("permutation: large domain has size %d, want %d", big.Cardinality, 4*n))
	}
	for k, s := range sigmaLagrange {
		if uint64(len(s)) != n {
			panic(fmt.Sprintf("permutation: sigma_%d has %d evaluations, want %d", k+1, len(s), n))
		}
	}
	if idLagrange != nil && len(idLagrange) != width {
		panic(fmt.Sprintf("permutation: got %d id polynomials, want %d", len(idLagrange), width))
	}

	pk := &ProvingKey{
		Width:       width,
		IDPolys:     idLagrange != nil,
		DomainSmall: small,
		DomainBig:   big,

		SigmaLagrange:  make([][]fr.Element, width),
		SigmaCanonical: make([][]fr.Element, width),
		SigmaFFT:       make([][]fr.Element, width),

		OpeningPoly:        make([]fr.Element, n),
		ShiftedOpeningPoly: make([]fr.Element, n),
		LinearPoly:         make([]fr.Element, n),
		QuotientLarge:      make([]fr.Element, 4*n),
	}

	for k := 0; k < width; k++ {
		pk.SigmaLagrange[k] = append([]fr.Element(nil), sigmaLagrange[k]...)
		pk.SigmaCanonical[k] = lagrangeToCanonical(small, sigmaLagrange[k])
		pk.SigmaFFT[k] = canonicalToCoset(big, pk.SigmaCanonical[k])
	}

	if pk.IDPolys {
		pk.IDLagrange = make([][]fr.Element, width)
		pk.IDFFT = make([][]fr.Element, width)
		for k := 0; k < width; k++ {
			if uint64(len(idLagrange[k])) != n {
				panic(fmt.Sprintf("permutation: id_%d has %d evaluations, want %d", k+1, len(idLagrange[k]), n))
			}
			pk.IDLagrange[k] = append([]fr.Element(nil), idLagrange[k]...)
			pk.IDFFT[k] = canonicalToCoset(big, lagrangeToCanonical(small, idLagrange[k]))
		}
	}

	// L₁ in coefficient form is the constant vector 1/n.
	l1 := make([]fr.Element, n)
	for i := range l1 {
		l1[i].Set(&small.CardinalityInv)
	}
	pk.LagrangeFirst = canonicalToCoset(big, l1)

	return pk
}

// Witness is the prover's view of one proof: the wire values and the
// polynomials built during the proving rounds.
type Witness struct {
	WireLagrange [][]fr.Element // width × n
	WireFFT      [][]fr.Element // width × 4n, coset evaluations

	// Z has n+1 slots: n coefficients plus the wrap cell the accumulator
	// overlay writes at index n.
	Z    []fr.Element
	ZFFT []fr.Element // 4n

	PublicInputs []fr.Element
}

// NewWitness ingests the wires in Lagrange basis and precomputes their coset
// evaluations on the large domain.
func NewWitness(pk *ProvingKey, wires [][]fr.Element, publicInputs []fr.Element) *Witness {
	if len(wires) != pk.Width {
		panic(fmt.Sprintf("permutation: got %d wire columns, want %d", len(wires), pk.Width))
	}
	n := pk.DomainSmall.Cardinality
	w := &Witness{
		WireLagrange: make([][]fr.Element, pk.Width),
		WireFFT:      make([][]fr.Element, pk.Width),
		Z:            make([]fr.Element, n+1),
		ZFFT:         make([]fr.Element, 4*n),
		PublicInputs: append([]fr.Element(nil), publicInputs...),
	}
	for k, wire := range wires {
		if uint64(len(wire)) != n {
			panic(fmt.Sprintf("permutation: wire %d has %d values, want %d", k+1, len(wire), n))
		}
		w.WireLagrange[k] = append([]fr.Element(nil), wire...)
		w.WireFFT[k] = canonicalToCoset(pk.DomainBig, lagrangeToCanonical(pk.DomainSmall, wire))
	}
	return w
}

// accumulatorColumns maps the 2·width grand-product factor columns onto the
// scratch polynomials of the proving state. The overlay order is fixed:
//
//	0: z[1..n]    1: z_fft[0..n)    2: z_fft[n..2n)    3: z_fft[2n..3n)
//	4: z_fft[3n..4n)   5: opening_poly   6: shifted_opening_poly
//	7: quotient_large[0..n)   8: linear_poly   9: quotient_large[n..2n)
//	10: quotient_large[2n..3n)   11: quotient_large[3n..4n)
//
// Width 1 keeps a third column to serve as the batched-inversion buffer.
// Beyond twelve columns (width ≥ 7) the scratch space is exhausted and the
// remaining columns are fresh allocations.
func (pk *ProvingKey) accumulatorColumns(w *Witness) [][]fr.Element {
	width := pk.Width
	n := pk.DomainSmall.Cardinality

	numCols := 2 * width
	if width == 1 {
		numCols = 3
	}
	cols := make([][]fr.Element, numCols)

	cols[0] = w.Z[1 : n+1]
	cols[1] = w.ZFFT[0:n]
	cols[2] = w.ZFFT[n : 2*n]
	if numCols > 3 {
		cols[3] = w.ZFFT[2*n : 3*n]
	}
	if width > 2 {
		cols[4] = w.ZFFT[3*n : 4*n]
		cols[5] = pk.OpeningPoly
	}
	if width > 3 {
		cols[6] = pk.ShiftedOpeningPoly
		cols[7] = pk.QuotientLarge[0:n]
	}
	if width > 4 {
		cols[8] = pk.LinearPoly
		cols[9] = pk.QuotientLarge[n : 2*n]
	}
	if width > 5 {
		cols[10] = pk.QuotientLarge[2*n : 3*n]
		cols[11] = pk.QuotientLarge[3*n : 4*n]
	}
	for c := 12; c < numCols; c++ {
		cols[c] = make([]fr.Element, n)
	}
	return cols
}

// VerifyingKey is the verifier's view of the circuit: the program width and
// the small evaluation domain.
type VerifyingKey struct {
	ProgramWidth int
	IDPolys      bool
	Domain       *Domain
}

// NewVerifyingKey builds the verifying key matching a proving key.
func NewVerifyingKey(pk *ProvingKey) *VerifyingKey {
	return &VerifyingKey{
		ProgramWidth: pk.Width,
		IDPolys:      pk.IDPolys,
		Domain:       pk.DomainSmall,
	}
}

// lagrangeToCanonical interpolates evaluations on d into coefficient form.
func lagrangeToCanonical(d *Domain, values []fr.Element) []fr.Element {
	c := append([]fr.Element(nil), values...)
	d.FFTInverse(c, fft.DIF)
	fft.BitReverse(c)
	return c
}

// canonicalToCoset evaluates a polynomial in coefficient form on the coset
// g·H of the domain, in natural order.
func canonicalToCoset(d *Domain, coeffs []fr.Element) []fr.Element {
	e := make([]fr.Element, d.Cardinality)
	copy(e, coeffs)
	d.FFT(e, fft.DIF, fft.OnCoset())
	fft.BitReverse(e)
	return e
}
