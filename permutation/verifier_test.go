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
	"math/rand"
	"strconv"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The scalar accumulation must write exactly the Z and SIGMA_width scalars of
// the linear combination, accumulating on repeated calls.
func TestAppendScalarMultiplicationInputs(t *testing.T) {
	const width, n = 3, 8
	rng := rand.New(rand.NewSource(33))
	small, large := testDomains(n)

	perm := randomPermutation(rng, width*n)
	pk := NewProvingKey(small, large, BuildSigmas(perm, width, small), nil)
	wires := cycleConsistentWires(rng, perm, width, n)
	w := NewWitness(pk, wires, nil)

	tr, alpha, zChallenge := runProverRounds(t, pk, w, rng)
	nuR := randomElement(rng)
	tr.SetMapChallenge("nu", "r", nuR)

	verifier := NewVerifierPermutationWidget(NewVerifyingKey(pk))
	scalars := make(map[string]fr.Element)
	verifier.AppendScalarMultiplicationInputs(alpha, tr, scalars, true)

	// recompute the multiplicands from the openings directly
	beta := tr.Challenge("beta", 0)
	gamma := tr.Challenge("beta", 1)
	l1, _, _ := pk.DomainSmall.LagrangeEvaluations(zChallenge)

	var zBeta, t0 fr.Element
	zBeta.Mul(&zChallenge, &beta)
	gens := cosetGeneratorTable(width)

	zContribution := fr.One()
	for i := 0; i < width; i++ {
		if i == 0 {
			t0 = zBeta
		} else {
			t0.Mul(&zBeta, &gens[i-1])
		}
		wi := tr.Element("w_" + strconv.Itoa(i+1))
		t0.Add(&t0, &wi).Add(&t0, &gamma)
		zContribution.Mul(&zContribution, &t0)
	}
	var alphaCubed, wantZ fr.Element
	alphaCubed.Square(&alpha).Mul(&alphaCubed, &alpha)
	wantZ.Mul(&zContribution, &alpha)
	t0.Mul(&l1, &alphaCubed)
	wantZ.Add(&wantZ, &t0)
	wantZ.Mul(&wantZ, &nuR)

	sigmaContribution := fr.One()
	for i := 0; i < width-1; i++ {
		si := tr.Element("sigma_" + strconv.Itoa(i+1))
		wi := tr.Element("w_" + strconv.Itoa(i+1))
		t0.Mul(&si, &beta).Add(&t0, &wi).Add(&t0, &gamma)
		sigmaContribution.Mul(&sigmaContribution, &t0)
	}
	zOmega := tr.Element("z_omega")
	sigmaContribution.Mul(&sigmaContribution, &zOmega)
	var wantSigma fr.Element
	wantSigma.Mul(&sigmaContribution, &alpha).Neg(&wantSigma).Mul(&wantSigma, &beta).Mul(&wantSigma, &nuR)

	want := map[string]string{
		"Z":       wantZ.String(),
		"SIGMA_3": wantSigma.String(),
	}
	got := make(map[string]string, len(scalars))
	for k, v := range scalars {
		got[k] = v.String()
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scalar map mismatch (-want +got):\n%s", diff)
	}

	// a second call accumulates
	verifier.AppendScalarMultiplicationInputs(alpha, tr, scalars, true)
	var doubled fr.Element
	doubled.Double(&wantZ)
	zScalar := scalars["Z"]
	assert.True(t, zScalar.Equal(&doubled), "repeated accumulation must add")
}

// Without linearisation no scalar is produced; the ladder still advances.
func TestAppendScalarMultiplicationInputsWithoutLinearisation(t *testing.T) {
	const width, n = 2, 4
	rng := rand.New(rand.NewSource(35))
	small, large := testDomains(n)

	perm := randomPermutation(rng, width*n)
	pk := NewProvingKey(small, large, BuildSigmas(perm, width, small), nil)
	w := NewWitness(pk, cycleConsistentWires(rng, perm, width, n), nil)

	tr, alpha, _ := runProverRounds(t, pk, w, rng)

	verifier := NewVerifierPermutationWidget(NewVerifyingKey(pk))
	scalars := make(map[string]fr.Element)
	got := verifier.AppendScalarMultiplicationInputs(alpha, tr, scalars, false)

	require.Empty(t, scalars)
	var want fr.Element
	want.Square(&alpha).Square(&want)
	assert.True(t, got.Equal(&want))
}

// idpolys mode: the Z scalar is built from the opened id evaluations instead
// of the implicit coset tags; with id_k(X) = g_{k−1}·X both routes coincide.
func TestScalarAccumulationIDPolys(t *testing.T) {
	const width, n = 3, 8
	rng := rand.New(rand.NewSource(37))

	perm := randomPermutation(rng, width*n)
	wires := cycleConsistentWires(rng, perm, width, n)
	ids := BuildSigmas(NewIdentityPermutation(width*n), width, NewDomain(n))

	run := func(idLagrange [][]fr.Element) map[string]fr.Element {
		rngRun := rand.New(rand.NewSource(99))
		small, large := testDomains(n)
		pk := NewProvingKey(small, large, BuildSigmas(perm, width, small), idLagrange)
		w := NewWitness(pk, wires, nil)
		tr, alpha, _ := runProverRounds(t, pk, w, rngRun)
		var nuR fr.Element
		nuR.SetUint64(17)
		tr.SetMapChallenge("nu", "r", nuR)

		scalars := make(map[string]fr.Element)
		NewVerifierPermutationWidget(NewVerifyingKey(pk)).AppendScalarMultiplicationInputs(alpha, tr, scalars, true)
		return scalars
	}

	implicit := run(nil)
	explicit := run(ids)
	for _, label := range []string{"Z", "SIGMA_3"} {
		a, b := implicit[label], explicit[label]
		require.True(t, a.Equal(&b), "scalar %q differs between id modes", label)
	}
}
