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
	fiatshamir "github.com/consensys/gnark-crypto/fiat-shamir"
	"golang.org/x/crypto/blake2s"
)

// Transcript is the view both halves of the protocol share: challenges and
// opened evaluations addressed by name. Challenge derivation is Fiat-Shamir
// over a Blake2s hash; the widgets themselves never squeeze, they only read
// entries the orchestrator has already derived or copied in. A read of a
// missing entry is a programmer error and panics.
//
// The label "beta" carries two challenges: index 0 is β, index 1 is γ.
type Transcript struct {
	fs *fiatshamir.Transcript

	challenges map[string][]fr.Element
	maps       map[string]map[string]fr.Element
	elements   map[string][]fr.Element
}

// protocol order of the derived challenges; a label with several indices is
// registered once per index.
var challengeIDs = []string{
	"beta_0", "beta_1", "alpha_0", "z_0", "nu_r",
}

// NewTranscript returns an empty transcript whose Fiat-Shamir state is seeded
// with the protocol's challenge schedule.
func NewTranscript() *Transcript {
	h, err := blake2s.New256(nil)
	if err != nil {
		panic(err)
	}
	return &Transcript{
		fs:         fiatshamir.NewTranscript(h, challengeIDs...),
		challenges: make(map[string][]fr.Element),
		maps:       make(map[string]map[string]fr.Element),
		elements:   make(map[string][]fr.Element),
	}
}

// Bind absorbs data into the derivation of the named challenge (index 0).
func (t *Transcript) Bind(name string, data []byte) error {
	return t.fs.Bind(name+"_0", data)
}

// SqueezeChallenge derives the challenge at (name, idx) from the transcript
// state and stores it.
func (t *Transcript) SqueezeChallenge(name string, idx int) (fr.Element, error) {
	var r fr.Element
	b, err := t.fs.ComputeChallenge(fmt.Sprintf("%s_%d", name, idx))
	if err != nil {
		return r, err
	}
	r.SetBytes(b)
	for len(t.challenges[name]) <= idx {
		t.challenges[name] = append(t.challenges[name], fr.Element{})
	}
	t.challenges[name][idx] = r
	return r, nil
}

// SqueezeMapChallenge derives the challenge at (mapName, key), e.g. ("nu", "r").
func (t *Transcript) SqueezeMapChallenge(mapName, key string) (fr.Element, error) {
	var r fr.Element
	b, err := t.fs.ComputeChallenge(mapName + "_" + key)
	if err != nil {
		return r, err
	}
	r.SetBytes(b)
	t.SetMapChallenge(mapName, key, r)
	return r, nil
}

// SetChallenge stores the challenges under name (index i holds values[i]),
// bypassing derivation. Used when mirroring a transcript produced elsewhere.
func (t *Transcript) SetChallenge(name string, values ...fr.Element) {
	t.challenges[name] = append([]fr.Element(nil), values...)
}

// Challenge returns the challenge stored at (name, idx).
func (t *Transcript) Challenge(name string, idx int) fr.Element {
	c, ok := t.challenges[name]
	if !ok || idx >= len(c) {
		panic(fmt.Sprintf("permutation: transcript has no challenge %q[%d]", name, idx))
	}
	return c[idx]
}

// SetMapChallenge stores a challenge addressed by (mapName, key).
func (t *Transcript) SetMapChallenge(mapName, key string, v fr.Element) {
	m, ok := t.maps[mapName]
	if !ok {
		m = make(map[string]fr.Element)
		t.maps[mapName] = m
	}
	m[key] = v
}

// MapChallenge returns the challenge stored at (mapName, key).
func (t *Transcript) MapChallenge(mapName, key string) fr.Element {
	m, ok := t.maps[mapName]
	if !ok {
		panic(fmt.Sprintf("permutation: transcript has no challenge map %q", mapName))
	}
	v, ok := m[key]
	if !ok {
		panic(fmt.Sprintf("permutation: transcript has no challenge %q[%q]", mapName, key))
	}
	return v
}

// SetElement stores opened evaluations under name.
func (t *Transcript) SetElement(name string, values ...fr.Element) {
	t.elements[name] = append([]fr.Element(nil), values...)
}

// Element returns the single evaluation stored under name.
func (t *Transcript) Element(name string) fr.Element {
	v, ok := t.elements[name]
	if !ok || len(v) != 1 {
		panic(fmt.Sprintf("permutation: transcript has no element %q", name))
	}
	return v[0]
}

// ElementVector returns the evaluations stored under name; missing names
// yield an empty vector (the public input list may legitimately be empty).
func (t *Transcript) ElementVector(name string) []fr.Element {
	return t.elements[name]
}
