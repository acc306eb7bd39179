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
	"runtime"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	"github.com/consensys/gnark-crypto/ecc/bn254/kzg"
	"golang.org/x/sync/errgroup"
)

// WorkType tags a deferred unit of work produced by a proving round.
type WorkType uint8

const (
	// WorkTypeCommit commits to the coefficients of a polynomial.
	WorkTypeCommit WorkType = iota
	// WorkTypeFFT evaluates a named witness polynomial on the coset of the
	// large domain.
	WorkTypeFFT
	// WorkTypeScalarMult schedules a single scalar multiplication.
	WorkTypeScalarMult
)

// WorkItem is one deferred unit of work. The widgets enqueue items and return
// immediately; an orchestrator drains the queue.
type WorkItem struct {
	Type         WorkType
	Coefficients []fr.Element
	Label        string
	Scalar       fr.Element
	Index        int
}

// WorkQueue collects work items. It is fed from the single orchestrator
// thread that drives the proving rounds, so Add does not synchronize.
type WorkQueue struct {
	items       []WorkItem
	commitments map[string]kzg.Digest
	mu          sync.Mutex
}

// NewWorkQueue returns an empty queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{commitments: make(map[string]kzg.Digest)}
}

// Add appends an item to the queue.
func (q *WorkQueue) Add(item WorkItem) {
	q.items = append(q.items, item)
}

// Items returns the queued items, oldest first.
func (q *WorkQueue) Items() []WorkItem {
	return q.items
}

// Commitment returns the commitment computed for label, if Process ran.
func (q *WorkQueue) Commitment(label string) (kzg.Digest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	d, ok := q.commitments[label]
	return d, ok
}

// Process drains the queue. Commit items run concurrently through KZG;
// FFT items evaluate the named witness polynomial on the coset of the large
// domain, in natural order. Items are removed from the queue once done.
func (q *WorkQueue) Process(pk *ProvingKey, w *Witness, kzgPk kzg.ProvingKey) error {
	g := new(errgroup.Group)

	var err error
	for _, item := range q.items {
		switch item.Type {
		case WorkTypeCommit:
			item := item
			g.Go(func() error {
				digest, cErr := kzg.Commit(item.Coefficients, kzgPk, runtime.NumCPU())
				if cErr != nil {
					return fmt.Errorf("commit %q: %w", item.Label, cErr)
				}
				q.mu.Lock()
				q.commitments[item.Label] = digest
				q.mu.Unlock()
				return nil
			})

		case WorkTypeFFT:
			switch item.Label {
			case "z":
				n := pk.DomainSmall.Cardinality
				for i := range w.ZFFT {
					w.ZFFT[i].SetZero()
				}
				copy(w.ZFFT, w.Z[:n])
				pk.DomainBig.FFT(w.ZFFT, fft.DIF, fft.OnCoset())
				fft.BitReverse(w.ZFFT)
			default:
				err = fmt.Errorf("fft work item has unknown label %q", item.Label)
			}

		case WorkTypeScalarMult:
			err = fmt.Errorf("scalar multiplication work items are not processed at this layer")

		default:
			err = fmt.Errorf("unknown work item type %d", item.Type)
		}
		if err != nil {
			break
		}
	}

	if gErr := g.Wait(); gErr != nil && err == nil {
		err = gErr
	}
	if err != nil {
		return err
	}
	q.items = q.items[:0]
	return nil
}
