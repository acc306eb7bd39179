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

package utils

import (
	"runtime"
	"sync"
)

// Parallelize splits [0, nbIterations) into one contiguous chunk per worker
// and waits for all of them. The worker count defaults to the number of CPUs;
// a positive maxCpus replaces it. Chunk boundaries depend only on the worker
// count, never on scheduling, so callers writing disjoint ranges stay
// deterministic.
func Parallelize(nbIterations int, work func(start, end int), maxCpus ...int) {
	nbWorkers := runtime.NumCPU()
	if len(maxCpus) == 1 && maxCpus[0] > 0 {
		nbWorkers = maxCpus[0]
	}
	if nbWorkers > nbIterations {
		nbWorkers = nbIterations
	}
	if nbWorkers <= 1 {
		work(0, nbIterations)
		return
	}

	chunk := nbIterations / nbWorkers
	remainder := nbIterations % nbWorkers

	var wg sync.WaitGroup
	wg.Add(nbWorkers)
	start := 0
	for i := 0; i < nbWorkers; i++ {
		end := start + chunk
		if i < remainder {
			end++
		}
		go func(start, end int) {
			work(start, end)
			wg.Done()
		}(start, end)
		start = end
	}
	wg.Wait()
}
