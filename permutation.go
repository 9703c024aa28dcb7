// Copyright 2014 Google Inc. All rights reserved.
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

package fec

import "math/rand"

// Permutation is a bijection pi : [0,L) -> [0,L), stored as a vector. The
// inverse is computed on first use and cached on the value.
type Permutation struct {
	forward []int
	inverse []int
}

// NewPermutation wraps an existing index vector as a Permutation. The
// caller is responsible for ensuring p is a bijection on [0,len(p)).
func NewPermutation(p []int) Permutation {
	cp := make([]int, len(p))
	copy(cp, p)
	return Permutation{forward: cp}
}

// IdentityPermutation returns the identity bijection of the given length.
func IdentityPermutation(length int) Permutation {
	p := make([]int, length)
	for i := range p {
		p[i] = i
	}
	return Permutation{forward: p}
}

// RandomPermutation draws a uniformly random permutation of the given
// length using random as its source of randomness. Adapted from
// google-gofountain/util.go's sampleUniform (sampling without replacement
// over the full range is a Fisher-Yates-equivalent permutation draw).
func RandomPermutation(length int, random *rand.Rand) Permutation {
	p := make([]int, length)
	for i := range p {
		p[i] = i
	}
	random.Shuffle(length, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return Permutation{forward: p}
}

// QPPPermutation builds a quadratic-permutation-polynomial interleaver
// pi(i) = (f1*i + f2*i^2) mod length, the block-interleaver family used by
// 3GPP LTE turbo coding (original_source/src/Turbo/Turbo.h's Lte3Gpp
// hints at a standard-defined interleaver; QPP is the standard's actual
// construction for arbitrary block lengths).
func QPPPermutation(length, f1, f2 int) Permutation {
	p := make([]int, length)
	for i := range p {
		p[i] = ((f1*i)%length + (f2*i%length)*i%length) % length
		if p[i] < 0 {
			p[i] += length
		}
	}
	return Permutation{forward: p}
}

// Len returns the permutation's length L.
func (p Permutation) Len() int { return len(p.forward) }

// At returns pi(i).
func (p Permutation) At(i int) int { return p.forward[i] }

// Inverse returns pi^-1, computing and caching it on first use.
func (p *Permutation) Inverse() Permutation {
	if p.inverse == nil {
		inv := make([]int, len(p.forward))
		for i, v := range p.forward {
			inv[v] = i
		}
		p.inverse = inv
	}
	return Permutation{forward: p.inverse, inverse: p.forward}
}

// Apply writes out[i] = in[pi(i)] for every i, the interleave operation.
func (p Permutation) Apply(in, out []LLR) {
	for i, src := range p.forward {
		out[i] = in[src]
	}
}

// ApplyInverse writes out[pi(i)] = in[i] for every i, the de-interleave
// operation (equivalent to Apply using Inverse(), provided directly to
// avoid recomputing/caching the inverse on hot paths that only need this
// one direction once).
func (p Permutation) ApplyInverse(in, out []LLR) {
	for i, dst := range p.forward {
		out[dst] = in[i]
	}
}
