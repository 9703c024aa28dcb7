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

import "math"

// DecoderAlgorithm selects between the exact log-domain MAP combinator
// and its max-log approximation, spec.md §4.3's two named variants.
type DecoderAlgorithm int

const (
	// Exact uses the full jacln correction table (LogMap).
	Exact DecoderAlgorithm = iota
	// Approximate uses the max-log approximation (MaxLogMap / min-sum).
	Approximate
)

// Termination selects how a convolutional block's trellis is closed.
type Termination int

const (
	// Truncation emits no tail; the final state is ignored.
	Truncation Termination = iota
	// ZeroTail appends Nu symbols that force the state to zero.
	ZeroTail
)

// MapDecoder runs the forward/backward (BCJR) recursion over one
// Trellis. Its scratch buffers (alpha matrix, beta vector, branch metric
// workspace) are owned by the instance and reused across blocks, per
// spec.md §4.3's memory plan; the block-parallel harness hands each
// worker its own MapDecoder instance (grounded on the
// klauspost/reedsolomon leopard implementation's per-worker
// sync.Pool-scratch pattern, see DESIGN.md).
type MapDecoder struct {
	trellis Trellis
	length  int // L, steps in the block including any tail

	alpha    [][]LLR      // (L+1) x S
	gamma    [][][2]LLR   // L x S x {u=0,u=1} branch metrics
	beta     []LLR        // S, the current backward frontier
	nextBeta []LLR        // S, the frontier one step later (scratch)
}

// NewMapDecoder allocates a decoder for blocks of L steps over trellis.
func NewMapDecoder(trellis Trellis, length int) *MapDecoder {
	d := &MapDecoder{trellis: trellis, length: length}
	d.alpha = make([][]LLR, length+1)
	for i := range d.alpha {
		d.alpha[i] = make([]LLR, trellis.NumStates)
	}
	d.gamma = make([][][2]LLR, length)
	for i := range d.gamma {
		d.gamma[i] = make([][2]LLR, trellis.NumStates)
	}
	d.beta = make([]LLR, trellis.NumStates)
	d.nextBeta = make([]LLR, trellis.NumStates)
	return d
}

// Decode runs the forward-backward recursion for one block.
//
// channelLLR holds N*length received parity LLRs (one per trellis output
// bit per step); bit j of the edge's Output maps to channelLLR[step*N+j].
// apriori, if non-nil, holds length systematic a-priori LLRs, one per
// input bit.
// posterior (length long) receives the a-posteriori LLR of every
// information bit; extrinsic (length long), if non-nil, receives
// posterior minus apriori minus the channel systematic term (the latter
// taken from channelLLR's bit-0 slot when the trellis is
// recursive-systematic, zero otherwise).
func (d *MapDecoder) Decode(channelLLR, apriori []LLR, termination Termination, exact bool, posterior, extrinsic []LLR) {
	t := d.trellis
	S := t.NumStates

	for step := 0; step < d.length; step++ {
		d.computeGamma(t, channelLLR, apriori, step, exact)
	}

	for s := 0; s < S; s++ {
		d.alpha[0][s] = NegativeInfinityLLR
	}
	d.alpha[0][0] = 0
	for step := 0; step < d.length; step++ {
		row := d.alpha[step+1]
		for s := 0; s < S; s++ {
			row[s] = NegativeInfinityLLR
		}
		for s := 0; s < S; s++ {
			if math.IsInf(d.alpha[step][s], -1) {
				continue
			}
			for u := 0; u < 2; u++ {
				edge := t.Next(s, u)
				v := d.alpha[step][s] + d.gamma[step][s][u]
				row[edge.NextState] = JacLn(row[edge.NextState], v, exact)
			}
		}
		normalize(row)
	}

	switch termination {
	case ZeroTail:
		for s := 0; s < S; s++ {
			d.beta[s] = NegativeInfinityLLR
		}
		d.beta[0] = 0
	case Truncation:
		for s := 0; s < S; s++ {
			d.beta[s] = 0
		}
	}

	for step := d.length - 1; step >= 0; step-- {
		d.nextBeta, d.beta = d.beta, d.nextBeta
		for s := 0; s < S; s++ {
			d.beta[s] = NegativeInfinityLLR
		}

		num := NegativeInfinityLLR
		den := NegativeInfinityLLR
		for s := 0; s < S; s++ {
			if math.IsInf(d.alpha[step][s], -1) {
				continue
			}
			for u := 0; u < 2; u++ {
				edge := t.Next(s, u)
				branch := d.gamma[step][s][u]
				if !math.IsInf(d.nextBeta[edge.NextState], -1) {
					v := d.alpha[step][s] + branch + d.nextBeta[edge.NextState]
					if u == 1 {
						num = JacLn(num, v, exact)
					} else {
						den = JacLn(den, v, exact)
					}
				}

				bv := d.nextBeta[edge.NextState] + branch
				d.beta[s] = JacLn(d.beta[s], bv, exact)
			}
		}
		normalize(d.beta)

		app := Saturate(num - den)
		posterior[step] = app
		if extrinsic != nil {
			a := LLR(0)
			if apriori != nil {
				a = apriori[step]
			}
			sys := LLR(0)
			if t.Recursive {
				sys = channelLLR[step*t.N]
			}
			extrinsic[step] = Saturate(app - a - sys)
		}
	}
}

// computeGamma fills d.gamma[step][s][u] with the branch metric of every
// edge out of state s on input u, per spec.md §4.3:
// gamma = 1/2*L_apriori(u)*sign(u) + 1/2*sum_j L_channel(y_j)*sign(c_j).
func (d *MapDecoder) computeGamma(t Trellis, channelLLR, apriori []LLR, step int, exact bool) {
	for s := 0; s < t.NumStates; s++ {
		for u := 0; u < 2; u++ {
			edge := t.Next(s, u)
			g := LLR(0)
			if apriori != nil {
				g += 0.5 * apriori[step] * signBit(u)
			}
			for j := 0; j < t.N; j++ {
				c := (edge.Output >> uint(j)) & 1
				g += 0.5 * channelLLR[step*t.N+j] * signBit(c)
			}
			d.gamma[step][s][u] = g
		}
	}
}

func signBit(bit int) LLR {
	if bit == 1 {
		return 1
	}
	return -1
}

// normalize subtracts the maximum finite value in v from every element,
// the numeric-hygiene step of spec.md §4.3 that keeps alpha/beta bounded.
func normalize(v []LLR) {
	m := NegativeInfinityLLR
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	if math.IsInf(m, -1) || m == 0 {
		return
	}
	for i := range v {
		if !math.IsInf(v[i], -1) {
			v[i] -= m
		}
	}
}
