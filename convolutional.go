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

// ConvolutionalStructure is a single convolutional code: one Trellis, a
// fixed block length, and a termination scheme. Grounded on
// original_source/CodeStructure/ConvolutionalCodeStructure.h and
// original_source/+fec/@Convolutional/Convolutional_set_encoderOptions.cpp,
// whose comment block is the source of spec.md §9's immutable-encoder-
// options redesign flag: once built, Trellis/BlockLen/Termination never
// change, only Algorithm (the decoder option) may be reassigned.
type ConvolutionalStructure struct {
	trellis     Trellis
	blockLen    int
	termination Termination
	tailLen     int
	length      int // blockLen + tailLen

	algorithm DecoderAlgorithm

	dec *MapDecoder

	// Viterbi scratch, sized once for length/NumStates and reused across
	// DecodeBlock calls on this instance.
	pm, pmNext       []LLR
	bpState, bpInput [][]int

	// SoftDecodeBlock scratch: the MAP decoder runs over all `length`
	// steps (including the tail), but the caller's apriori/extrinsic
	// buffers only cover the blockLen information bits, since tail
	// inputs are forced rather than exchanged.
	apriori, posterior, extrinsic []LLR
}

// NewConvolutionalStructure builds a Structure around trellis, encoding
// blockLen information bits per block with the given termination scheme.
func NewConvolutionalStructure(trellis Trellis, blockLen int, termination Termination) *ConvolutionalStructure {
	tailLen := 0
	if termination == ZeroTail {
		tailLen = trellis.Nu
	}
	length := blockLen + tailLen

	c := &ConvolutionalStructure{
		trellis:     trellis,
		blockLen:    blockLen,
		termination: termination,
		tailLen:     tailLen,
		length:      length,
		dec:         NewMapDecoder(trellis, length),
	}

	c.pm = make([]LLR, trellis.NumStates)
	c.pmNext = make([]LLR, trellis.NumStates)
	c.bpState = make([][]int, length)
	c.bpInput = make([][]int, length)
	for i := range c.bpState {
		c.bpState[i] = make([]int, trellis.NumStates)
		c.bpInput[i] = make([]int, trellis.NumStates)
	}

	c.apriori = make([]LLR, length)
	c.posterior = make([]LLR, length)
	c.extrinsic = make([]LLR, length)

	return c
}

// SetAlgorithm reassigns the decoder algorithm, the one mutable option
// spec.md §9 leaves on an otherwise-immutable Structure.
func (c *ConvolutionalStructure) SetAlgorithm(a DecoderAlgorithm) { c.algorithm = a }

// Algorithm reports the current decoder algorithm.
func (c *ConvolutionalStructure) Algorithm() DecoderAlgorithm { return c.algorithm }

func (c *ConvolutionalStructure) MsgSize() int       { return c.blockLen }
func (c *ConvolutionalStructure) ParitySize() int    { return c.length * c.trellis.N }
func (c *ConvolutionalStructure) ExtrinsicSize() int { return c.blockLen }

// Trellis returns the constituent trellis, used by the Turbo codec to
// reconstruct per-constituent channel LLR layouts.
func (c *ConvolutionalStructure) Trellis() Trellis { return c.trellis }

// Length returns the total number of trellis steps including any tail.
func (c *ConvolutionalStructure) Length() int { return c.length }

// TailLen returns the number of ZeroTail forcing steps (zero under
// Truncation).
func (c *ConvolutionalStructure) TailLen() int { return c.tailLen }

// Termination reports the constituent's termination scheme.
func (c *ConvolutionalStructure) Termination() Termination { return c.termination }

// Clone returns a Structure sharing this one's Trellis/blockLen/
// termination/algorithm but with its own MAP/Viterbi scratch, for the
// block-parallel harness to hand to a worker.
func (c *ConvolutionalStructure) Clone() Structure {
	clone := NewConvolutionalStructure(c.trellis, c.blockLen, c.termination)
	clone.algorithm = c.algorithm
	return clone
}

// EncodeBlock runs msg (blockLen bits, one byte per bit, 0 or 1) through
// the trellis, appending ZeroTail forcing bits if configured, and writes
// length*N parity bits (one byte per bit) to parity.
func (c *ConvolutionalStructure) EncodeBlock(msg []byte, parity []byte) error {
	if len(msg) != c.blockLen {
		return newError(ArgumentShape, "convolutional: msg has %d bits, want %d", len(msg), c.blockLen)
	}
	if len(parity) != c.ParitySize() {
		return newError(ArgumentShape, "convolutional: parity has %d bits, want %d", len(parity), c.ParitySize())
	}

	t := c.trellis
	state := 0
	for i := 0; i < c.blockLen; i++ {
		edge := t.Next(state, int(msg[i]))
		writeOutputBits(parity[i*t.N:], edge.Output, t.N)
		state = edge.NextState
	}
	for i := 0; i < c.tailLen; i++ {
		u := t.TailInput(state)
		edge := t.Next(state, u)
		writeOutputBits(parity[(c.blockLen+i)*t.N:], edge.Output, t.N)
		state = edge.NextState
	}
	return nil
}

// DecodeBlock runs the Viterbi (max-plus, maximum-likelihood) hard-
// decision algorithm over received parity LLRs, writing the blockLen
// decoded information bits to msg.
func (c *ConvolutionalStructure) DecodeBlock(parityLLR []LLR, msg []byte) error {
	if len(parityLLR) != c.ParitySize() {
		return newError(ArgumentShape, "convolutional: parityLLR has %d entries, want %d", len(parityLLR), c.ParitySize())
	}
	if len(msg) != c.blockLen {
		return newError(ArgumentShape, "convolutional: msg has %d bits, want %d", len(msg), c.blockLen)
	}

	t := c.trellis
	S := t.NumStates

	for s := range c.pm {
		c.pm[s] = NegativeInfinityLLR
	}
	c.pm[0] = 0

	for step := 0; step < c.length; step++ {
		for s := range c.pmNext {
			c.pmNext[s] = NegativeInfinityLLR
		}
		for s := 0; s < S; s++ {
			if math.IsInf(c.pm[s], -1) {
				continue
			}
			for u := 0; u < 2; u++ {
				edge := t.Next(s, u)
				metric := branchCorrelation(parityLLR, step, t.N, edge.Output)
				v := c.pm[s] + metric
				if v > c.pmNext[edge.NextState] {
					c.pmNext[edge.NextState] = v
					c.bpState[step][edge.NextState] = s
					c.bpInput[step][edge.NextState] = u
				}
			}
		}
		c.pm, c.pmNext = c.pmNext, c.pm
	}

	final := 0
	switch c.termination {
	case ZeroTail:
		final = 0
	case Truncation:
		best := NegativeInfinityLLR
		for s := 0; s < S; s++ {
			if c.pm[s] > best {
				best = c.pm[s]
				final = s
			}
		}
	}

	state := final
	for step := c.length - 1; step >= 0; step-- {
		u := c.bpInput[step][state]
		if step < c.blockLen {
			msg[step] = byte(u)
		}
		state = c.bpState[step][state]
	}
	return nil
}

// SoftDecodeBlock runs the BCJR/MAP recursion, exchanging extrinsic
// information over the blockLen information bits (tail bits, if any,
// carry no a-priori term and their posterior/extrinsic is discarded).
func (c *ConvolutionalStructure) SoftDecodeBlock(parityLLR, extrinsicIn []LLR, msgLLR, extrinsicOut []LLR) error {
	if len(parityLLR) != c.ParitySize() {
		return newError(ArgumentShape, "convolutional: parityLLR has %d entries, want %d", len(parityLLR), c.ParitySize())
	}
	if len(msgLLR) != c.blockLen {
		return newError(ArgumentShape, "convolutional: msgLLR has %d entries, want %d", len(msgLLR), c.blockLen)
	}

	for i := 0; i < c.blockLen; i++ {
		if extrinsicIn != nil {
			c.apriori[i] = extrinsicIn[i]
		} else {
			c.apriori[i] = 0
		}
	}
	for i := c.blockLen; i < c.length; i++ {
		c.apriori[i] = 0
	}

	var extrinsicBuf []LLR
	if extrinsicOut != nil {
		extrinsicBuf = c.extrinsic
	}

	c.dec.Decode(parityLLR, c.apriori, c.termination, c.algorithm == Exact, c.posterior, extrinsicBuf)

	copy(msgLLR, c.posterior[:c.blockLen])
	if extrinsicOut != nil {
		copy(extrinsicOut, c.extrinsic[:c.blockLen])
	}
	return nil
}

// writeOutputBits writes the low n bits of output (LSB first) into dst,
// one byte (0 or 1) per bit.
func writeOutputBits(dst []byte, output, n int) {
	for j := 0; j < n; j++ {
		dst[j] = byte((output >> uint(j)) & 1)
	}
}

// branchCorrelation is the Viterbi path metric contribution of taking an
// edge whose output is the given N-bit symbol, under the received LLRs at
// this step: the same sign-weighted sum computeGamma uses for the MAP
// branch metric, without an a-priori term.
func branchCorrelation(channelLLR []LLR, step, n, output int) LLR {
	var m LLR
	for j := 0; j < n; j++ {
		bit := (output >> uint(j)) & 1
		m += channelLLR[step*n+j] * signBit(bit)
	}
	return m
}
