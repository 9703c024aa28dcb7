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

// Scheduling selects how a Turbo decoder's iterations combine extrinsic
// information across constituents. Grounded on
// original_source/src/Turbo/Turbo.h's Scheduling enum.
type Scheduling int

const (
	// Parallel decodes every constituent against the extrinsic snapshot
	// left by the previous full iteration (Jacobi-style update): all
	// constituents in one iteration see the same inputs.
	Parallel Scheduling = iota
	// Serial decodes constituents in turn, each one immediately seeing
	// the extrinsic just produced by the one before it in the same
	// iteration (Gauss-Seidel-style update), converging faster per
	// iteration at the cost of a sequential dependency.
	Serial
)

// BitOrdering selects how a Turbo block's parity bits beyond the shared
// systematic stream are laid out in the wire buffer. Grounded on
// original_source/src/Turbo/Turbo.h's BitOrdering enum.
type BitOrdering int

const (
	// Grouped lays out each constituent's non-tail parity contiguously,
	// followed by every constituent's tail region (N bits per tail step,
	// systematic tail bit included):
	// [systematic][constituent0 parity][constituent1 parity]...[constituent0 tail][constituent1 tail]...
	// A constituent's tail does not directly follow its own parity.
	Grouped BitOrdering = iota
	// Alternate interleaves the constituents' per-step parity bits
	// within the shared (non-tail) region, one step's worth from every
	// constituent before moving to the next step; tail regions, whose
	// lengths can differ per constituent, stay grouped.
	Alternate
)

// PunctureOptions selects which of a Turbo block's parity bits, indexed
// after the configured BitOrdering has been applied, are actually
// transmitted; unset positions are treated as erasures (LLR 0) on decode.
type PunctureOptions struct {
	Mask []bool
}

// TurboStructure is a parallel concatenation of recursive-systematic
// convolutional constituents sharing one systematic stream, each (but the
// first) fed an interleaved copy of the message. Grounded on
// original_source/src/Turbo/Turbo.h and
// original_source/TurboCode/TurboCodeImpl.h's iterative exchange loop.
type TurboStructure struct {
	constituents []*ConvolutionalStructure
	interleavers []Permutation // len(constituents)-1
	iterations   int
	scheduling   Scheduling
	bitOrdering  BitOrdering
	algorithm    DecoderAlgorithm

	blockLen int

	blockRegionStart []int // per constituent, offset into canonical grouped buffer
	tailRegionStart  []int
	groupedSize      int

	puncture        *PunctureOptions
	punctureIndices []int

	// Scratch, allocated once and reused across Encode/Decode calls.
	groupedBits  []byte
	groupedLLR   []LLR
	orderedBits  []byte
	orderedLLR   []LLR
	cmsgScratch  [][]byte
	fullParity   [][]byte
	channelLLR   [][]LLR
	aprioriLLR   [][]LLR
	posteriorLLR [][]LLR
	extrinsicLLR [][]LLR
	extr         [][]LLR // natural-order extrinsic per constituent
	extrNext     [][]LLR // Parallel scheduling's next-iteration buffer
	combined     []LLR
}

// NewTurboStructure builds a Turbo Structure. Every constituent must be
// recursive-systematic and share the same message block length; len(
// interleavers) must be len(constituents)-1, one per non-first
// constituent.
func NewTurboStructure(constituents []*ConvolutionalStructure, interleavers []Permutation, iterations int, scheduling Scheduling, bitOrdering BitOrdering) (*TurboStructure, error) {
	if len(constituents) < 1 {
		return nil, newError(InvalidOption, "turbo: need at least one constituent")
	}
	if len(interleavers) != len(constituents)-1 {
		return nil, newError(InvalidOption, "turbo: got %d interleavers, want %d", len(interleavers), len(constituents)-1)
	}
	if iterations < 1 {
		return nil, newError(InvalidOption, "turbo: iterations must be >= 1, got %d", iterations)
	}
	blockLen := constituents[0].MsgSize()
	for i, c := range constituents {
		if !c.Trellis().Recursive {
			return nil, newError(InvalidOption, "turbo: constituent %d is not recursive-systematic", i)
		}
		if c.MsgSize() != blockLen {
			return nil, newError(InvalidOption, "turbo: constituent %d has msg size %d, want %d", i, c.MsgSize(), blockLen)
		}
	}
	for i, p := range interleavers {
		if p.Len() != blockLen {
			return nil, newError(InvalidOption, "turbo: interleaver %d has length %d, want %d", i, p.Len(), blockLen)
		}
	}

	t := &TurboStructure{
		constituents: constituents,
		interleavers: interleavers,
		iterations:   iterations,
		scheduling:   scheduling,
		bitOrdering:  bitOrdering,
		blockLen:     blockLen,
	}
	t.layout()
	t.allocate()
	return t, nil
}

func (t *TurboStructure) layout() {
	n := len(t.constituents)
	t.blockRegionStart = make([]int, n)
	t.tailRegionStart = make([]int, n)

	offset := t.blockLen
	for i, c := range t.constituents {
		t.blockRegionStart[i] = offset
		offset += t.blockLen * (c.Trellis().N - 1)
	}
	for i, c := range t.constituents {
		t.tailRegionStart[i] = offset
		offset += c.TailLen() * c.Trellis().N
	}
	t.groupedSize = offset
}

func (t *TurboStructure) allocate() {
	n := len(t.constituents)
	t.groupedBits = make([]byte, t.groupedSize)
	t.groupedLLR = make([]LLR, t.groupedSize)
	t.orderedBits = make([]byte, t.groupedSize)
	t.orderedLLR = make([]LLR, t.groupedSize)

	t.cmsgScratch = make([][]byte, n)
	t.fullParity = make([][]byte, n)
	t.channelLLR = make([][]LLR, n)
	t.aprioriLLR = make([][]LLR, n)
	t.posteriorLLR = make([][]LLR, n)
	t.extrinsicLLR = make([][]LLR, n)
	t.extr = make([][]LLR, n)
	t.extrNext = make([][]LLR, n)

	for i, c := range t.constituents {
		t.cmsgScratch[i] = make([]byte, t.blockLen)
		t.fullParity[i] = make([]byte, c.ParitySize())
		t.channelLLR[i] = make([]LLR, c.Length()*c.Trellis().N)
		t.aprioriLLR[i] = make([]LLR, c.Length())
		t.posteriorLLR[i] = make([]LLR, c.Length())
		t.extrinsicLLR[i] = make([]LLR, c.Length())
		t.extr[i] = make([]LLR, t.blockLen)
		t.extrNext[i] = make([]LLR, t.blockLen)
	}
	t.combined = make([]LLR, t.blockLen)
}

// SetPuncture installs a puncture mask over the unpunctured parity layout
// as ordered by the configured BitOrdering; pass nil to remove puncturing.
func (t *TurboStructure) SetPuncture(mask []bool) error {
	if mask == nil {
		t.puncture = nil
		t.punctureIndices = nil
		return nil
	}
	if len(mask) != t.groupedSize {
		return newError(ArgumentShape, "turbo: puncture mask has %d entries, want %d", len(mask), t.groupedSize)
	}
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	t.puncture = &PunctureOptions{Mask: mask}
	t.punctureIndices = indices
	return nil
}

// Puncture returns the currently installed puncture mask, or nil.
func (t *TurboStructure) Puncture() []bool {
	if t.puncture == nil {
		return nil
	}
	return t.puncture.Mask
}

// SetAlgorithm reassigns the decoder algorithm on every constituent.
func (t *TurboStructure) SetAlgorithm(a DecoderAlgorithm) {
	t.algorithm = a
	for _, c := range t.constituents {
		c.SetAlgorithm(a)
	}
}

// Algorithm reports the current decoder algorithm.
func (t *TurboStructure) Algorithm() DecoderAlgorithm { return t.algorithm }

func (t *TurboStructure) MsgSize() int { return t.blockLen }

func (t *TurboStructure) ParitySize() int {
	if t.puncture != nil {
		return len(t.punctureIndices)
	}
	return t.groupedSize
}

func (t *TurboStructure) ExtrinsicSize() int { return t.blockLen }

// Clone returns a Structure sharing this one's constituents' immutable
// configuration, interleavers, and options, but with its own scratch and
// its own cloned constituent decoders.
func (t *TurboStructure) Clone() Structure {
	clonedConstituents := make([]*ConvolutionalStructure, len(t.constituents))
	for i, c := range t.constituents {
		clonedConstituents[i] = c.Clone().(*ConvolutionalStructure)
	}
	clone, err := NewTurboStructure(clonedConstituents, t.interleavers, t.iterations, t.scheduling, t.bitOrdering)
	if err != nil {
		panic(err) // the receiver was already validated at construction
	}
	clone.algorithm = t.algorithm
	for _, c := range clonedConstituents {
		c.SetAlgorithm(t.algorithm)
	}
	if t.puncture != nil {
		_ = clone.SetPuncture(t.puncture.Mask)
	}
	return clone
}

func permuteBytesInto(p Permutation, in, out []byte) {
	for i := 0; i < p.Len(); i++ {
		out[i] = in[p.At(i)]
	}
}

// EncodeBlock runs msg through every constituent (interleaved for all but
// the first), assembles the shared systematic stream with each
// constituent's own parity, and packs the result per the configured
// BitOrdering and PunctureOptions.
func (t *TurboStructure) EncodeBlock(msg []byte, parity []byte) error {
	if len(msg) != t.blockLen {
		return newError(ArgumentShape, "turbo: msg has %d bits, want %d", len(msg), t.blockLen)
	}
	if len(parity) != t.ParitySize() {
		return newError(ArgumentShape, "turbo: parity has %d bits, want %d", len(parity), t.ParitySize())
	}

	copy(t.groupedBits[:t.blockLen], msg)

	for i, c := range t.constituents {
		cmsg := msg
		if i > 0 {
			permuteBytesInto(t.interleavers[i-1], msg, t.cmsgScratch[i])
			cmsg = t.cmsgScratch[i]
		}
		if err := c.EncodeBlock(cmsg, t.fullParity[i]); err != nil {
			return err
		}
		n := c.Trellis().N
		base := t.blockRegionStart[i]
		for step := 0; step < t.blockLen; step++ {
			copy(t.groupedBits[base+step*(n-1):base+step*(n-1)+(n-1)], t.fullParity[i][step*n+1:step*n+n])
		}
		tbase := t.tailRegionStart[i]
		for step := 0; step < c.TailLen(); step++ {
			src := t.blockLen + step
			copy(t.groupedBits[tbase+step*n:tbase+step*n+n], t.fullParity[i][src*n:src*n+n])
		}
	}

	t.packBits()

	if t.puncture != nil {
		for k, idx := range t.punctureIndices {
			parity[k] = t.orderedBits[idx]
		}
	} else {
		copy(parity, t.orderedBits)
	}
	return nil
}

// DecodeBlock hard-decides the iterative soft decode.
func (t *TurboStructure) DecodeBlock(parityLLR []LLR, msg []byte) error {
	if len(msg) != t.blockLen {
		return newError(ArgumentShape, "turbo: msg has %d bits, want %d", len(msg), t.blockLen)
	}
	msgLLR := make([]LLR, t.blockLen)
	if err := t.SoftDecodeBlock(parityLLR, nil, msgLLR, nil); err != nil {
		return err
	}
	for i, llr := range msgLLR {
		if llr > 0 {
			msg[i] = 1
		} else {
			msg[i] = 0
		}
	}
	return nil
}

// SoftDecodeBlock runs the iterative BCJR exchange across constituents
// for the configured number of iterations and scheduling.
func (t *TurboStructure) SoftDecodeBlock(parityLLR, extrinsicIn []LLR, msgLLR, extrinsicOut []LLR) error {
	if len(parityLLR) != t.ParitySize() {
		return newError(ArgumentShape, "turbo: parityLLR has %d entries, want %d", len(parityLLR), t.ParitySize())
	}
	if len(msgLLR) != t.blockLen {
		return newError(ArgumentShape, "turbo: msgLLR has %d entries, want %d", len(msgLLR), t.blockLen)
	}

	if t.puncture != nil {
		for i := range t.orderedLLR {
			t.orderedLLR[i] = 0
		}
		for k, idx := range t.punctureIndices {
			t.orderedLLR[idx] = parityLLR[k]
		}
	} else {
		copy(t.orderedLLR, parityLLR)
	}
	t.unpackLLR()

	sysLLR := t.groupedLLR[:t.blockLen]
	for i := range t.extr {
		for k := range t.extr[i] {
			t.extr[i][k] = 0
		}
	}

	exact := t.algorithm == Exact

	for iter := 0; iter < t.iterations; iter++ {
		source := t.extr
		var dest [][]LLR
		if t.scheduling == Parallel {
			dest = t.extrNext
		} else {
			dest = t.extr
		}

		for i, c := range t.constituents {
			for k := 0; k < t.blockLen; k++ {
				var sum LLR
				for j := range t.constituents {
					if j == i {
						continue
					}
					sum += source[j][k]
				}
				if extrinsicIn != nil {
					sum += extrinsicIn[k]
				}
				t.combined[k] = sum
			}

			n := c.Trellis().N
			if i == 0 {
				copy(t.aprioriLLR[i][:t.blockLen], t.combined)
			} else {
				t.interleavers[i-1].Apply(t.combined, t.aprioriLLR[i][:t.blockLen])
			}
			for k := t.blockLen; k < c.Length(); k++ {
				t.aprioriLLR[i][k] = 0
			}

			base := t.blockRegionStart[i]
			for step := 0; step < t.blockLen; step++ {
				var sysSrc LLR
				if i == 0 {
					sysSrc = sysLLR[step]
				} else {
					sysSrc = sysLLR[t.interleavers[i-1].At(step)]
				}
				t.channelLLR[i][step*n] = sysSrc
				copy(t.channelLLR[i][step*n+1:step*n+n], t.groupedLLR[base+step*(n-1):base+step*(n-1)+(n-1)])
			}
			tbase := t.tailRegionStart[i]
			for step := 0; step < c.TailLen(); step++ {
				dst := t.blockLen + step
				copy(t.channelLLR[i][dst*n:dst*n+n], t.groupedLLR[tbase+step*n:tbase+step*n+n])
			}

			c.dec.Decode(t.channelLLR[i], t.aprioriLLR[i], c.Termination(), exact, t.posteriorLLR[i], t.extrinsicLLR[i])

			if i == 0 {
				copy(dest[i], t.extrinsicLLR[i][:t.blockLen])
			} else {
				t.interleavers[i-1].ApplyInverse(t.extrinsicLLR[i][:t.blockLen], dest[i])
			}
		}

		if t.scheduling == Parallel {
			t.extr, t.extrNext = t.extrNext, t.extr
		}
	}

	for k := 0; k < t.blockLen; k++ {
		var sum LLR
		for i := range t.constituents {
			sum += t.extr[i][k]
		}
		total := sysLLR[k] + sum
		if extrinsicIn != nil {
			total += extrinsicIn[k]
		}
		msgLLR[k] = Saturate(total)
		if extrinsicOut != nil {
			extrinsicOut[k] = Saturate(sum)
		}
	}
	return nil
}

// packBits lays out t.groupedBits into t.orderedBits per bitOrdering.
func (t *TurboStructure) packBits() {
	if t.bitOrdering == Grouped {
		copy(t.orderedBits, t.groupedBits)
		return
	}
	copy(t.orderedBits[:t.blockLen], t.groupedBits[:t.blockLen])
	pos := t.blockLen
	for step := 0; step < t.blockLen; step++ {
		for i, c := range t.constituents {
			w := c.Trellis().N - 1
			src := t.blockRegionStart[i] + step*w
			copy(t.orderedBits[pos:pos+w], t.groupedBits[src:src+w])
			pos += w
		}
	}
	for i := range t.constituents {
		start := t.tailRegionStart[i]
		end := t.groupedSize
		if i+1 < len(t.constituents) {
			end = t.tailRegionStart[i+1]
		}
		width := end - start
		copy(t.orderedBits[pos:pos+width], t.groupedBits[start:start+width])
		pos += width
	}
}

// unpackLLR is packBits' inverse, over t.orderedLLR into t.groupedLLR.
func (t *TurboStructure) unpackLLR() {
	if t.bitOrdering == Grouped {
		copy(t.groupedLLR, t.orderedLLR)
		return
	}
	copy(t.groupedLLR[:t.blockLen], t.orderedLLR[:t.blockLen])
	pos := t.blockLen
	for step := 0; step < t.blockLen; step++ {
		for i, c := range t.constituents {
			w := c.Trellis().N - 1
			dst := t.blockRegionStart[i] + step*w
			copy(t.groupedLLR[dst:dst+w], t.orderedLLR[pos:pos+w])
			pos += w
		}
	}
	for i := range t.constituents {
		start := t.tailRegionStart[i]
		end := t.groupedSize
		if i+1 < len(t.constituents) {
			end = t.tailRegionStart[i+1]
		}
		width := end - start
		copy(t.groupedLLR[start:start+width], t.orderedLLR[pos:pos+width])
		pos += width
	}
}
