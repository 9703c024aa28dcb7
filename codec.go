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

// Package fec implements the Convolutional, Turbo, and LDPC forward
// error correction code families behind one uniform Codec, including
// their MAP/BCJR, Viterbi, and belief-propagation decoders and a
// block-parallel dispatch harness.
package fec

// CodecKind names which code family a Codec wraps.
type CodecKind int

const (
	ConvolutionalKind CodecKind = iota
	TurboKind
	LdpcKind
)

func (k CodecKind) String() string {
	switch k {
	case ConvolutionalKind:
		return "Convolutional"
	case TurboKind:
		return "Turbo"
	case LdpcKind:
		return "Ldpc"
	default:
		return "Unknown"
	}
}

// DecoderOptions groups the options a Codec may reassign after
// construction, per spec.md §9's redesign flag distinguishing mutable
// decoder options from immutable encoder/structural options.
// Gain is only meaningful for an Ldpc Codec running the Approximate
// (min-sum) algorithm; it is ignored otherwise.
type DecoderOptions struct {
	Algorithm DecoderAlgorithm
	Gain      LLR
}

// Option configures a Codec at construction time.
type Option func(*Codec)

// WithWorkers sets how many goroutines the block-parallel harness uses.
// The default is 1 (sequential dispatch); the requested count is capped
// to the host's available parallelism by partition (harness.go).
func WithWorkers(n int) Option {
	return func(c *Codec) { c.workers = n }
}

// WithAlgorithm sets the initial decoder algorithm, equivalent to an
// immediate SetDecoderOptions call after construction.
func WithAlgorithm(a DecoderAlgorithm) Option {
	return func(c *Codec) { c.SetDecoderOptions(DecoderOptions{Algorithm: a}) }
}

// algorithmSetter/algorithmGetter/gainSetter/gainGetter/puncturer are
// satisfied by whichever concrete Structure types support that option;
// Codec type-switches against them instead of widening the Structure
// interface with options not every family shares.
type algorithmSetter interface{ SetAlgorithm(DecoderAlgorithm) }
type algorithmGetter interface{ Algorithm() DecoderAlgorithm }
type gainSetter interface{ SetGain(LLR) }
type gainGetter interface{ Gain() LLR }
type puncturer interface {
	SetPuncture([]bool) error
	Puncture() []bool
}

// Codec is a tagged variant over the three code families: it holds one
// concrete Structure and dispatches to it directly, per spec.md §9's
// redesign flag replacing the original's virtual-dispatch Code/Structure
// base classes (original_source/src/Code.h).
type Codec struct {
	kind      CodecKind
	structure Structure
	workers   int
}

// NewCodec wraps a pre-built Structure (from NewConvolutionalStructure,
// NewTurboStructure, NewGallagerLdpcStructure, or NewDvbS2LdpcStructure)
// as a Codec of the given kind.
func NewCodec(kind CodecKind, structure Structure, opts ...Option) *Codec {
	c := &Codec{kind: kind, structure: structure, workers: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind reports which code family this Codec wraps.
func (c *Codec) Kind() CodecKind { return c.kind }

// MsgSize is the number of information bits in one block.
func (c *Codec) MsgSize() int { return c.structure.MsgSize() }

// ParitySize is the number of transmitted bits in one block's codeword
// (systematic and parity bits together, for the families that have a
// systematic part).
func (c *Codec) ParitySize() int { return c.structure.ParitySize() }

// ExtrinsicSize is the number of systematic bits extrinsic information
// is exchanged over.
func (c *Codec) ExtrinsicSize() int { return c.structure.ExtrinsicSize() }

// Encode runs msg (a multiple of MsgSize() long) through the codec,
// returning the codeword buffer (a multiple of ParitySize() long). The
// block-parallel harness fans blocks out across WithWorkers goroutines.
func (c *Codec) Encode(msg []byte) ([]byte, error) {
	if len(msg) == 0 || len(msg)%c.structure.MsgSize() != 0 {
		return nil, newError(ArgumentShape, "fec: msg length %d is not a multiple of MsgSize %d", len(msg), c.structure.MsgSize())
	}
	numBlocks := len(msg) / c.structure.MsgSize()
	parity := make([]byte, numBlocks*c.structure.ParitySize())
	if err := EncodeBlocks(c.structure, msg, parity, c.workers); err != nil {
		return nil, err
	}
	return parity, nil
}

// Decode hard-decides msg (a multiple of MsgSize() long) from
// parityLLR (a multiple of ParitySize() long).
func (c *Codec) Decode(parityLLR []LLR) ([]byte, error) {
	if len(parityLLR) == 0 || len(parityLLR)%c.structure.ParitySize() != 0 {
		return nil, newError(ArgumentShape, "fec: parityLLR length %d is not a multiple of ParitySize %d", len(parityLLR), c.structure.ParitySize())
	}
	numBlocks := len(parityLLR) / c.structure.ParitySize()
	msg := make([]byte, numBlocks*c.structure.MsgSize())
	if err := DecodeBlocks(c.structure, parityLLR, msg, c.workers); err != nil {
		return nil, err
	}
	return msg, nil
}

// SoftDecode runs the soft-output decode, optionally folding in
// extrinsicIn (nil to omit) and optionally reporting extrinsicOut
// (pass wantExtrinsic=true to request it).
func (c *Codec) SoftDecode(parityLLR, extrinsicIn []LLR, wantExtrinsic bool) (msgLLR, extrinsicOut []LLR, err error) {
	if len(parityLLR) == 0 || len(parityLLR)%c.structure.ParitySize() != 0 {
		return nil, nil, newError(ArgumentShape, "fec: parityLLR length %d is not a multiple of ParitySize %d", len(parityLLR), c.structure.ParitySize())
	}
	numBlocks := len(parityLLR) / c.structure.ParitySize()
	if extrinsicIn != nil && len(extrinsicIn) != numBlocks*c.structure.ExtrinsicSize() {
		return nil, nil, newError(ArgumentShape, "fec: extrinsicIn length %d does not match %d blocks of size %d", len(extrinsicIn), numBlocks, c.structure.ExtrinsicSize())
	}

	msgLLR = make([]LLR, numBlocks*c.structure.MsgSize())
	if wantExtrinsic {
		extrinsicOut = make([]LLR, numBlocks*c.structure.ExtrinsicSize())
	}
	if err := SoftDecodeBlocks(c.structure, parityLLR, extrinsicIn, msgLLR, extrinsicOut, c.workers); err != nil {
		return nil, nil, err
	}
	return msgLLR, extrinsicOut, nil
}

// SetDecoderOptions reassigns the mutable decoder options. Algorithm
// applies to every family; Gain applies only to an Ldpc Codec running
// the Approximate algorithm and is silently ignored otherwise.
func (c *Codec) SetDecoderOptions(opts DecoderOptions) {
	if s, ok := c.structure.(algorithmSetter); ok {
		s.SetAlgorithm(opts.Algorithm)
	}
	if s, ok := c.structure.(gainSetter); ok {
		s.SetGain(opts.Gain)
	}
}

// GetDecoderOptions reports the current mutable decoder options.
func (c *Codec) GetDecoderOptions() DecoderOptions {
	var opts DecoderOptions
	if s, ok := c.structure.(algorithmGetter); ok {
		opts.Algorithm = s.Algorithm()
	}
	if s, ok := c.structure.(gainGetter); ok {
		opts.Gain = s.Gain()
	}
	return opts
}

// SetPuncturing installs a puncture mask on a Codec whose family
// supports it (currently Turbo); it returns InvalidOption for families
// that don't.
func (c *Codec) SetPuncturing(mask []bool) error {
	p, ok := c.structure.(puncturer)
	if !ok {
		return newError(InvalidOption, "fec: %s codec does not support puncturing", c.kind)
	}
	return p.SetPuncture(mask)
}

// Puncturing reports the currently installed puncture mask, or nil if
// none is installed or the family doesn't support puncturing.
func (c *Codec) Puncturing() []bool {
	if p, ok := c.structure.(puncturer); ok {
		return p.Puncture()
	}
	return nil
}
