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

// Structure is the capability set every code family (Convolutional, Turbo,
// Ldpc) implements. It replaces the teacher's/original's base-class
// dispatch (original_source/src/Code.h's Code/Structure hierarchy): Codec
// holds one concrete Structure plus a CodecKind tag and calls these
// methods through the interface. The tag is only reported by Codec.Kind
// and used in error messages; it does not drive dispatch.
type Structure interface {
	// MsgSize is the number of information bits one block carries.
	MsgSize() int
	// ParitySize is the number of parity LLRs/bits one block emits.
	ParitySize() int
	// ExtrinsicSize is the number of systematic bits a-priori/extrinsic
	// information is exchanged over (equal to MsgSize for every family
	// this package implements, kept distinct because Turbo's punctured
	// ParitySize diverges from it while ExtrinsicSize stays unpunctured).
	ExtrinsicSize() int

	// Clone returns a Structure sharing this one's immutable
	// configuration but owning its own scratch buffers, so the
	// block-parallel harness can hand one clone to each worker.
	Clone() Structure

	EncodeBlock(msg []byte, parity []byte) error
	DecodeBlock(parityLLR []LLR, msg []byte) error
	SoftDecodeBlock(parityLLR, extrinsicIn []LLR, msgLLR, extrinsicOut []LLR) error
}
