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

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMsg(r *rand.Rand, n int) []byte {
	msg := make([]byte, n)
	for i := range msg {
		msg[i] = byte(r.Intn(2))
	}
	return msg
}

func bitsToChannelLLR(parity []byte) []LLR {
	out := make([]LLR, len(parity))
	for i, b := range parity {
		if b == 1 {
			out[i] = ThresholdLLR
		} else {
			out[i] = -ThresholdLLR
		}
	}
	return out
}

func newTestTrellis() Trellis {
	// oct[5,7], nu=2: the rate-1/2 constituent code spec.md's examples
	// build from.
	return NewTrellis([]int{5, 7}, 2)
}

func TestConvolutionalEncodeDecodeRoundTrip(t *testing.T) {
	trellis := newTestTrellis()
	r := rand.New(rand.NewSource(1))

	for _, term := range []Termination{Truncation, ZeroTail} {
		c := NewConvolutionalStructure(trellis, 64, term)
		msg := randomMsg(r, c.MsgSize())
		parity := make([]byte, c.ParitySize())
		require.NoError(t, c.EncodeBlock(msg, parity))

		decoded := make([]byte, c.MsgSize())
		require.NoError(t, c.DecodeBlock(bitsToChannelLLR(parity), decoded))
		assert.Equal(t, msg, decoded, "Viterbi must recover msg on a noiseless channel, termination=%v", term)
	}
}

func TestConvolutionalZeroTailReturnsToStateZero(t *testing.T) {
	trellis := newTestTrellis()
	r := rand.New(rand.NewSource(2))
	c := NewConvolutionalStructure(trellis, 32, ZeroTail)
	msg := randomMsg(r, c.MsgSize())
	parity := make([]byte, c.ParitySize())
	require.NoError(t, c.EncodeBlock(msg, parity))

	state := 0
	for i := 0; i < c.blockLen; i++ {
		state = trellis.Next(state, int(msg[i])).NextState
	}
	for i := 0; i < c.tailLen; i++ {
		u := trellis.TailInput(state)
		state = trellis.Next(state, u).NextState
	}
	assert.Equal(t, 0, state, "ZeroTail termination must drive the trellis back to state zero")
}

func TestConvolutionalMapAgreesWithViterbiOnNoiselessChannel(t *testing.T) {
	trellis := newTestTrellis()
	r := rand.New(rand.NewSource(3))
	c := NewConvolutionalStructure(trellis, 48, ZeroTail)
	msg := randomMsg(r, c.MsgSize())
	parity := make([]byte, c.ParitySize())
	require.NoError(t, c.EncodeBlock(msg, parity))
	channelLLR := bitsToChannelLLR(parity)

	viterbiMsg := make([]byte, c.MsgSize())
	require.NoError(t, c.DecodeBlock(channelLLR, viterbiMsg))

	msgLLR := make([]LLR, c.MsgSize())
	require.NoError(t, c.SoftDecodeBlock(channelLLR, nil, msgLLR, nil))

	for i, llr := range msgLLR {
		hard := byte(0)
		if llr > 0 {
			hard = 1
		}
		assert.Equal(t, viterbiMsg[i], hard, "MAP hard decision must agree with Viterbi at bit %d", i)
	}
}

func TestConvolutionalEncodeIsDeterministic(t *testing.T) {
	trellis := newTestTrellis()
	r := rand.New(rand.NewSource(4))
	c := NewConvolutionalStructure(trellis, 20, Truncation)
	msg := randomMsg(r, c.MsgSize())

	p1 := make([]byte, c.ParitySize())
	p2 := make([]byte, c.ParitySize())
	require.NoError(t, c.EncodeBlock(msg, p1))
	require.NoError(t, c.EncodeBlock(msg, p2))
	assert.Equal(t, p1, p2)
}

func TestConvolutionalCloneIsIndependent(t *testing.T) {
	trellis := newTestTrellis()
	c := NewConvolutionalStructure(trellis, 16, ZeroTail)
	clone := c.Clone().(*ConvolutionalStructure)

	assert.Equal(t, c.MsgSize(), clone.MsgSize())
	assert.Equal(t, c.ParitySize(), clone.ParitySize())
	assert.NotSame(t, c.dec, clone.dec)
}

func TestConvolutionalRejectsWrongShape(t *testing.T) {
	trellis := newTestTrellis()
	c := NewConvolutionalStructure(trellis, 10, Truncation)
	err := c.EncodeBlock(make([]byte, 9), make([]byte, c.ParitySize()))
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, ArgumentShape, fecErr.Kind())
}
