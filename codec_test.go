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

func TestCodecConvolutionalEncodeDecode(t *testing.T) {
	s := NewConvolutionalStructure(newTestTrellis(), 24, ZeroTail)
	c := NewCodec(ConvolutionalKind, s, WithWorkers(3))

	r := rand.New(rand.NewSource(31))
	msg := make([]byte, 5*c.MsgSize())
	for i := range msg {
		msg[i] = byte(r.Intn(2))
	}

	parity, err := c.Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, 5*c.ParitySize(), len(parity))

	decoded, err := c.Decode(bitsToChannelLLR(parity))
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)
}

func TestCodecSetDecoderOptionsRoundTrip(t *testing.T) {
	s := NewConvolutionalStructure(newTestTrellis(), 12, Truncation)
	c := NewCodec(ConvolutionalKind, s, WithAlgorithm(Approximate))
	assert.Equal(t, Approximate, c.GetDecoderOptions().Algorithm)

	c.SetDecoderOptions(DecoderOptions{Algorithm: Exact})
	assert.Equal(t, Exact, c.GetDecoderOptions().Algorithm)
}

func TestCodecSetDecoderOptionsRoundTripGain(t *testing.T) {
	s, err := NewGallagerLdpcStructure(12, 6, 3, 20, 7)
	require.NoError(t, err)
	c := NewCodec(LdpcKind, s)

	c.SetDecoderOptions(DecoderOptions{Gain: 1.5})
	assert.Equal(t, LLR(1.5), c.GetDecoderOptions().Gain)

	c.SetDecoderOptions(DecoderOptions{Gain: 2.25})
	assert.Equal(t, LLR(2.25), c.GetDecoderOptions().Gain)
}

func TestCodecPuncturingUnsupportedOnConvolutional(t *testing.T) {
	s := NewConvolutionalStructure(newTestTrellis(), 12, Truncation)
	c := NewCodec(ConvolutionalKind, s)
	err := c.SetPuncturing([]bool{true})
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, InvalidOption, fecErr.Kind())
	assert.Nil(t, c.Puncturing())
}

func TestCodecTurboSoftDecodeReportsExtrinsic(t *testing.T) {
	turbo := newTestTurbo(t, 16, Parallel, Grouped)
	c := NewCodec(TurboKind, turbo)

	r := rand.New(rand.NewSource(32))
	msg := randomMsg(r, c.MsgSize())
	parity, err := c.Encode(msg)
	require.NoError(t, err)

	msgLLR, extrinsic, err := c.SoftDecode(bitsToChannelLLR(parity), nil, true)
	require.NoError(t, err)
	require.Equal(t, c.MsgSize(), len(extrinsic))
	for i, llr := range msgLLR {
		hard := byte(0)
		if llr > 0 {
			hard = 1
		}
		assert.Equal(t, msg[i], hard)
	}
}

func TestCodecLdpcEncodeDecodeAndRejectsPuncturing(t *testing.T) {
	s, err := NewGallagerLdpcStructure(12, 6, 3, 20, 5)
	require.NoError(t, err)
	c := NewCodec(LdpcKind, s, WithWorkers(2))

	r := rand.New(rand.NewSource(33))
	msg := make([]byte, 4*c.MsgSize())
	for i := range msg {
		msg[i] = byte(r.Intn(2))
	}
	parity, err := c.Encode(msg)
	require.NoError(t, err)

	decoded, err := c.Decode(bitsToChannelLLR(parity))
	require.NoError(t, err)
	assert.Equal(t, msg, decoded)

	err = c.SetPuncturing([]bool{true})
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, InvalidOption, fecErr.Kind())
}

func TestCodecEncodeRejectsNonMultipleLength(t *testing.T) {
	s := NewConvolutionalStructure(newTestTrellis(), 10, Truncation)
	c := NewCodec(ConvolutionalKind, s)
	_, err := c.Encode(make([]byte, 3))
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, ArgumentShape, fecErr.Kind())
}
