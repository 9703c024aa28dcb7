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

func newTestGallager(t *testing.T) *LdpcStructure {
	t.Helper()
	l, err := NewGallagerLdpcStructure(12, 6, 3, 20, 1234)
	require.NoError(t, err)
	return l
}

func TestLdpcEncodeProducesValidCodeword(t *testing.T) {
	l := newTestGallager(t)
	r := rand.New(rand.NewSource(11))
	msg := randomMsg(r, l.MsgSize())
	codeword := make([]byte, l.ParitySize())
	require.NoError(t, l.EncodeBlock(msg, codeword))

	syndrome := l.h.Syndrome(codeword)
	assert.True(t, IsZero(syndrome), "encoded codeword must satisfy H*x=0")
	assert.Equal(t, msg, codeword[:l.MsgSize()], "the first k bits of the codeword must be the systematic message")
}

func TestLdpcDecodeRoundTripNoiseless(t *testing.T) {
	l := newTestGallager(t)
	r := rand.New(rand.NewSource(12))
	msg := randomMsg(r, l.MsgSize())
	codeword := make([]byte, l.ParitySize())
	require.NoError(t, l.EncodeBlock(msg, codeword))

	decoded := make([]byte, l.MsgSize())
	require.NoError(t, l.DecodeBlock(bitsToChannelLLR(codeword), decoded))
	assert.Equal(t, msg, decoded)
}

func TestLdpcDecodeRoundTripMinSum(t *testing.T) {
	l := newTestGallager(t)
	l.SetAlgorithm(Approximate)
	r := rand.New(rand.NewSource(13))
	msg := randomMsg(r, l.MsgSize())
	codeword := make([]byte, l.ParitySize())
	require.NoError(t, l.EncodeBlock(msg, codeword))

	decoded := make([]byte, l.MsgSize())
	require.NoError(t, l.DecodeBlock(bitsToChannelLLR(codeword), decoded))
	assert.Equal(t, msg, decoded)
}

func TestLdpcStaircaseRejectsNonStaircaseMatrix(t *testing.T) {
	h := NewSparseBitMatrix(4, 10)
	for r := 0; r < 4; r++ {
		h.Set(r, 0) // arbitrary info connection
		// deliberately omit the staircase tail
	}
	_, err := newLdpcStructure(h, 6, 10)
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, ConstructionFailure, fecErr.Kind())
}

func TestLdpcDvbS2StyleConstruction(t *testing.T) {
	k, m, group := 12, 6, 2
	baseRows := [][]int{
		{0, 3, 7},
		{1, 4, 9},
		{2, 5, 11},
	}
	l, err := NewDvbS2LdpcStructure(k, m, group, baseRows, 20)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(14))
	msg := randomMsg(r, l.MsgSize())
	codeword := make([]byte, l.ParitySize())
	require.NoError(t, l.EncodeBlock(msg, codeword))
	assert.True(t, IsZero(l.h.Syndrome(codeword)))

	decoded := make([]byte, l.MsgSize())
	require.NoError(t, l.DecodeBlock(bitsToChannelLLR(codeword), decoded))
	assert.Equal(t, msg, decoded)
}

func TestLdpcCloneIsIndependent(t *testing.T) {
	l := newTestGallager(t)
	clone := l.Clone().(*LdpcStructure)
	assert.Equal(t, l.MsgSize(), clone.MsgSize())
	assert.Equal(t, l.ParitySize(), clone.ParitySize())
	assert.NotSame(t, &l.q, &clone.q)
}

func TestLdpcRejectsInvalidColumnWeight(t *testing.T) {
	_, err := NewGallagerLdpcStructure(12, 5, 3, 20, 1)
	require.Error(t, err)
	var fecErr *Error
	require.ErrorAs(t, err, &fecErr)
	assert.Equal(t, InvalidOption, fecErr.Kind())
}
