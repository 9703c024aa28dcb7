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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrellisFeedForwardEveryStateHasTwoOutgoingEdges(t *testing.T) {
	tr := NewTrellis([]int{5, 7}, 2)
	assert.Equal(t, 4, tr.NumStates)
	assert.Equal(t, 2, tr.N)
	assert.False(t, tr.Recursive)

	for s := 0; s < tr.NumStates; s++ {
		e0 := tr.Next(s, 0)
		e1 := tr.Next(s, 1)
		assert.NotEqual(t, e0.NextState, e1.NextState, "the two inputs from a state must diverge")
	}
}

func TestTrellisIncomingIsConsistentWithNext(t *testing.T) {
	tr := NewTrellis([]int{5, 7}, 2)
	for s := 0; s < tr.NumStates; s++ {
		for u := 0; u < 2; u++ {
			edge := tr.Next(s, u)
			found := false
			for _, in := range tr.Incoming(edge.NextState) {
				if in.FromState == s && in.Input == u && in.Output == edge.Output {
					found = true
					break
				}
			}
			assert.True(t, found, "incoming(%d) missing edge from %d on input %d", edge.NextState, s, u)
		}
	}
}

func TestTrellisFeedForwardTailInputIsAlwaysZero(t *testing.T) {
	tr := NewTrellis([]int{5, 7}, 2)
	for s := 0; s < tr.NumStates; s++ {
		assert.Equal(t, 0, tr.TailInput(s))
	}
}

func TestRecursiveTrellisSystematicOutputIsRawInput(t *testing.T) {
	tr := NewRecursiveTrellis(07, []int{05}, 2)
	assert.True(t, tr.Recursive)
	assert.Equal(t, 2, tr.N)

	for s := 0; s < tr.NumStates; s++ {
		for u := 0; u < 2; u++ {
			edge := tr.Next(s, u)
			systematic := edge.Output & 1
			assert.Equal(t, u, systematic, "bit 0 of a recursive-systematic edge's output must equal the raw input")
		}
	}
}

func TestRecursiveTrellisTailInputDrivesStateTowardZero(t *testing.T) {
	tr := NewRecursiveTrellis(07, []int{05}, 2)
	for s := 0; s < tr.NumStates; s++ {
		state := s
		for step := 0; step < tr.Nu; step++ {
			u := tr.TailInput(state)
			edge := tr.Next(state, u)
			state = edge.NextState
		}
		assert.Equal(t, 0, state, "driving the tail input for Nu steps from state %d must reach state 0", s)
	}
}
