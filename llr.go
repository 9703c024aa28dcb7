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

// LLR is a log-likelihood ratio, ln(P(x=1|y)/P(x=0|y)).
type LLR = float64

// ThresholdLLR is the magnitude beyond which a finite LLR must be
// saturated so that exp(-|a-b|) never underflows beyond what the jacln
// correction table assumes.
const ThresholdLLR LLR = 37.0

// PositiveInfinityLLR represents absolute certainty that a bit is 1.
var PositiveInfinityLLR = math.Inf(1)

// NegativeInfinityLLR represents absolute certainty that a bit is 0.
var NegativeInfinityLLR = math.Inf(-1)

// jaclnTable holds the correction term ln(1+exp(-|a-b|)) for |a-b| in
// [0, tableStep, 2*tableStep, ..., 7*tableStep], beyond which the
// correction is negligible and treated as zero.
var jaclnTable = [8]LLR{
	math.Ln2,
	0.4740770,
	0.3132617,
	0.2014133,
	0.1269280,
	0.0788897,
	0.0485874,
	0.0297504,
}

const jaclnTableStep = 0.5

// Saturate clamps x to ±ThresholdLLR, leaving infinities untouched.
func Saturate(x LLR) LLR {
	if math.IsInf(x, 0) {
		return x
	}
	if x > ThresholdLLR {
		return ThresholdLLR
	}
	if x < -ThresholdLLR {
		return -ThresholdLLR
	}
	return x
}

// JacLn is the Jacobian-log combinator used throughout the MAP recursions
// and the LDPC sum-product check update. When exact is true it computes
// the true log-sum-exp via an 8-entry lookup-table correction; when false
// it computes the max-log approximation max(a,b).
func JacLn(a, b LLR, exact bool) LLR {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}

	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if !exact {
		return hi
	}

	diff := hi - lo
	idx := int(diff / jaclnTableStep)
	if idx >= len(jaclnTable) {
		return hi
	}
	return hi + jaclnTable[idx]
}

// CombineMany folds JacLn across a slice of LLRs, left to right.
func CombineMany(values []LLR, exact bool) LLR {
	if len(values) == 0 {
		return NegativeInfinityLLR
	}
	acc := values[0]
	for _, v := range values[1:] {
		acc = JacLn(acc, v, exact)
	}
	return acc
}

// signLLR returns -1 for a negative LLR (bit more likely 0) and +1
// otherwise (zero included), matching the branch-metric sign convention of spec.md §4.3.
func signLLR(x LLR) LLR {
	if x < 0 {
		return -1
	}
	return 1
}

// phi is the LDPC sum-product check-node transform φ(x) = -ln(tanh(|x|/2)),
// its own inverse, used by the sum-product belief-propagation variant.
func phi(x LLR) LLR {
	x = math.Abs(x)
	if x < 1e-12 {
		return ThresholdLLR
	}
	v := -math.Log(math.Tanh(x / 2))
	if v > ThresholdLLR {
		return ThresholdLLR
	}
	return v
}
