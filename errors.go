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
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies the reason an operation in this package failed.
type ErrorKind int

const (
	// ArgumentShape means an input buffer length was not a multiple of
	// the expected per-block size, or an interleaver length disagreed
	// with a message size.
	ArgumentShape ErrorKind = iota
	// InvalidOption means an option bundle was internally inconsistent,
	// e.g. zero iterations, an empty constituent list, or a non-square
	// check matrix.
	InvalidOption
	// ConstructionFailure means codec construction could not complete,
	// e.g. LDPC preprocessing could not find a full-rank submatrix.
	ConstructionFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ArgumentShape:
		return "ArgumentShape"
	case InvalidOption:
		return "InvalidOption"
	case ConstructionFailure:
		return "ConstructionFailure"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every validating entry point in
// this package. It preserves the kind of failure alongside a wrapped
// cause so callers can branch on Kind() while %+v still prints a stack.
type Error struct {
	kind  ErrorKind
	cause error
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, cause: errors.Errorf(format, args...)}
}

// Kind reports which of the three user-visible error kinds this is.
func (e *Error) Kind() ErrorKind { return e.kind }

func (e *Error) Error() string { return e.cause.Error() }

// Unwrap allows errors.Is / errors.As to see through to the cause.
func (e *Error) Unwrap() error { return e.cause }

// Format lets `%+v` print the wrapped stack trace from pkg/errors.
func (e *Error) Format(s fmt.State, verb rune) {
	if formatter, ok := e.cause.(fmt.Formatter); ok {
		formatter.Format(s, verb)
		return
	}
	fmt.Fprint(s, e.cause.Error())
}
