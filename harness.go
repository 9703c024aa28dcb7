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
	"runtime"

	"golang.org/x/sync/errgroup"
)

// partition splits `total` work items across `workers` chunks as evenly
// as possible; the last chunk absorbs whatever doesn't divide evenly, so
// no worker (including the dispatching goroutine) needs special-casing
// for a short final chunk. Adapted from google-gofountain/util.go's
// partition, which did the equivalent split over byte ranges instead of
// block indices.
//
// Before splitting, the requested worker count is capped to the host's
// available parallelism: w = min(workers, max(runtime.NumCPU(), 1)).
func partition(total, workers int) []int {
	hardware := runtime.NumCPU()
	if hardware < 1 {
		hardware = 1
	}
	if workers > hardware {
		workers = hardware
	}
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}
	chunks := make([]int, workers)
	base := total / workers
	for i := range chunks {
		chunks[i] = base
	}
	chunks[workers-1] += total - base*workers
	return chunks
}

// EncodeBlocks runs s.EncodeBlock over every block in msg (length a
// multiple of s.MsgSize()), writing to parity (length a multiple of
// s.ParitySize()), fanning the blocks out across workers clones of s.
func EncodeBlocks(s Structure, msg, parity []byte, workers int) error {
	numBlocks, err := blockCount(len(msg), s.MsgSize(), len(parity), s.ParitySize())
	if err != nil {
		return err
	}
	chunks := partition(numBlocks, workers)

	var g errgroup.Group
	block := 0
	for _, n := range chunks {
		start, count := block, n
		block += n
		worker := s.Clone()
		g.Go(func() error {
			for b := start; b < start+count; b++ {
				msgBlock := msg[b*s.MsgSize() : (b+1)*s.MsgSize()]
				parityBlock := parity[b*s.ParitySize() : (b+1)*s.ParitySize()]
				if err := worker.EncodeBlock(msgBlock, parityBlock); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// DecodeBlocks is EncodeBlocks' decode counterpart: parityLLR holds
// numBlocks*s.ParitySize() channel LLRs, msg receives numBlocks*
// s.MsgSize() hard-decided bits.
func DecodeBlocks(s Structure, parityLLR []LLR, msg []byte, workers int) error {
	numBlocks, err := blockCountLLR(len(parityLLR), s.ParitySize(), len(msg), s.MsgSize())
	if err != nil {
		return err
	}
	chunks := partition(numBlocks, workers)

	var g errgroup.Group
	block := 0
	for _, n := range chunks {
		start, count := block, n
		block += n
		worker := s.Clone()
		g.Go(func() error {
			for b := start; b < start+count; b++ {
				parityBlock := parityLLR[b*s.ParitySize() : (b+1)*s.ParitySize()]
				msgBlock := msg[b*s.MsgSize() : (b+1)*s.MsgSize()]
				if err := worker.DecodeBlock(parityBlock, msgBlock); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// SoftDecodeBlocks is DecodeBlocks' soft-output counterpart. extrinsicIn
// and extrinsicOut may be nil; when non-nil they hold numBlocks*
// s.ExtrinsicSize() entries.
func SoftDecodeBlocks(s Structure, parityLLR, extrinsicIn []LLR, msgLLR, extrinsicOut []LLR, workers int) error {
	numBlocks, err := blockCountLLR(len(parityLLR), s.ParitySize(), len(msgLLR), s.MsgSize())
	if err != nil {
		return err
	}
	if extrinsicIn != nil && len(extrinsicIn) != numBlocks*s.ExtrinsicSize() {
		return newError(ArgumentShape, "harness: extrinsicIn has %d entries, want %d", len(extrinsicIn), numBlocks*s.ExtrinsicSize())
	}
	if extrinsicOut != nil && len(extrinsicOut) != numBlocks*s.ExtrinsicSize() {
		return newError(ArgumentShape, "harness: extrinsicOut has %d entries, want %d", len(extrinsicOut), numBlocks*s.ExtrinsicSize())
	}
	chunks := partition(numBlocks, workers)

	var g errgroup.Group
	block := 0
	for _, n := range chunks {
		start, count := block, n
		block += n
		worker := s.Clone()
		g.Go(func() error {
			for b := start; b < start+count; b++ {
				parityBlock := parityLLR[b*s.ParitySize() : (b+1)*s.ParitySize()]
				msgBlock := msgLLR[b*s.MsgSize() : (b+1)*s.MsgSize()]
				var extrinsicInBlock, extrinsicOutBlock []LLR
				if extrinsicIn != nil {
					extrinsicInBlock = extrinsicIn[b*s.ExtrinsicSize() : (b+1)*s.ExtrinsicSize()]
				}
				if extrinsicOut != nil {
					extrinsicOutBlock = extrinsicOut[b*s.ExtrinsicSize() : (b+1)*s.ExtrinsicSize()]
				}
				if err := worker.SoftDecodeBlock(parityBlock, extrinsicInBlock, msgBlock, extrinsicOutBlock); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func blockCount(msgLen, msgSize, paritySize2, paritySize int) (int, error) {
	if msgSize == 0 || msgLen%msgSize != 0 {
		return 0, newError(ArgumentShape, "harness: msg length %d is not a multiple of block size %d", msgLen, msgSize)
	}
	numBlocks := msgLen / msgSize
	if paritySize == 0 || paritySize2 != numBlocks*paritySize {
		return 0, newError(ArgumentShape, "harness: parity length %d does not match %d blocks of size %d", paritySize2, numBlocks, paritySize)
	}
	return numBlocks, nil
}

func blockCountLLR(parityLen, paritySize, msgLen, msgSize int) (int, error) {
	if paritySize == 0 || parityLen%paritySize != 0 {
		return 0, newError(ArgumentShape, "harness: parityLLR length %d is not a multiple of block size %d", parityLen, paritySize)
	}
	numBlocks := parityLen / paritySize
	if msgSize == 0 || msgLen != numBlocks*msgSize {
		return 0, newError(ArgumentShape, "harness: msg length %d does not match %d blocks of size %d", msgLen, numBlocks, msgSize)
	}
	return numBlocks, nil
}
