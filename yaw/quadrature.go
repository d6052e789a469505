// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package yaw tracks the rotational position of a slotted disc
// read through a two channel quadrature encoder, and captures a
// reference yaw when an index sensor fires.
package yaw

import (
	"fmt"
	"sync/atomic"
)

// Channel identifies one of the two encoder channels.
type Channel int

const (
	ChannelA Channel = iota
	ChannelB
)

func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	}
	return "?"
}

// QuadratureState holds the last known logical level of each channel.
type QuadratureState struct {
	A bool
	B bool
}

// Level returns the level of the channel.
func (q QuadratureState) Level(ch Channel) bool {
	if ch == ChannelA {
		return q.A
	}
	return q.B
}

// Next applies a single toggle of the named channel to the state and
// returns the new state along with the counter step (+1 or -1).
// When channel A toggles and differs from B, A leads and the count
// decreases. When channel B toggles and differs from A, B leads and
// the count increases.
func Next(q QuadratureState, ch Channel) (QuadratureState, int32) {
	if ch == ChannelA {
		q.A = !q.A
		if q.A != q.B {
			return q, -1
		}
		return q, 1
	}
	q.B = !q.B
	if q.A != q.B {
		return q, 1
	}
	return q, -1
}

// Bits of the packed decoder word above the 32 bit counter.
const (
	bitA = uint64(1) << 32
	bitB = uint64(1) << 33
)

func pack(q QuadratureState, count int32) uint64 {
	w := uint64(uint32(count))
	if q.A {
		w |= bitA
	}
	if q.B {
		w |= bitB
	}
	return w
}

func unpack(w uint64) (QuadratureState, int32) {
	return QuadratureState{A: w&bitA != 0, B: w&bitB != 0}, int32(uint32(w))
}

// Decoder converts channel toggles into a yaw count.
// The channel levels and the count are kept together in a single
// atomic word, so a reader always sees a state and a count that
// belong to the same edge. Updates use compare-and-swap; no locks
// are taken and no call blocks.
//
// Changed must be called exactly once per physical toggle of a
// channel. The decoder never reads the pin, it only inverts its
// cached level, so a notification without a real toggle (or a
// lost toggle) leaves the count off by a bounded amount.
// Simultaneous toggles of both channels are not representable:
// the edge source must deliver them as two separate calls.
type Decoder struct {
	slots int32
	word  atomic.Uint64
	edges atomic.Uint64
}

// NewDecoder creates a decoder for a disc with the given number of slots,
// with both channel levels low and a count of 0.
// The slot count must be in the range [1, MaxSlots].
func NewDecoder(slots int) (*Decoder, error) {
	if slots <= 0 || slots > MaxSlots {
		return nil, fmt.Errorf("invalid slot count %d", slots)
	}
	d := new(Decoder)
	d.slots = int32(slots)
	return d, nil
}

// Seed sets the cached channel levels, normally from the pin levels
// read at startup before any edges are decoded. The count is kept.
func (d *Decoder) Seed(q QuadratureState) {
	for {
		old := d.word.Load()
		_, count := unpack(old)
		if d.word.CompareAndSwap(old, pack(q, count)) {
			return
		}
	}
}

// Changed processes a toggle of the named channel.
func (d *Decoder) Changed(ch Channel) {
	d.update(ch)
}

// update applies the toggle and returns the resulting channel state.
func (d *Decoder) update(ch Channel) QuadratureState {
	for {
		old := d.word.Load()
		q, count := unpack(old)
		q, step := Next(q, ch)
		count = Constrain(count+step, d.slots)
		if d.word.CompareAndSwap(old, pack(q, count)) {
			d.edges.Add(1)
			return q
		}
	}
}

// State returns the cached channel levels.
func (d *Decoder) State() QuadratureState {
	q, _ := unpack(d.word.Load())
	return q
}

// Count returns the yaw in quarter slots, in the range (-2*slots, 2*slots].
func (d *Decoder) Count() int32 {
	_, count := unpack(d.word.Load())
	return count
}

// Degrees returns the yaw in degrees, in the range (-180, 180].
func (d *Decoder) Degrees() int {
	return ToDegrees(d.Count(), d.slots)
}

// Edges returns the number of edges processed.
func (d *Decoder) Edges() uint64 {
	return d.edges.Load()
}
