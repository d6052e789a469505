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

package yaw

import (
	"sync"
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		in   QuadratureState
		ch   Channel
		out  QuadratureState
		step int32
	}{
		// A toggles to differ from B: A leads, count down.
		{QuadratureState{false, false}, ChannelA, QuadratureState{true, false}, -1},
		{QuadratureState{true, true}, ChannelA, QuadratureState{false, true}, -1},
		// A toggles to equal B: count up.
		{QuadratureState{true, false}, ChannelA, QuadratureState{false, false}, 1},
		{QuadratureState{false, true}, ChannelA, QuadratureState{true, true}, 1},
		// B toggles to differ from A: B leads, count up.
		{QuadratureState{false, false}, ChannelB, QuadratureState{false, true}, 1},
		{QuadratureState{true, true}, ChannelB, QuadratureState{true, false}, 1},
		// B toggles to equal A: count down.
		{QuadratureState{false, true}, ChannelB, QuadratureState{false, false}, -1},
		{QuadratureState{true, false}, ChannelB, QuadratureState{true, true}, -1},
	}
	for _, tc := range tests {
		out, step := Next(tc.in, tc.ch)
		if out != tc.out || step != tc.step {
			t.Errorf("Next(%+v, %s) = %+v, %d, expected %+v, %d", tc.in, tc.ch, out, step, tc.out, tc.step)
		}
	}
}

func newDecoder(t *testing.T, slots int) *Decoder {
	t.Helper()
	d, err := NewDecoder(slots)
	if err != nil {
		t.Fatalf("NewDecoder(%d): %v", slots, err)
	}
	return d
}

func TestNewDecoderSlots(t *testing.T) {
	tests := []struct {
		slots int
		ok    bool
	}{
		{0, false},
		{-1, false},
		{MaxSlots + 1, false},
		{1, true},
		{MaxSlots, true},
	}
	for _, tc := range tests {
		d, err := NewDecoder(tc.slots)
		if (err == nil) != tc.ok {
			t.Errorf("NewDecoder(%d): error %v", tc.slots, err)
			continue
		}
		if d != nil && d.Degrees() != 0 {
			t.Errorf("NewDecoder(%d): degrees %d", tc.slots, d.Degrees())
		}
	}
}

func TestDecoderSequence(t *testing.T) {
	d := newDecoder(t, 90)
	events := []Channel{ChannelA, ChannelB, ChannelA, ChannelA}
	expected := []int32{-1, -2, -3, -2}
	for i, ch := range events {
		d.Changed(ch)
		if c := d.Count(); c != expected[i] {
			t.Fatalf("event %d (%s): count %d, expected %d", i, ch, c, expected[i])
		}
	}
	if s := d.State(); s != (QuadratureState{true, true}) {
		t.Errorf("final state %+v", s)
	}
	if d.Edges() != 4 {
		t.Errorf("edges %d, expected 4", d.Edges())
	}
}

func TestDecoderSeed(t *testing.T) {
	d := newDecoder(t, 90)
	d.Changed(ChannelB)
	d.Seed(QuadratureState{A: true, B: false})
	if d.Count() != 1 {
		t.Errorf("Seed changed count to %d", d.Count())
	}
	// A toggles to false, equal to B: count up.
	d.Changed(ChannelA)
	if d.Count() != 2 {
		t.Errorf("count %d after seeded toggle, expected 2", d.Count())
	}
}

func TestNegativeCountPacking(t *testing.T) {
	for _, c := range []int32{0, 1, -1, 179, -179, 1 << 29, -(1 << 29)} {
		for _, q := range []QuadratureState{{false, false}, {true, false}, {false, true}, {true, true}} {
			q2, c2 := unpack(pack(q, c))
			if q2 != q || c2 != c {
				t.Errorf("pack(%+v, %d) unpacked as %+v, %d", q, c, q2, c2)
			}
		}
	}
}

// rotate applies edges in one direction: alternating B, A increments from a
// state where A == B, alternating A, B decrements.
func rotate(d *Decoder, edges int, clockwise bool) {
	for i := 0; i < edges; i++ {
		q := d.State()
		if clockwise == (q.A == q.B) {
			d.Changed(ChannelB)
		} else {
			d.Changed(ChannelA)
		}
	}
}

func TestFullRevolution(t *testing.T) {
	for _, slots := range []int{1, 3, 90, 112} {
		d := newDecoder(t, slots)
		prev := d.Count()
		for i := 0; i < 4*slots; i++ {
			rotate(d, 1, true)
			c := d.Count()
			if c <= int32(-2*slots) || c > int32(2*slots) {
				t.Fatalf("slots %d: count %d out of range", slots, c)
			}
			if c != prev+1 && c != prev+1-int32(4*slots) {
				t.Fatalf("slots %d: count moved from %d to %d", slots, prev, c)
			}
			prev = c
		}
		if d.Count() != 0 {
			t.Errorf("slots %d: count %d after full revolution", slots, d.Count())
		}
		rotate(d, 4*slots, false)
		if d.Count() != 0 {
			t.Errorf("slots %d: count %d after reverse revolution", slots, d.Count())
		}
	}
}

func TestDirectionReversal(t *testing.T) {
	d := newDecoder(t, 90)
	rotate(d, 10, true)
	rotate(d, 3, false)
	if d.Count() != 7 {
		t.Errorf("count %d, expected 7", d.Count())
	}
	if d.Degrees() != 7 {
		t.Errorf("degrees %d, expected 7", d.Degrees())
	}
}

func TestArbitrarySequenceInRange(t *testing.T) {
	const slots = 5
	d := newDecoder(t, slots)
	seed := uint32(12345)
	for i := 0; i < 100000; i++ {
		seed = seed*1664525 + 1013904223
		d.Changed(Channel(seed >> 31))
		c := d.Count()
		if c <= -2*slots || c > 2*slots {
			t.Fatalf("count %d out of range after %d edges", c, i)
		}
	}
}

func TestConcurrentEdges(t *testing.T) {
	const slots = 7
	d := newDecoder(t, slots)
	var wg sync.WaitGroup
	for _, ch := range []Channel{ChannelA, ChannelB} {
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				d.Changed(ch)
			}
		}(ch)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			c := d.Count()
			if c <= -2*slots || c > 2*slots {
				t.Errorf("read count %d out of range", c)
				return
			}
		}
	}()
	wg.Wait()
	<-done
	if d.Edges() != 20000 {
		t.Errorf("edges %d, expected 20000", d.Edges())
	}
	// Each channel toggled an even number of times.
	if s := d.State(); s != (QuadratureState{}) {
		t.Errorf("final state %+v", s)
	}
}
