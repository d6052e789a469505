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

// Yaw tracker combining the decoder and the reference latch.

package yaw

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// QuadratureSource is the hardware providing the two encoder channels.
// Levels reads the current channel levels once at startup, after
// Watch has been called.
// Watch registers handlers called on every rising and falling edge
// of channel A and channel B, with the level observed at the edge.
// Edges of one channel must be delivered in order, one call per toggle.
type QuadratureSource interface {
	Levels() (bool, bool, error)
	Watch(onA, onB func(bool)) error
}

// ReferenceSource is the hardware providing the reference sensor.
// Watch registers a handler called on the single active edge of the
// sensor while the source is enabled.
type ReferenceSource interface {
	Switch
	Watch(onEdge func()) error
}

// Tracker owns the yaw state of one disc. Both edge handlers
// are threaded through the one Tracker instance.
type Tracker struct {
	Name      string
	Decoder   *Decoder
	Reference *ReferenceLatch
	suspect   atomic.Uint64 // Edges where the observed level disagreed

	seeded  atomic.Bool
	mu      sync.Mutex // Guards pending until seeded
	pending []pendingEdge
}

// pendingEdge is an edge delivered before the decoder was seeded.
type pendingEdge struct {
	ch    Channel
	level bool
}

// NewTracker creates a Tracker for a disc with the given number of slots.
// armed is the startup state of the reference latch.
func NewTracker(name string, slots int, armed bool) (*Tracker, error) {
	if slots <= 0 || slots > MaxSlots {
		return nil, fmt.Errorf("%s: invalid slot count %d", name, slots)
	}
	t := new(Tracker)
	t.Name = name
	d, err := NewDecoder(slots)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	t.Decoder = d
	t.Reference = NewReferenceLatch(name, t.Decoder, nil, armed)
	return t, nil
}

// Attach registers the edge handlers with the sources and seeds the
// decoder from the current channel levels. The reference source
// is enabled or disabled to match the latch state.
// Either source may be nil.
//
// Edges delivered between Watch and the seeding are held and replayed
// once the decoder is seeded. A held edge whose level matches the
// seeded level was already seen by Levels and is dropped.
func (t *Tracker) Attach(q QuadratureSource, r ReferenceSource) error {
	if q != nil {
		err := q.Watch(t.edgeA, t.edgeB)
		if err != nil {
			return fmt.Errorf("%s: quadrature source: %v", t.Name, err)
		}
		a, b, err := q.Levels()
		if err != nil {
			return fmt.Errorf("%s: channel levels: %v", t.Name, err)
		}
		n := t.seed(QuadratureState{A: a, B: b})
		log.Printf("%s: initial levels A=%v B=%v, %d edges replayed", t.Name, a, b, n)
	}
	if r != nil {
		t.Reference.sw = r
		err := r.Watch(t.Reference.Edge)
		if err != nil {
			return fmt.Errorf("%s: reference source: %v", t.Name, err)
		}
		if t.Reference.Armed() {
			err = r.Enable()
		} else {
			err = r.Disable()
		}
		if err != nil {
			return fmt.Errorf("%s: reference source: %v", t.Name, err)
		}
	}
	return nil
}

func (t *Tracker) edgeA(level bool) {
	t.edge(ChannelA, level)
}

func (t *Tracker) edgeB(level bool) {
	t.edge(ChannelB, level)
}

// seed sets the decoder levels and replays the held edges,
// returning the number replayed.
func (t *Tracker) seed(q QuadratureState) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Decoder.Seed(q)
	n := 0
	for _, e := range t.pending {
		if t.Decoder.State().Level(e.ch) != e.level {
			t.decode(e.ch, e.level)
			n++
		}
	}
	t.pending = nil
	t.seeded.Store(true)
	return n
}

// edge holds the edge until the decoder is seeded, then decodes it.
func (t *Tracker) edge(ch Channel, level bool) {
	if !t.seeded.Load() {
		t.mu.Lock()
		if !t.seeded.Load() {
			t.pending = append(t.pending, pendingEdge{ch, level})
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
	}
	t.decode(ch, level)
}

// decode applies a toggle, then cross-checks the toggled level against
// the level the source observed. A mismatch means an edge was missed
// or spurious; it is counted but not corrected.
func (t *Tracker) decode(ch Channel, level bool) {
	q := t.Decoder.update(ch)
	if q.Level(ch) != level {
		t.suspect.Add(1)
	}
}

// YawDegrees returns the current yaw in degrees.
func (t *Tracker) YawDegrees() int {
	return t.Decoder.Degrees()
}

// ReferenceDegrees returns the last captured reference yaw in degrees.
func (t *Tracker) ReferenceDegrees() int {
	return t.Reference.Degrees()
}

// RearmReference arms the reference latch for another capture.
func (t *Tracker) RearmReference() error {
	return t.Reference.Rearm()
}

// Captured returns true if a reference yaw has been captured.
func (t *Tracker) Captured() bool {
	return t.Reference.Captured()
}

// Suspect returns the number of edges where the level observed by the
// source did not match the decoded level.
func (t *Tracker) Suspect() uint64 {
	return t.suspect.Load()
}
