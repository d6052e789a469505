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

// Reference yaw one-shot latch.

package yaw

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Switch enables and disables delivery of reference edges
// by the underlying hardware.
type Switch interface {
	Enable() error
	Disable() error
}

// Yaw provides the current yaw in degrees.
type Yaw interface {
	Degrees() int
}

// ReferenceLatch captures the yaw once when the reference sensor fires.
// The latch has two states, armed and disarmed. An edge while armed
// stores the current yaw, sets the captured indicator and moves to
// disarmed, turning off the hardware source. Only Rearm moves back
// to armed. The stored value and the captured indicator survive a
// rearm and are only replaced by the next capture.
type ReferenceLatch struct {
	Name     string
	yaw      Yaw
	sw       Switch // May be nil
	value    atomic.Int32
	armed    atomic.Bool
	captured atomic.Bool
	captures atomic.Uint64
}

// NewReferenceLatch creates a latch reading the yaw from y.
// The initial state is given explicitly by armed; the hardware
// source is not touched until an edge or a Rearm.
func NewReferenceLatch(name string, y Yaw, sw Switch, armed bool) *ReferenceLatch {
	r := new(ReferenceLatch)
	r.Name = name
	r.yaw = y
	r.sw = sw
	r.armed.Store(armed)
	return r
}

// Edge handles a reference edge. An edge while disarmed should not be
// delivered by the source; if it is, it is ignored.
func (r *ReferenceLatch) Edge() {
	if !r.armed.CompareAndSwap(true, false) {
		return
	}
	r.value.Store(int32(r.yaw.Degrees()))
	r.captured.Store(true)
	r.captures.Add(1)
	if r.sw != nil {
		if err := r.sw.Disable(); err != nil {
			log.Printf("%s: disable reference source: %v", r.Name, err)
		}
		// A Rearm between the capture and the Disable leaves the
		// latch armed, so the source must be turned back on.
		if r.armed.Load() {
			if err := r.sw.Enable(); err != nil {
				log.Printf("%s: enable reference source: %v", r.Name, err)
			}
		}
	}
}

// Rearm arms the latch for another capture and enables the hardware source.
// If the source cannot be enabled, the latch is disarmed again.
func (r *ReferenceLatch) Rearm() error {
	r.armed.Store(true)
	if r.sw != nil {
		if err := r.sw.Enable(); err != nil {
			r.armed.CompareAndSwap(true, false)
			return fmt.Errorf("%s: enable reference source: %v", r.Name, err)
		}
	}
	return nil
}

// Degrees returns the last captured yaw, or 0 if nothing has been captured.
func (r *ReferenceLatch) Degrees() int {
	return int(r.value.Load())
}

// Armed returns true if the next reference edge will be captured.
func (r *ReferenceLatch) Armed() bool {
	return r.armed.Load()
}

// Captured returns true once a reference has been captured.
func (r *ReferenceLatch) Captured() bool {
	return r.captured.Load()
}

// TakeCaptured returns the captured indicator and clears it.
func (r *ReferenceLatch) TakeCaptured() bool {
	return r.captured.Swap(false)
}

// Captures returns the number of captures made.
func (r *ReferenceLatch) Captures() uint64 {
	return r.captures.Load()
}
