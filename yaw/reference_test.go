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
	"errors"
	"testing"
)

type fixedYaw int

func (f *fixedYaw) Degrees() int {
	return int(*f)
}

type fakeSwitch struct {
	enabled   bool
	enables   int
	fail      error
	onDisable func() // Called once, before the source is disabled
}

func (s *fakeSwitch) Enable() error {
	if s.fail != nil {
		return s.fail
	}
	s.enables++
	s.enabled = true
	return nil
}

func (s *fakeSwitch) Disable() error {
	if f := s.onDisable; f != nil {
		s.onDisable = nil
		f()
	}
	s.enabled = false
	return nil
}

func TestReferenceCapture(t *testing.T) {
	y := fixedYaw(42)
	sw := &fakeSwitch{enabled: true}
	r := NewReferenceLatch("test", &y, sw, true)
	if r.Degrees() != 0 || r.Captured() {
		t.Fatalf("initial reference %d, captured %v", r.Degrees(), r.Captured())
	}
	r.Edge()
	if r.Degrees() != 42 {
		t.Errorf("reference %d, expected 42", r.Degrees())
	}
	if r.Armed() {
		t.Errorf("latch still armed after capture")
	}
	if sw.enabled {
		t.Errorf("source not disabled after capture")
	}
	if !r.Captured() {
		t.Errorf("captured not set")
	}
	// Disarmed: another edge changes nothing.
	y = 10
	r.Edge()
	if r.Degrees() != 42 || r.Captures() != 1 {
		t.Errorf("edge while disarmed changed reference to %d (%d captures)", r.Degrees(), r.Captures())
	}
}

func TestReferenceRearm(t *testing.T) {
	y := fixedYaw(-17)
	sw := &fakeSwitch{}
	r := NewReferenceLatch("test", &y, sw, true)
	r.Edge()
	if err := r.Rearm(); err != nil {
		t.Fatalf("Rearm: %v", err)
	}
	if !r.Armed() || !sw.enabled {
		t.Fatalf("armed %v, source enabled %v", r.Armed(), sw.enabled)
	}
	// Rearm keeps the old value and indicator.
	if r.Degrees() != -17 || !r.Captured() {
		t.Errorf("rearm cleared reference %d, captured %v", r.Degrees(), r.Captured())
	}
	y = 135
	r.Edge()
	if r.Degrees() != 135 {
		t.Errorf("reference %d after second capture, expected 135", r.Degrees())
	}
	if r.Captures() != 2 {
		t.Errorf("%d captures, expected 2", r.Captures())
	}
}

func TestReferenceInitiallyDisarmed(t *testing.T) {
	y := fixedYaw(90)
	r := NewReferenceLatch("test", &y, nil, false)
	r.Edge()
	if r.Captured() || r.Degrees() != 0 {
		t.Errorf("disarmed latch captured %d", r.Degrees())
	}
	if err := r.Rearm(); err != nil {
		t.Fatalf("Rearm: %v", err)
	}
	r.Edge()
	if r.Degrees() != 90 {
		t.Errorf("reference %d, expected 90", r.Degrees())
	}
}

func TestReferenceRearmFailure(t *testing.T) {
	y := fixedYaw(1)
	sw := &fakeSwitch{fail: errors.New("busy")}
	r := NewReferenceLatch("test", &y, sw, false)
	if err := r.Rearm(); err == nil {
		t.Fatalf("expected error from Rearm")
	}
	if r.Armed() {
		t.Errorf("latch armed after failed enable")
	}
}

func TestTakeCaptured(t *testing.T) {
	y := fixedYaw(5)
	r := NewReferenceLatch("test", &y, nil, true)
	if r.TakeCaptured() {
		t.Errorf("TakeCaptured true before capture")
	}
	r.Edge()
	if !r.TakeCaptured() {
		t.Errorf("TakeCaptured false after capture")
	}
	if r.Captured() {
		t.Errorf("captured still set after TakeCaptured")
	}
	if r.Degrees() != 5 {
		t.Errorf("reference %d, expected 5", r.Degrees())
	}
}

func TestReferenceRearmDuringCapture(t *testing.T) {
	y := fixedYaw(30)
	sw := &fakeSwitch{enabled: true}
	r := NewReferenceLatch("test", &y, sw, true)
	// Rearm lands after the capture but before the source is disabled.
	sw.onDisable = func() {
		if err := r.Rearm(); err != nil {
			t.Errorf("Rearm: %v", err)
		}
	}
	r.Edge()
	if !r.Armed() {
		t.Fatalf("latch not armed after rearm")
	}
	if !sw.enabled {
		t.Errorf("latch armed with source disabled")
	}
	y = 60
	r.Edge()
	if r.Degrees() != 60 || r.Captures() != 2 {
		t.Errorf("reference %d, %d captures, expected 60, 2", r.Degrees(), r.Captures())
	}
}
