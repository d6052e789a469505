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

// In-memory loopback pins.

package io

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Loopback is an output pin wired straight back to an input.
// Setting a new value calls the watch handler synchronously.
type Loopback struct {
	mu      sync.Mutex
	value   int
	handler func(int)
}

// Set sets the pin value, reporting a change to the handler.
func (l *Loopback) Set(v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("loopback: illegal value %d", v)
	}
	l.mu.Lock()
	changed := l.value != v
	l.value = v
	h := l.handler
	l.mu.Unlock()
	if changed && h != nil {
		h(v)
	}
	return nil
}

// Read returns the current pin value.
func (l *Loopback) Read() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, nil
}

// Watch registers the handler for value changes.
func (l *Loopback) Watch(handler func(int)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handler = handler
	return nil
}

// LoopbackQuadrature is a quadrature source fed by two loopback pins,
// normally driven by a Generator.
type LoopbackQuadrature struct {
	A, B Loopback
}

// Levels reads the current levels of channel A and B.
func (q *LoopbackQuadrature) Levels() (bool, bool, error) {
	a, _ := q.A.Read()
	b, _ := q.B.Read()
	return a == 1, b == 1, nil
}

// Watch starts delivering edges to the handlers.
func (q *LoopbackQuadrature) Watch(onA, onB func(bool)) error {
	q.A.Watch(func(v int) { onA(v == 1) })
	q.B.Watch(func(v int) { onB(v == 1) })
	return nil
}

// LoopbackReference is a reference source triggered in software.
type LoopbackReference struct {
	enabled atomic.Bool
	onEdge  atomic.Pointer[func()]
	Fired   atomic.Uint64 // Edges delivered
}

// Trigger simulates the reference sensor firing. The edge
// is only delivered when the source is enabled.
func (r *LoopbackReference) Trigger() {
	if !r.enabled.Load() {
		return
	}
	if f := r.onEdge.Load(); f != nil {
		r.Fired.Add(1)
		(*f)()
	}
}

// Watch registers the handler for reference edges.
func (r *LoopbackReference) Watch(onEdge func()) error {
	r.onEdge.Store(&onEdge)
	return nil
}

// Enable allows edges to be delivered.
func (r *LoopbackReference) Enable() error {
	r.enabled.Store(true)
	return nil
}

// Disable stops edges being delivered.
func (r *LoopbackReference) Disable() error {
	r.enabled.Store(false)
	return nil
}

// Enabled returns true if edges will be delivered.
func (r *LoopbackReference) Enabled() bool {
	return r.enabled.Load()
}
