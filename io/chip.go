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

// Encoder sources built on the GPIO character device.

package io

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "yaw"

type quadHandlers struct {
	onA, onB func(bool)
}

// ChipQuadrature delivers quadrature edges from two lines of a GPIO chip.
// Edges of both lines arrive in order on a single event goroutine.
type ChipQuadrature struct {
	lines    *gpiocdev.Lines
	a, b     int
	handlers atomic.Pointer[quadHandlers]
}

// NewChipQuadrature requests lines a and b of the chip (e.g "gpiochip0")
// as pulled up inputs with detection of both edges.
// Edges arriving before Watch is called are dropped, so Levels
// should be read after Watch.
func NewChipQuadrature(chip string, a, b int) (*ChipQuadrature, error) {
	q := &ChipQuadrature{a: a, b: b}
	var err error
	q.lines, err = gpiocdev.RequestLines(chip, []int{a, b},
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(q.event))
	if err != nil {
		return nil, fmt.Errorf("%s lines %d,%d: %v", chip, a, b, err)
	}
	return q, nil
}

func (q *ChipQuadrature) event(evt gpiocdev.LineEvent) {
	h := q.handlers.Load()
	if h == nil {
		return
	}
	level := evt.Type == gpiocdev.LineEventRisingEdge
	switch evt.Offset {
	case q.a:
		h.onA(level)
	case q.b:
		h.onB(level)
	}
}

// Levels reads the current levels of channel A and B.
func (q *ChipQuadrature) Levels() (bool, bool, error) {
	v := make([]int, 2)
	if err := q.lines.Values(v); err != nil {
		return false, false, err
	}
	return v[0] == 1, v[1] == 1, nil
}

// Watch starts delivering edges to the handlers.
func (q *ChipQuadrature) Watch(onA, onB func(bool)) error {
	q.handlers.Store(&quadHandlers{onA: onA, onB: onB})
	return nil
}

// Close releases the lines.
func (q *ChipQuadrature) Close() error {
	return q.lines.Close()
}

// ChipReference delivers falling edges of a GPIO chip line attached
// to the reference sensor. Edge detection is reconfigured on the line
// as the source is enabled and disabled.
type ChipReference struct {
	line    *gpiocdev.Line
	enabled atomic.Bool
	onEdge  atomic.Pointer[func()]
}

// NewChipReference requests the reference sensor line, initially disabled.
func NewChipReference(chip string, offset int) (*ChipReference, error) {
	r := new(ChipReference)
	var err error
	r.line, err = gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer(consumer),
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithoutEdges,
		gpiocdev.WithEventHandler(r.event))
	if err != nil {
		return nil, fmt.Errorf("%s line %d: %v", chip, offset, err)
	}
	return r, nil
}

func (r *ChipReference) event(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge || !r.enabled.Load() {
		return
	}
	if f := r.onEdge.Load(); f != nil {
		(*f)()
	}
}

// Watch starts delivering reference edges to the handler.
func (r *ChipReference) Watch(onEdge func()) error {
	r.onEdge.Store(&onEdge)
	return nil
}

// Enable turns on falling edge detection.
func (r *ChipReference) Enable() error {
	err := r.line.Reconfigure(gpiocdev.WithFallingEdge)
	if err != nil {
		return err
	}
	r.enabled.Store(true)
	return nil
}

// Disable turns off edge detection.
func (r *ChipReference) Disable() error {
	r.enabled.Store(false)
	return r.line.Reconfigure(gpiocdev.WithoutEdges)
}

// Close releases the line.
func (r *ChipReference) Close() error {
	return r.line.Close()
}
