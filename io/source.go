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

// Encoder sources built on sysfs GPIO pins.

package io

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	gpio "github.com/aamcrae/gpio"
)

// Timeout when waiting for an edge, so that watchers notice Close.
const pollTimeout = 100 * time.Millisecond

// edgeReader waits for an edge and returns the pin value.
type edgeReader interface {
	GetTimeout(time.Duration) (int, error)
}

// watch reads edges from the pin until done is closed, calling handler
// with the value read. An input error stops the watcher and is logged,
// since no further edges can be delivered.
func watch(number int, pin edgeReader, done <-chan struct{}, handler func(int)) error {
	for {
		select {
		case <-done:
			return nil
		default:
		}
		v, err := pin.GetTimeout(pollTimeout)
		if errors.Is(err, os.ErrDeadlineExceeded) {
			continue
		}
		if err != nil {
			log.Printf("gpio%d: watch: %v", number, err)
			return err
		}
		handler(v)
	}
}

// PinQuadrature delivers quadrature edges from two sysfs input pins.
// Each channel is watched by its own goroutine.
type PinQuadrature struct {
	numbers [2]int
	pins    [2]*gpio.Gpio
	levels  [2]atomic.Int32 // Last value read from each pin
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewPinQuadrature opens the GPIOs for channel A and channel B,
// reads their levels and then sets detection of both edges.
func NewPinQuadrature(a, b int) (*PinQuadrature, error) {
	q := &PinQuadrature{numbers: [2]int{a, b}, done: make(chan struct{})}
	for i, n := range q.numbers {
		p, err := gpio.Pin(n)
		if err == nil {
			q.pins[i] = p
			// With no edge detection set, Get reads without waiting.
			var v int
			v, err = p.Get()
			q.levels[i].Store(int32(v))
			if err == nil {
				err = p.Edge(gpio.BOTH)
			}
		}
		if err != nil {
			q.Close()
			return nil, fmt.Errorf("gpio%d: %v", n, err)
		}
	}
	return q, nil
}

// Levels returns the levels of channel A and B, as last read.
func (q *PinQuadrature) Levels() (bool, bool, error) {
	return q.levels[0].Load() == 1, q.levels[1].Load() == 1, nil
}

// Watch starts delivering edges to the handlers.
func (q *PinQuadrature) Watch(onA, onB func(bool)) error {
	for i, h := range []func(bool){onA, onB} {
		i, h := i, h
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			watch(q.numbers[i], q.pins[i], q.done, func(v int) {
				q.levels[i].Store(int32(v))
				h(v == 1)
			})
		}()
	}
	return nil
}

// Close stops the watchers and releases the pins.
func (q *PinQuadrature) Close() {
	close(q.done)
	q.wg.Wait()
	for _, p := range q.pins {
		if p != nil {
			p.Close()
		}
	}
}

// PinReference delivers falling edges of a sysfs input pin
// attached to the reference sensor. Edge detection is only set
// while the source is enabled.
type PinReference struct {
	number  int
	pin     *gpio.Gpio
	mu      sync.Mutex // Guards pin and enabled
	enabled bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewPinReference opens the reference sensor GPIO, initially disabled.
func NewPinReference(number int) (*PinReference, error) {
	p, err := gpio.Pin(number)
	if err != nil {
		return nil, fmt.Errorf("gpio%d: %v", number, err)
	}
	// Read once to clear any pending state before edges are enabled.
	if _, err := p.Get(); err != nil {
		p.Close()
		return nil, fmt.Errorf("gpio%d: %v", number, err)
	}
	return &PinReference{number: number, pin: p, done: make(chan struct{})}, nil
}

// Watch starts delivering reference edges to the handler.
// The pin lock is held while waiting for an edge, and released
// before the handler is called so that it can disable the source.
func (r *PinReference) Watch(onEdge func()) error {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		watch(r.number, r, r.done, func(v int) {
			if v == 0 {
				onEdge()
			}
		})
	}()
	return nil
}

// GetTimeout waits for a falling edge while the source is enabled.
// When disabled it waits out the timeout.
func (r *PinReference) GetTimeout(tout time.Duration) (int, error) {
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		select {
		case <-r.done:
		case <-time.After(tout):
		}
		return 0, os.ErrDeadlineExceeded
	}
	defer r.mu.Unlock()
	return r.pin.GetTimeout(tout)
}

// Enable turns on falling edge detection.
func (r *PinReference) Enable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.pin.Edge(gpio.FALLING); err != nil {
		return fmt.Errorf("gpio%d: %v", r.number, err)
	}
	r.enabled = true
	return nil
}

// Disable turns off edge detection.
func (r *PinReference) Disable() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
	if err := r.pin.Edge(gpio.NONE); err != nil {
		return fmt.Errorf("gpio%d: %v", r.number, err)
	}
	return nil
}

// Close stops the watcher and releases the pin.
func (r *PinReference) Close() {
	close(r.done)
	r.wg.Wait()
	r.pin.Close()
}
