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

package io

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

const generatorQueueSize = 20 // Size of queue for requests

// Setter is the interface to an output pin.
type Setter interface {
	Set(int) error
}

type msg struct {
	rate  float64 // Edges per second
	edges int
	sync  chan bool
}

// Generator produces a quadrature encoder signal on two output pins.
// All output is done in a background goroutine, so requests can be queued.
// The position is the signed number of edges generated, positive
// edges having channel B leading channel A.
type Generator struct {
	pinA, pinB Setter      // Outputs for channel A and B
	mChan      chan msg    // channel for message requests
	stopChan   chan bool   // channel for signalling resets.
	index      int         // Index to Gray code sequence
	current    int64       // Current edge position
	notify     func(int64) // Called after each edge
}

// Gray code sequence of channel A and B outputs.
var grayCode = [4][2]int{
	{0, 0},
	{0, 1},
	{1, 1},
	{1, 0},
}

// NewGenerator creates and initialises a Generator driving
// channel A and channel B outputs, starting with both low.
func NewGenerator(pinA, pinB Setter) *Generator {
	g := new(Generator)
	g.pinA = pinA
	g.pinB = pinB
	g.mChan = make(chan msg, generatorQueueSize)
	g.stopChan = make(chan bool)
	g.output()
	go g.handler()
	return g
}

// Notify sets a function called with the position after every edge.
// It must be set before any edges are requested.
func (g *Generator) Notify(f func(int64)) {
	g.notify = f
}

// Restore sets the outputs to the levels a and b, so that the generator
// can continue from the state of a previous instance.
// It must be called before any edges are requested.
func (g *Generator) Restore(a, b int) error {
	for i, s := range grayCode {
		if s[0] == a && s[1] == b {
			g.index = i
			g.output()
			return nil
		}
	}
	return fmt.Errorf("generator: invalid levels %d,%d", a, b)
}

// Position returns the current edge position.
func (g *Generator) Position() int64 {
	return atomic.LoadInt64(&g.current)
}

// Close stops the generator and flushes all queued requests.
func (g *Generator) Close() {
	g.Stop()
	close(g.stopChan)
}

// Stop aborts the current request, and flushes all queued requests.
func (g *Generator) Stop() {
	g.stopChan <- true
	g.Wait()
}

// Step queues a request to generate the number of edges at the
// given rate (edges per second). Positive edges have B leading A,
// negative edges have A leading B.
func (g *Generator) Step(rate float64, edges int) {
	if edges != 0 && rate > 0.0 {
		g.mChan <- msg{rate: rate, edges: edges}
	}
}

// Wait waits for all requests to complete
func (g *Generator) Wait() {
	c := make(chan bool)
	g.mChan <- msg{sync: c}
	<-c
}

// goroutine handler
// Listens on message channel, and generates the edges.
func (g *Generator) handler() {
	for {
		select {
		case m := <-g.mChan:
			if m.edges != 0 {
				if g.run(m.rate, m.edges) {
					return
				}
			}
			if m.sync != nil {
				close(m.sync)
			}
		case stop := <-g.stopChan:
			// Request to stop and flush all requests
			g.flush()
			if !stop {
				return
			}
		}
	}
}

// run outputs the requested number of edges, one per tick.
// Returns true if the generator has been closed.
func (g *Generator) run(rate float64, edges int) bool {
	inc := 1
	if edges < 0 {
		inc = -1
		edges = -edges
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()
	for i := 0; i < edges; i++ {
		g.index = (g.index + inc) & 3
		g.output()
		pos := atomic.AddInt64(&g.current, int64(inc))
		if g.notify != nil {
			g.notify(pos)
		}
		select {
		case stop := <-g.stopChan:
			g.flush()
			return !stop
		case <-ticker.C:
		}
	}
	return false
}

// Flush all remaining requests from message channel.
func (g *Generator) flush() {
	for {
		select {
		case m := <-g.mChan:
			if m.sync != nil {
				close(m.sync)
			}
		default:
			return
		}
	}
}

// Set the outputs according to the current sequence index.
// Only one output changes between adjacent entries.
func (g *Generator) output() {
	seq := grayCode[g.index]
	if err := g.pinA.Set(seq[0]); err != nil {
		log.Printf("generator: channel A: %v", err)
	}
	if err := g.pinB.Set(seq[1]); err != nil {
		log.Printf("generator: channel B: %v", err)
	}
}
