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

// Simulator yaw program

package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/aamcrae/yaw/io"
	"github.com/aamcrae/yaw/yaw"
	"github.com/dustin/go-humanize"
)

var port = flag.Int("port", 8080, "Web server port number")
var slots = flag.Int("slots", 112, "Number of slots on the simulated disc")
var mark = flag.Int("mark", 30, "Position of the reference sensor in degrees")
var rate = flag.Float64("rate", 2000, "Edges per second")
var rearm = flag.Duration("rearm", 30*time.Second, "Interval between reference rearms")

func main() {
	flag.Parse()
	t, err := yaw.NewTracker("sim", *slots, true)
	if err != nil {
		log.Fatalf("%v", err)
	}
	q := new(io.LoopbackQuadrature)
	r := new(io.LoopbackReference)
	gen := io.NewGenerator(&q.A, &q.B)
	defer gen.Close()
	rev := int64(4 * *slots)
	markPos := int64(*mark) * rev / yaw.DegreesPerRev
	gen.Notify(func(pos int64) {
		if mod(pos, rev) == markPos {
			r.Trigger()
		}
	})
	if err := t.Attach(q, r); err != nil {
		log.Fatalf("%v", err)
	}
	go func() {
		log.Fatal(yaw.Server(*port, t))
	}()
	go wander(gen, rev)
	status := time.NewTicker(5 * time.Second)
	rearmTicker := time.NewTicker(*rearm)
	for {
		select {
		case <-rearmTicker.C:
			if err := t.RearmReference(); err != nil {
				log.Printf("rearm: %v", err)
			}
		case <-status.C:
			pos := gen.Position()
			expected := yaw.ToDegrees(yaw.Constrain(int32(mod(pos, rev)), int32(*slots)), int32(*slots))
			if t.Reference.TakeCaptured() {
				log.Printf("Reference captured at %d (sensor at %d)", t.ReferenceDegrees(), *mark)
			}
			log.Printf("yaw %d (expected about %d), edges %s", t.YawDegrees(), expected, humanize.Comma(int64(t.Decoder.Edges())))
		}
	}
}

// wander turns the disc back and forth by random amounts.
func wander(gen *io.Generator, rev int64) {
	for {
		edges := rand.Intn(int(rev)) - int(rev)/3
		gen.Step(*rate, edges)
		gen.Wait()
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
	}
}

// mod returns a modulo b in the range [0, b).
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
