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

// HTTP server for yaw status and dial image.

package yaw

import (
	"fmt"
	"image/png"
	"log"
	"math"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/fogleman/gg"
)

const dialSize = 400
const dialMid = dialSize / 2

// Server runs a HTTP server on port showing the state of the tracker.
func Server(port int, t *Tracker) error {
	url := fmt.Sprintf(":%d", port)
	log.Printf("%s: Starting server on %s", t.Name, url)
	server := &http.Server{Addr: url, Handler: Handler(t)}
	return server.ListenAndServe()
}

// Handler returns the handlers for the tracker:
//
//	/status   - text summary
//	/yaw.png  - dial image with the yaw and reference marked
//	/rearm    - POST to rearm the reference latch
func Handler(t *Tracker) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", statusHandler(t))
	mux.HandleFunc("/yaw.png", dialHandler(t))
	mux.HandleFunc("/rearm", rearmHandler(t))
	return mux
}

func statusHandler(t *Tracker) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "name: %s\n", t.Name)
		fmt.Fprintf(w, "yaw: %d\n", t.YawDegrees())
		fmt.Fprintf(w, "count: %d\n", t.Decoder.Count())
		fmt.Fprintf(w, "reference: %d\n", t.ReferenceDegrees())
		fmt.Fprintf(w, "armed: %v\n", t.Reference.Armed())
		fmt.Fprintf(w, "captured: %v\n", t.Captured())
		fmt.Fprintf(w, "edges: %s\n", humanize.Comma(int64(t.Decoder.Edges())))
		fmt.Fprintf(w, "suspect: %s\n", humanize.Comma(int64(t.Suspect())))
	}
}

func rearmHandler(t *Tracker) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		if err := t.RearmReference(); err != nil {
			log.Printf("%s: rearm: %v", t.Name, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		log.Printf("%s: reference rearmed", t.Name)
		fmt.Fprintf(w, "armed\n")
	}
}

func dialHandler(t *Tracker) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		c := gg.NewContext(dialSize, dialSize)
		c.SetRGB(1, 1, 1)
		c.Clear()
		c.SetRGB(0, 0, 0)
		c.SetLineWidth(4)
		c.DrawCircle(dialMid, dialMid, dialMid-10)
		c.Stroke()
		if t.Captured() {
			c.SetRGB(1, 0, 0)
			drawMark(c, t.ReferenceDegrees(), dialMid-40, dialMid-10, 6)
		}
		c.SetRGB(0, 0, 1)
		drawMark(c, t.YawDegrees(), 0, dialMid-30, 8)
		w.Header().Set("Content-Type", "image/png")
		err := png.Encode(w, c.Image())
		if err != nil {
			log.Printf("%s: Error writing image: %v\n", t.Name, err)
		}
	}
}

// drawMark draws a radial line at deg degrees clockwise from the top,
// between the inner and outer radius.
func drawMark(c *gg.Context, deg, inner, outer, width int) {
	radians := gg.Radians(float64(deg))
	sin, cos := math.Sin(radians), math.Cos(radians)
	x1 := float64(inner)*sin + dialMid
	y1 := dialMid - float64(inner)*cos
	x2 := float64(outer)*sin + dialMid
	y2 := dialMid - float64(outer)*cos
	c.SetLineWidth(float64(width))
	c.DrawLine(x1, y1, x2, y2)
	c.Stroke()
}
