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

// Yaw monitor program

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aamcrae/config"
	"github.com/aamcrae/yaw/io"
	"github.com/aamcrae/yaw/yaw"
	"github.com/dustin/go-humanize"
)

var configFile = flag.String("config", "yaw.conf", "Configuration file")
var section = flag.String("section", "yaw", "Configuration section of the tracker")
var port = flag.Int("port", 8080, "Web server port number, 0 to disable")
var interval = flag.Duration("status", 10*time.Second, "Status log interval")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	tc, err := yaw.Config(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	t, err := yaw.NewTracker(tc.Name, tc.Slots, tc.Armed)
	if err != nil {
		log.Fatalf("%v", err)
	}
	q, r, closer, err := sources(tc)
	if err != nil {
		log.Fatalf("%s: %v", tc.Name, err)
	}
	defer closer()
	if err := t.Attach(q, r); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%s: tracking %d slots, reference armed %v", tc.Name, tc.Slots, tc.Armed)
	if *port != 0 {
		go func() {
			log.Fatal(yaw.Server(*port, t))
		}()
	}
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case s := <-sig:
			log.Printf("%s: %v, exiting", tc.Name, s)
			return
		case <-ticker.C:
			if t.Reference.TakeCaptured() {
				log.Printf("%s: reference captured at %d degrees", tc.Name, t.ReferenceDegrees())
			}
			log.Printf("%s: yaw %d, reference %d, edges %s, suspect %s", tc.Name, t.YawDegrees(),
				t.ReferenceDegrees(), humanize.Comma(int64(t.Decoder.Edges())), humanize.Comma(int64(t.Suspect())))
		}
	}
}

// sources opens the encoder and reference inputs, either through the
// GPIO character device or sysfs.
func sources(tc *yaw.TrackerConfig) (yaw.QuadratureSource, yaw.ReferenceSource, func(), error) {
	if tc.Chip != "" {
		q, err := io.NewChipQuadrature(tc.Chip, tc.ChannelA, tc.ChannelB)
		if err != nil {
			return nil, nil, nil, err
		}
		if tc.Reference < 0 {
			return q, nil, func() { q.Close() }, nil
		}
		r, err := io.NewChipReference(tc.Chip, tc.Reference)
		if err != nil {
			q.Close()
			return nil, nil, nil, err
		}
		return q, r, func() { r.Close(); q.Close() }, nil
	}
	q, err := io.NewPinQuadrature(tc.ChannelA, tc.ChannelB)
	if err != nil {
		return nil, nil, nil, err
	}
	if tc.Reference < 0 {
		return q, nil, q.Close, nil
	}
	r, err := io.NewPinReference(tc.Reference)
	if err != nil {
		q.Close()
		return nil, nil, nil, err
	}
	return q, r, func() { r.Close(); q.Close() }, nil
}
