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
	"fmt"
	"strconv"

	"github.com/aamcrae/config"
)

// Configuration for a yaw tracker, read from a configuration file.
type TrackerConfig struct {
	Name      string
	Chip      string // GPIO character device, or empty for sysfs
	ChannelA  int
	ChannelB  int
	Slots     int
	Reference int // Reference sensor GPIO, or -1 if none
	Armed     bool
}

// Config reads and validates a TrackerConfig from a config file section.
// Sample config:
//
//	[yaw]                    # name of tracker
//	chip=gpiochip0           # optional, GPIO character device to use instead of sysfs
//	channels=17,27           # GPIOs for channel A and channel B
//	slots=112                # Number of slots on the disc
//	reference=4              # optional, GPIO for the reference sensor
//	armed=true               # optional, reference latch armed at startup
func Config(conf *config.Config, name string) (*TrackerConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	tc := &TrackerConfig{Name: name, Reference: -1, Armed: true}
	n, err := s.Parse("channels", "%d,%d", &tc.ChannelA, &tc.ChannelB)
	if err != nil {
		return nil, fmt.Errorf("channels: %v", err)
	}
	if n != 2 {
		return nil, fmt.Errorf("channels: argument count")
	}
	if tc.ChannelA == tc.ChannelB {
		return nil, fmt.Errorf("channels: A and B must be different")
	}
	n, err = s.Parse("slots", "%d", &tc.Slots)
	if err != nil {
		return nil, fmt.Errorf("slots: %v", err)
	}
	if n != 1 {
		return nil, fmt.Errorf("slots: argument count")
	}
	if tc.Slots <= 0 || tc.Slots > MaxSlots {
		return nil, fmt.Errorf("slots: %d out of range", tc.Slots)
	}
	// Optional values.
	if c, err := s.GetArg("chip"); err == nil {
		tc.Chip = c
	}
	if r, err := s.GetArg("reference"); err == nil {
		tc.Reference, err = strconv.Atoi(r)
		if err != nil {
			return nil, fmt.Errorf("reference: %v", err)
		}
	}
	if a, err := s.GetArg("armed"); err == nil {
		tc.Armed, err = strconv.ParseBool(a)
		if err != nil {
			return nil, fmt.Errorf("armed: %v", err)
		}
	}
	return tc, nil
}
