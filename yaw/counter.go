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

// DegreesPerRev is the number of degrees in one revolution of the disc.
const DegreesPerRev = 360

// Each physical slot produces 4 quadrature edges.
const edgesPerSlot = 4

// MaxSlots is the largest disc supported, so that a full revolution
// of edges fits comfortably in the 32 bit count.
const MaxSlots = 1 << 28

// Constrain wraps a count that has just moved by a single step back
// into the window (-2*slots, 2*slots]. At most one adjustment is made,
// since a single step can only just cross one boundary.
func Constrain(count, slots int32) int32 {
	if count > 2*slots {
		count -= edgesPerSlot * slots
	} else if count <= -2*slots {
		count += edgesPerSlot * slots
	}
	return count
}

// ToDegrees converts a count in quarter slots to degrees.
// The multiply is done first in 64 bits and the division truncates
// toward zero.
func ToDegrees(count, slots int32) int {
	return int(int64(count) * DegreesPerRev / (edgesPerSlot * int64(slots)))
}
