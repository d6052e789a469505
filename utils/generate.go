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

// Bench encoder signal generator.
// Drives two GPIO outputs with a quadrature signal so that a yaw
// monitor can be tested by wiring the outputs to its inputs.

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	gpio "github.com/aamcrae/gpio"

	"github.com/aamcrae/yaw/io"
)

var gpioA = flag.Int("a", 20, "GPIO output for channel A")
var gpioB = flag.Int("b", 21, "GPIO output for channel B")
var slots = flag.Int("slots", 112, "Number of slots on the emulated disc")
var rate = flag.Float64("rate", 500, "Edges per second")

func main() {
	flag.Parse()
	a, err := gpio.OutputPin(*gpioA)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpioA, err)
	}
	defer a.Close()
	b, err := gpio.OutputPin(*gpioB)
	if err != nil {
		log.Fatalf("Pin %d: %v", *gpioB, err)
	}
	defer b.Close()
	gen := io.NewGenerator(a, b)
	defer gen.Close()
	rev := 4 * *slots
	reader := bufio.NewReader(os.Stdin)
	for {
		pos := gen.Position()
		fmt.Printf("Position %d edges (%d degrees)\n", pos, degrees(pos, rev))
		fmt.Print("Enter edges or command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimSpace(text)
		switch text {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  [-]NNN generate edges, positive for channel B leading")
			fmt.Println("  r - one revolution clockwise")
			fmt.Println("  z - return to position 0")
			fmt.Println("  q - quit")
		case "q":
			return
		case "r":
			gen.Step(*rate, rev)
			gen.Wait()
		case "z":
			gen.Step(*rate, int(-pos))
			gen.Wait()
		default:
			var edges int
			n, err := fmt.Sscanf(text, "%d", &edges)
			if err != nil || n != 1 {
				fmt.Printf("Unrecognised input\n")
			} else {
				fmt.Printf("Generating %d edges\n", edges)
				gen.Step(*rate, edges)
				gen.Wait()
			}
		}
	}
}

// degrees returns the angle of the position within one revolution,
// in the range [0, 360).
func degrees(pos int64, rev int) int {
	r := pos % int64(rev)
	if r < 0 {
		r += int64(rev)
	}
	return int(r) * 360 / rev
}
