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

// Program to demonstrate how to watch quadrature encoder edges

package main

import (
	"flag"
	"log"

	"github.com/aamcrae/yaw/io"
)

var gpioA = flag.Int("a", 17, "GPIO input for channel A")
var gpioB = flag.Int("b", 27, "GPIO input for channel B")

func main() {
	flag.Parse()
	q, err := io.NewPinQuadrature(*gpioA, *gpioB)
	if err != nil {
		log.Fatalf("Pins %d,%d: %v", *gpioA, *gpioB, err)
	}
	defer q.Close()
	a, b, err := q.Levels()
	if err != nil {
		log.Fatalf("Levels: %v", err)
	}
	log.Printf("initial A = %v, B = %v\n", a, b)
	err = q.Watch(func(v bool) {
		log.Printf("A = %v\n", v)
	}, func(v bool) {
		log.Printf("B = %v\n", v)
	})
	if err != nil {
		log.Fatalf("Watch: %v", err)
	}
	select {}
}
