/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package feature

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nocsentry/nocsentry/pkg/mesh"
)

const (
	// rawPortFields is the number of fields per port of a raw line:
	// buffer capacity, buffer status, cycles since last flit,
	// stalled flits, transmitted flits and cumulative latency.
	rawPortFields = 6

	// rawPortFieldsWithCycle is rawPortFields prefixed by the current cycle.
	rawPortFieldsWithCycle = rawPortFields + 1

	// rawHeaderFields are the router id and the cycle.
	rawHeaderFields = 2
)

const (
	rawBufferStatus = iota + 1
	rawCyclesSinceLastFlit
	rawStalledFlits
	rawTransmittedFlits
	rawCumulativeLatency
)

// rawSample is one raw line of a router.
type rawSample struct {
	cycle int64
	ports [][rawPortFields]int64
}

// ParseFile parses the raw feature file at path, see Parse.
func ParseFile(path string, m *mesh.Mesh, ports []mesh.RouterPort) (map[mesh.RouterPort][]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f, m, ports)
}

// Parse reads raw simulator lines and returns the cycle ordered records of
// the given router ports. Receive side features come from the router port
// itself and transmit side features from its neighbor on the same line
// index. Streams of a router port and its neighbor that differ in length or
// cycles fail with ErrMisaligned.
func Parse(r io.Reader, m *mesh.Mesh, ports []mesh.RouterPort) (map[mesh.RouterPort][]Record, error) {
	samples, err := readRaw(r, m)
	if err != nil {
		return nil, err
	}

	streams := make(map[mesh.RouterPort][]Record, len(ports))
	for _, rp := range ports {
		neighbor, err := m.Neighbor(rp)
		if err != nil {
			return nil, err
		}

		rx := samples[rp.Router]
		tx := samples[neighbor.Router]
		if len(rx) != len(tx) {
			return nil, fmt.Errorf("%w: %s has %d records, %s has %d", ErrMisaligned, rp, len(rx), neighbor, len(tx))
		}

		records := make([]Record, len(rx))
		for i := range rx {
			if rx[i].cycle != tx[i].cycle {
				return nil, fmt.Errorf("%w: record %d of %s is cycle %d, of %s is cycle %d", ErrMisaligned, i, rp, rx[i].cycle, neighbor, tx[i].cycle)
			}

			in := rx[i].ports[rp.Port]
			out := tx[i].ports[neighbor.Port]

			var waiting float64
			if out[rawTransmittedFlits] != 0 {
				waiting = float64(out[rawCumulativeLatency]) / float64(out[rawTransmittedFlits])
			}

			records[i] = Record{
				Cycle:               rx[i].cycle,
				BufferStatus:        float64(in[rawBufferStatus]),
				CyclesSinceLastFlit: float64(in[rawCyclesSinceLastFlit]),
				StalledFlits:        float64(out[rawStalledFlits]),
				TransmittedFlits:    float64(out[rawTransmittedFlits]),
				BufferWaitingTime:   waiting,
			}
		}
		streams[rp] = records
	}

	return streams, nil
}

// readRaw groups the lines of a raw feature file by router.
func readRaw(r io.Reader, m *mesh.Mesh) (map[mesh.Coordinate][]rawSample, error) {
	samples := make(map[mesh.Coordinate][]rawSample)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Split(text, ",")
		width, ok := portWidth(len(fields))
		if !ok {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedLine, line, len(fields))
		}

		values := make([]int64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, line, err)
			}
			values[i] = v
		}

		router, err := m.Coordinate(int(values[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedLine, line, err)
		}

		sample := rawSample{
			cycle: values[1],
			ports: make([][rawPortFields]int64, len(mesh.Ports)),
		}
		for p := range mesh.Ports {
			offset := rawHeaderFields + p*width + (width - rawPortFields)
			copy(sample.ports[p][:], values[offset:offset+rawPortFields])
		}
		samples[router] = append(samples[router], sample)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// portWidth returns the fields per port of a line with n fields. Lines
// carry either six fields per port or seven with a leading current cycle.
func portWidth(n int) (int, bool) {
	switch n {
	case rawHeaderFields + len(mesh.Ports)*rawPortFields:
		return rawPortFields, true
	case rawHeaderFields + len(mesh.Ports)*rawPortFieldsWithCycle:
		return rawPortFieldsWithCycle, true
	}

	return 0, false
}
