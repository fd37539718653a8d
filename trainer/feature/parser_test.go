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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocsentry/nocsentry/pkg/mesh"
)

// rawPort is buffer capacity, buffer status, cycles since last flit,
// stalled flits, transmitted flits and cumulative latency.
type rawPort [6]int64

func rawLine(id int, cycle int64, withCycle bool, ports map[mesh.Port]rawPort) string {
	values := []string{fmt.Sprint(id), fmt.Sprint(cycle)}
	for _, p := range mesh.Ports {
		if withCycle {
			values = append(values, fmt.Sprint(cycle))
		}

		for _, v := range ports[p] {
			values = append(values, fmt.Sprint(v))
		}
	}

	return strings.Join(values, ", ")
}

var (
	mockEast  = mesh.RouterPort{Router: mesh.Coordinate{X: 0, Y: 0}, Port: mesh.East}
	mockWest  = mesh.RouterPort{Router: mesh.Coordinate{X: 1, Y: 0}, Port: mesh.West}
	mockLocal = mesh.RouterPort{Router: mesh.Coordinate{X: 1, Y: 0}, Port: mesh.Local}
)

func TestParse(t *testing.T) {
	m, err := mesh.New(2, 1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		lines  []string
		ports  []mesh.RouterPort
		expect func(t *testing.T, streams map[mesh.RouterPort][]Record, err error)
	}{
		{
			name: "rx from port and tx from neighbor",
			lines: []string{
				rawLine(0, 10, false, map[mesh.Port]rawPort{mesh.East: {4, 3, 7, 90, 90, 90}}),
				rawLine(1, 10, false, map[mesh.Port]rawPort{mesh.West: {4, 1, 1, 2, 8, 20}}),
				rawLine(0, 11, false, map[mesh.Port]rawPort{mesh.East: {4, 2, 0, 90, 90, 90}}),
				rawLine(1, 11, false, map[mesh.Port]rawPort{mesh.West: {4, 1, 1, 5, 0, 20}}),
			},
			ports: []mesh.RouterPort{mockEast},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]Record{
					{Cycle: 10, BufferStatus: 3, CyclesSinceLastFlit: 7, StalledFlits: 2, TransmittedFlits: 8, BufferWaitingTime: 2.5},
					{Cycle: 11, BufferStatus: 2, CyclesSinceLastFlit: 0, StalledFlits: 5, TransmittedFlits: 0, BufferWaitingTime: 0},
				}, streams[mockEast])
			},
		},
		{
			name: "local port is its own neighbor",
			lines: []string{
				rawLine(1, 3, false, map[mesh.Port]rawPort{mesh.Local: {4, 1, 2, 3, 4, 8}}),
				rawLine(0, 3, false, nil),
			},
			ports: []mesh.RouterPort{mockLocal},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]Record{
					{Cycle: 3, BufferStatus: 1, CyclesSinceLastFlit: 2, StalledFlits: 3, TransmittedFlits: 4, BufferWaitingTime: 2},
				}, streams[mockLocal])
			},
		},
		{
			name: "lines with current cycle per port",
			lines: []string{
				rawLine(0, 10, true, map[mesh.Port]rawPort{mesh.East: {4, 3, 7, 0, 0, 0}}),
				rawLine(1, 10, true, map[mesh.Port]rawPort{mesh.West: {4, 1, 1, 2, 8, 20}}),
			},
			ports: []mesh.RouterPort{mockEast, mockWest},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(Record{Cycle: 10, BufferStatus: 3, CyclesSinceLastFlit: 7, StalledFlits: 2, TransmittedFlits: 8, BufferWaitingTime: 2.5}, streams[mockEast][0])
				assert.Equal(Record{Cycle: 10, BufferStatus: 1, CyclesSinceLastFlit: 1}, streams[mockWest][0])
			},
		},
		{
			name: "record counts differ",
			lines: []string{
				rawLine(0, 10, false, nil),
				rawLine(1, 10, false, nil),
				rawLine(0, 11, false, nil),
			},
			ports: []mesh.RouterPort{mockEast},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, ErrMisaligned))
				assert.Nil(streams)
			},
		},
		{
			name: "cycles differ",
			lines: []string{
				rawLine(0, 10, false, nil),
				rawLine(1, 12, false, nil),
			},
			ports: []mesh.RouterPort{mockWest},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, ErrMisaligned))
			},
		},
		{
			name:  "wrong number of fields",
			lines: []string{"0, 10, 4, 3"},
			ports: []mesh.RouterPort{mockEast},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, ErrMalformedLine))
			},
		},
		{
			name:  "router outside of the mesh",
			lines: []string{rawLine(7, 10, false, nil)},
			ports: []mesh.RouterPort{mockEast},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, ErrMalformedLine))
			},
		},
		{
			name:  "port facing outside of the mesh",
			lines: []string{rawLine(0, 10, false, nil)},
			ports: []mesh.RouterPort{{Router: mesh.Coordinate{X: 0, Y: 0}, Port: mesh.North}},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, mesh.ErrOutOfBounds))
			},
		},
		{
			name:  "empty file",
			lines: nil,
			ports: []mesh.RouterPort{mockEast},
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Empty(streams[mockEast])
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			streams, err := Parse(strings.NewReader(strings.Join(tc.lines, "\n")), m, tc.ports)
			tc.expect(t, streams, err)
		})
	}
}

func TestParseFile(t *testing.T) {
	assert := assert.New(t)
	m, err := mesh.New(2, 1)
	assert.NoError(err)

	path := filepath.Join(t.TempDir(), "0_0_to_1_0_baseline")
	content := rawLine(0, 1, false, nil) + "\n" + rawLine(1, 1, false, nil) + "\n"
	assert.NoError(os.WriteFile(path, []byte(content), 0600))

	streams, err := ParseFile(path, m, []mesh.RouterPort{mockEast, mockWest})
	assert.NoError(err)
	assert.Len(streams, 2)
	assert.Len(streams[mockWest], 1)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing"), m, nil)
	assert.True(os.IsNotExist(err))
}
