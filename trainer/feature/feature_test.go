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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nocsentry/nocsentry/pkg/mesh"
)

func constantStream(n int, v float64) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{Cycle: int64(i), BufferStatus: v, CyclesSinceLastFlit: v, StalledFlits: v, TransmittedFlits: v, BufferWaitingTime: v}
	}

	return records
}

func TestSmooth(t *testing.T) {
	tests := []struct {
		name    string
		streams map[mesh.RouterPort][]Record
		window  int
		expect  func(t *testing.T, streams map[mesh.RouterPort][]Record, err error)
	}{
		{
			name:    "constant stream is unchanged",
			streams: map[mesh.RouterPort][]Record{mockEast: constantStream(12, 3.5)},
			window:  5,
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(constantStream(12, 3.5), streams[mockEast])
			},
		},
		{
			name: "trailing window without look ahead",
			streams: map[mesh.RouterPort][]Record{
				mockEast: {
					{Cycle: 1, BufferStatus: 1},
					{Cycle: 2, BufferStatus: 2},
					{Cycle: 3, BufferStatus: 3},
					{Cycle: 4, BufferStatus: 4},
				},
				mockWest: {
					{Cycle: 1, StalledFlits: 10},
				},
			},
			window: 2,
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal([]Record{
					{Cycle: 1, BufferStatus: 1},
					{Cycle: 2, BufferStatus: 1.5},
					{Cycle: 3, BufferStatus: 2.5},
					{Cycle: 4, BufferStatus: 3.5},
				}, streams[mockEast])
				assert.Equal([]Record{{Cycle: 1, StalledFlits: 10}}, streams[mockWest])
			},
		},
		{
			name:    "invalid window",
			streams: map[mesh.RouterPort][]Record{mockEast: constantStream(1, 1)},
			window:  0,
			expect: func(t *testing.T, streams map[mesh.RouterPort][]Record, err error) {
				assert := assert.New(t)
				assert.Error(err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Smooth(tc.streams, tc.window)
			tc.expect(t, tc.streams, err)
		})
	}
}

func TestAnnotate(t *testing.T) {
	streams := map[mesh.RouterPort][]Record{
		mockEast: {{Cycle: 1}, {Cycle: 5}, {Cycle: 9}},
	}

	labels := func(records []AnnotatedRecord) []Label {
		var l []Label
		for _, r := range records {
			l = append(l, r.Label())
		}
		return l
	}

	tests := []struct {
		name       string
		startCycle int64
		expect     []Label
	}{
		{
			name:       "threshold inside the stream",
			startCycle: 5,
			expect:     []Label{Unsaturated, Saturated, Saturated},
		},
		{
			name:       "always unsaturated",
			startCycle: math.MaxInt64,
			expect:     []Label{Unsaturated, Unsaturated, Unsaturated},
		},
		{
			name:       "always saturated",
			startCycle: math.MinInt64,
			expect:     []Label{Saturated, Saturated, Saturated},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			annotated := Annotate(streams, tc.startCycle)
			assert.Equal(tc.expect, labels(annotated[mockEast]))
			assert.Equal(int64(9), annotated[mockEast][2].Cycle)
		})
	}
}

func TestMerge(t *testing.T) {
	assert := assert.New(t)

	baseline := map[mesh.RouterPort][]AnnotatedRecord{
		mockEast: {{Record: Record{Cycle: 2}}, {Record: Record{Cycle: 1}}},
		mockWest: {{Record: Record{Cycle: 7}}},
	}
	attack := map[mesh.RouterPort][]AnnotatedRecord{
		mockEast:  {{Record: Record{Cycle: 1}, Annotation: 1}},
		mockLocal: {{Record: Record{Cycle: 3}, Annotation: 1}},
	}

	merged := Merge(baseline, attack)
	assert.Len(merged, 3)
	assert.Equal([]AnnotatedRecord{
		{Record: Record{Cycle: 2}},
		{Record: Record{Cycle: 1}},
		{Record: Record{Cycle: 1}, Annotation: 1},
	}, merged[mockEast])
	assert.Len(merged[mockWest], 1)
	assert.Len(merged[mockLocal], 1)
	assert.Len(baseline[mockEast], 2)
}

func TestAnnotatedRecord_String(t *testing.T) {
	assert := assert.New(t)

	r := AnnotatedRecord{
		Record: Record{
			Cycle:               1200,
			BufferStatus:        2,
			CyclesSinceLastFlit: 0.4,
			StalledFlits:        0,
			TransmittedFlits:    13,
			BufferWaitingTime:   2.25,
		},
		Annotation: float64(Saturated),
	}
	assert.Equal("1200, 2.0, 0.4, 0.0, 13.0, 2.25, 1.0", r.String())
	assert.Equal([]float64{2, 0.4, 0, 13, 2.25}, r.Features())
}
