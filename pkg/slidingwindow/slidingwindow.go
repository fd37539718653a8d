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

package slidingwindow

import (
	"errors"
	"math"
)

// ErrInvalidSize is returned for a window that holds no sample.
var ErrInvalidSize = errors.New("window size must be positive")

// MovingAverage is a trailing boxcar average over the last size samples.
// The window fills in from empty, so the first samples are averaged over
// the samples seen so far.
//
// The running sum is compensated and rebuilt from the window every size
// samples, so evicting a large sample does not leave its rounding error
// behind.
type MovingAverage struct {
	values       []float64
	next         int
	count        int
	sum          float64
	compensation float64
}

// NewMovingAverage returns a moving average of the given window size.
func NewMovingAverage(size int) (*MovingAverage, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	return &MovingAverage{values: make([]float64, size)}, nil
}

// Add pushes v into the window and returns the current average.
func (m *MovingAverage) Add(v float64) float64 {
	if m.count == len(m.values) {
		m.accumulate(-m.values[m.next])
	} else {
		m.count++
	}

	m.values[m.next] = v
	m.accumulate(v)
	m.next = (m.next + 1) % len(m.values)

	if m.next == 0 {
		m.rebuild()
	}

	return (m.sum + m.compensation) / float64(m.count)
}

// accumulate adds v to the running sum with Neumaier compensation.
func (m *MovingAverage) accumulate(v float64) {
	t := m.sum + v
	if math.Abs(m.sum) >= math.Abs(v) {
		m.compensation += (m.sum - t) + v
	} else {
		m.compensation += (v - t) + m.sum
	}
	m.sum = t
}

// rebuild recomputes the running sum from the samples in the window, oldest
// first. It runs once per size samples.
func (m *MovingAverage) rebuild() {
	m.sum, m.compensation = 0, 0
	for i := 0; i < m.count; i++ {
		m.accumulate(m.values[(m.next+len(m.values)-m.count+i)%len(m.values)])
	}
}

// Size returns the window size.
func (m *MovingAverage) Size() int {
	return len(m.values)
}

// Count returns the number of samples in the window.
func (m *MovingAverage) Count() int {
	return m.count
}
