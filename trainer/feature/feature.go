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
	"strconv"

	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/slidingwindow"
	pkgstrings "github.com/nocsentry/nocsentry/pkg/strings"
)

var (
	// ErrMisaligned represents router port streams whose records do not
	// line up with the streams of their neighbors.
	ErrMisaligned = errors.New("misaligned feature streams")

	// ErrMalformedLine represents a line of a raw feature file that can not be parsed.
	ErrMalformedLine = errors.New("malformed feature line")
)

// Label is the annotation of a record.
type Label float64

const (
	// Unsaturated labels a record of a router port under normal load.
	Unsaturated Label = 0.0

	// Saturated labels a record of a router port under attack.
	Saturated Label = 1.0
)

// Size is the number of features a record carries.
const Size = 5

// Record is the feature vector of one router port at one cycle.
type Record struct {
	// Cycle is the simulation cycle of the sample.
	Cycle int64 `csv:"cycle"`

	// BufferStatus is the fill of the receive buffer.
	BufferStatus float64 `csv:"buffer_status"`

	// CyclesSinceLastFlit is the number of cycles since the receive buffer got a flit.
	CyclesSinceLastFlit float64 `csv:"cycles_since_last_flit"`

	// StalledFlits is the number of flits the transmitter could not insert.
	StalledFlits float64 `csv:"stalled_flits"`

	// TransmittedFlits is the number of flits the transmitter inserted.
	TransmittedFlits float64 `csv:"transmitted_flits"`

	// BufferWaitingTime is the mean waiting time of transmitted flits.
	BufferWaitingTime float64 `csv:"buffer_waiting_time"`
}

// Features returns the numeric features of the record.
func (r Record) Features() []float64 {
	return []float64{r.BufferStatus, r.CyclesSinceLastFlit, r.StalledFlits, r.TransmittedFlits, r.BufferWaitingTime}
}

func (r *Record) setFeatures(v []float64) {
	r.BufferStatus = v[0]
	r.CyclesSinceLastFlit = v[1]
	r.StalledFlits = v[2]
	r.TransmittedFlits = v[3]
	r.BufferWaitingTime = v[4]
}

// AnnotatedRecord is a record with its label.
type AnnotatedRecord struct {
	Record

	// Annotation is the label of the record.
	Annotation float64 `csv:"annotation"`
}

// Label returns the label of the record.
func (r AnnotatedRecord) Label() Label {
	return Label(r.Annotation)
}

// String formats the record as a line of a feature file, without newline.
func (r AnnotatedRecord) String() string {
	return strconv.FormatInt(r.Cycle, 10) + ", " + pkgstrings.JoinFloats(append(r.Features(), r.Annotation), ", ")
}

// Smooth replaces every feature of every stream by its trailing moving
// average over window records. Streams are smoothed independently.
func Smooth(streams map[mesh.RouterPort][]Record, window int) error {
	for _, records := range streams {
		if err := smoothStream(records, window); err != nil {
			return err
		}
	}

	return nil
}

func smoothStream(records []Record, window int) error {
	averages := make([]*slidingwindow.MovingAverage, Size)
	for i := range averages {
		ma, err := slidingwindow.NewMovingAverage(window)
		if err != nil {
			return err
		}
		averages[i] = ma
	}

	for i := range records {
		v := records[i].Features()
		for j := range v {
			v[j] = averages[j].Add(v[j])
		}
		records[i].setFeatures(v)
	}

	return nil
}

// Annotate labels every record of cycle at least startCycle saturated and
// the others unsaturated. math.MaxInt64 labels a whole stream unsaturated
// and math.MinInt64 labels it saturated.
func Annotate(streams map[mesh.RouterPort][]Record, startCycle int64) map[mesh.RouterPort][]AnnotatedRecord {
	annotated := make(map[mesh.RouterPort][]AnnotatedRecord, len(streams))
	for rp, records := range streams {
		out := make([]AnnotatedRecord, len(records))
		for i, r := range records {
			label := Unsaturated
			if r.Cycle >= startCycle {
				label = Saturated
			}

			out[i] = AnnotatedRecord{Record: r, Annotation: float64(label)}
		}
		annotated[rp] = out
	}

	return annotated
}

// Merge concatenates the streams of every router port, first then second.
// Router ports present in one set only keep their stream.
func Merge(first, second map[mesh.RouterPort][]AnnotatedRecord) map[mesh.RouterPort][]AnnotatedRecord {
	merged := make(map[mesh.RouterPort][]AnnotatedRecord, len(first))
	for rp, records := range first {
		merged[rp] = append(merged[rp], records...)
	}

	for rp, records := range second {
		merged[rp] = append(merged[rp], records...)
	}

	return merged
}
