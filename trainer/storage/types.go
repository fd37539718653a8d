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

package storage

import (
	"fmt"

	pkgstrings "github.com/nocsentry/nocsentry/pkg/strings"
)

const (
	// TargetOut is the weights target of an output port group.
	TargetOut = 0

	// TargetIn is the weights target of an input port group.
	TargetIn = 1
)

// Weight is a trained model of a router direction or router port.
type Weight struct {
	// RouterID is the global id of the router.
	RouterID int

	// Target is TargetIn or TargetOut for router models and the port
	// number for port models.
	Target int

	// Bias of the model.
	Bias float64

	// Weights of the features.
	Weights []float64
}

// String formats the weight as a line of the weights file, without newline.
func (w Weight) String() string {
	return fmt.Sprintf("%d, %d, %s", w.RouterID, w.Target, pkgstrings.JoinFloats(append([]float64{w.Bias}, w.Weights...), ", "))
}

// weightRow is a line of the weights file.
type weightRow struct {
	RouterID int     `csv:"router_id"`
	Target   int     `csv:"target"`
	Bias     float64 `csv:"bias"`
	W1       float64 `csv:"w1"`
	W2       float64 `csv:"w2"`
	W3       float64 `csv:"w3"`
	W4       float64 `csv:"w4"`
	W5       float64 `csv:"w5"`
}

func (r weightRow) weight() Weight {
	return Weight{
		RouterID: r.RouterID,
		Target:   r.Target,
		Bias:     r.Bias,
		Weights:  []float64{r.W1, r.W2, r.W3, r.W4, r.W5},
	}
}

// Accuracy is the evaluation of a model on a test set, in percent.
type Accuracy struct {
	// Job is the name of the evaluated feature file.
	Job string

	// Accuracy is the share of correct predictions.
	Accuracy float64

	// FalsePositives is the share of unsaturated records predicted saturated.
	FalsePositives float64

	// FalseNegatives is the share of saturated records predicted unsaturated.
	FalseNegatives float64
}

// Values returns the rates as written in reports, "accuracy, fp, fn".
func (a Accuracy) Values() string {
	return pkgstrings.JoinFloats([]float64{a.Accuracy, a.FalsePositives, a.FalseNegatives}, ", ")
}
