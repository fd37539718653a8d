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

package training

import (
	"math"

	pkgmath "github.com/nocsentry/nocsentry/pkg/math"
	"github.com/nocsentry/nocsentry/trainer/feature"
)

// epsilon is the tolerance of comparing a prediction with its label.
const epsilon = 1e-4

// Evaluation is the result of a model on a test set, rates in percent.
type Evaluation struct {
	// Total is the number of test records.
	Total int

	// Accuracy is the share of correct predictions.
	Accuracy float64

	// FalsePositives is the share of predictions above their label.
	FalsePositives float64

	// FalseNegatives is the share of predictions below their label.
	FalseNegatives float64
}

// Evaluate predicts every record with model. An empty test set evaluates
// to all zero rates.
func Evaluate(model *Model, records []feature.AnnotatedRecord) Evaluation {
	var correct, falsePositives, falseNegatives int
	for _, r := range records {
		prediction := model.Predict(r.Features())
		switch {
		case math.Abs(prediction-r.Annotation) < epsilon:
			correct++
		case prediction > r.Annotation:
			falsePositives++
		default:
			falseNegatives++
		}
	}

	total := len(records)
	return Evaluation{
		Total:          total,
		Accuracy:       pkgmath.Percent(correct, total),
		FalsePositives: pkgmath.Percent(falsePositives, total),
		FalseNegatives: pkgmath.Percent(falseNegatives, total),
	}
}
