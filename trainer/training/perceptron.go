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
	"context"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/nocsentry/nocsentry/trainer/feature"
)

// Model is a linear threshold unit.
type Model struct {
	// Bias of the unit.
	Bias float64

	// Weights of the features.
	Weights []float64
}

// NewModel returns a model of size zero weights.
func NewModel(size int) *Model {
	return &Model{Weights: make([]float64, size)}
}

// Activation returns bias plus the dot product of weights and features.
func (m *Model) Activation(features []float64) float64 {
	return m.Bias + floats.Dot(m.Weights, features)
}

// Predict returns 1 when the activation is not negative, else 0.
func (m *Model) Predict(features []float64) float64 {
	if m.Activation(features) >= 0 {
		return 1
	}

	return 0
}

// Fit runs epochs of online perceptron updates over samples, shuffled at
// every epoch. Every sample updates the model before the next one is
// predicted.
func (m *Model) Fit(ctx context.Context, samples []feature.AnnotatedRecord, epochs int, learningRate float64, rng *rand.Rand) error {
	order := make([]feature.AnnotatedRecord, len(samples))
	copy(order, samples)

	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, sample := range order {
			x := sample.Features()
			e := sample.Annotation - m.Predict(x)
			if e == 0 {
				continue
			}

			m.Bias += learningRate * e
			floats.AddScaled(m.Weights, learningRate*e, x)
		}
	}

	return nil
}
