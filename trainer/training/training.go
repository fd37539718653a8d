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
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/nocsentry/nocsentry/trainer/config"
	"github.com/nocsentry/nocsentry/trainer/feature"
)

// Training defines the interface to train a classifier per feature file.
type Training interface {
	// Train splits the records of a job, fits a model on the training set
	// and evaluates it on the test set.
	Train(context.Context, string, []feature.AnnotatedRecord) (*Model, Evaluation, error)
}

// training implements Training interface.
type training struct {
	// Training config.
	config *config.TrainingConfig
}

// New returns a new Training.
func New(cfg *config.TrainingConfig) Training {
	return &training{config: cfg}
}

// Train splits the records of a job, fits a model on the training set and
// evaluates it on the test set.
func (t *training) Train(ctx context.Context, job string, records []feature.AnnotatedRecord) (*Model, Evaluation, error) {
	rng := rand.New(rand.NewSource(t.seed(job)))

	train, test := Split(records, t.config.TrainRatio, rng)
	model := NewModel(feature.Size)
	if err := model.Fit(ctx, train, t.config.Epochs, t.config.LearningRate, rng); err != nil {
		return nil, Evaluation{}, err
	}

	return model, Evaluate(model, test), nil
}

// seed returns the random seed of a job. A configured seed makes every job
// reproducible whatever worker runs it, zero seeds from the clock.
func (t *training) seed(job string) int64 {
	if t.config.Seed == 0 {
		return time.Now().UnixNano()
	}

	h := fnv.New64a()
	h.Write([]byte(job))
	return t.config.Seed ^ int64(h.Sum64())
}
