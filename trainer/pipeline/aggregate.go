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

package pipeline

import (
	"errors"

	"github.com/montanaflynn/stats"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/trainer/storage"
)

// ErrNoAccuracy represents a rollup of no accuracy at all.
var ErrNoAccuracy = errors.New("no accuracy to roll up")

// collect consumes results until the channel is closed, writing every
// result as it arrives. The returned channel yields all of them in arrival
// order once results is closed.
func collect(log *logger.SugaredLoggerOnWith, results <-chan storage.Accuracy, write func(storage.Accuracy) error) <-chan []storage.Accuracy {
	done := make(chan []storage.Accuracy, 1)
	go func() {
		var accuracies []storage.Accuracy
		for a := range results {
			if err := write(a); err != nil {
				log.Errorf("write accuracy of %s failed: %s", a.Job, err.Error())
			}

			accuracies = append(accuracies, a)
		}

		done <- accuracies
	}()

	return done
}

// Rollup returns the mean accuracy, false positives and false negatives
// of accuracies under the name job.
func Rollup(job string, accuracies []storage.Accuracy) (storage.Accuracy, error) {
	if len(accuracies) == 0 {
		return storage.Accuracy{}, ErrNoAccuracy
	}

	acc := make([]float64, 0, len(accuracies))
	fp := make([]float64, 0, len(accuracies))
	fn := make([]float64, 0, len(accuracies))
	for _, a := range accuracies {
		acc = append(acc, a.Accuracy)
		fp = append(fp, a.FalsePositives)
		fn = append(fn, a.FalseNegatives)
	}

	rollup := storage.Accuracy{Job: job}
	rollup.Accuracy, _ = stats.Mean(acc)      // nolint: errcheck
	rollup.FalsePositives, _ = stats.Mean(fp) // nolint: errcheck
	rollup.FalseNegatives, _ = stats.Mean(fn) // nolint: errcheck
	return rollup, nil
}
