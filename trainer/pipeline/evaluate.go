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
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/feature"
	"github.com/nocsentry/nocsentry/trainer/storage"
	"github.com/nocsentry/nocsentry/trainer/training"
	"github.com/nocsentry/nocsentry/trainer/worker"
)

// evaluation is a stored model evaluated against one feature file.
type evaluation struct {
	name   string
	weight storage.Weight
}

func (e evaluation) String() string {
	return e.name
}

// Evaluate tests the models of the weights file against the feature files
// of benchmarks, every benchmark of the work directory when none is given.
// Each benchmark gets its own report ending with the averaged accuracy.
func (p *Pipeline) Evaluate(ctx context.Context, benchmarks []string) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	log := logger.WithRun(summary.RunID)

	weights, err := p.storage.ListWeights(p.config.Evaluate.WeightsFile)
	if err != nil {
		return nil, err
	}

	jobs := make([]evaluation, 0, len(weights))
	for _, w := range weights {
		name, err := p.name(w)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, evaluation{name: name, weight: w})
	}

	if len(benchmarks) == 0 {
		if benchmarks, err = p.storage.ListBenchmarks(); err != nil {
			return nil, err
		}
	}
	log.Infof("evaluating %d models against %d benchmarks", len(jobs), len(benchmarks))

	for _, benchmark := range benchmarks {
		blog := log.WithBenchmark(benchmark)
		report := storage.Report(p.config.Evaluate.ReportDir, benchmark)
		if err := p.storage.Remove(report); err != nil {
			return nil, err
		}

		results := make(chan storage.Accuracy)
		collected := collect(blog, results, func(a storage.Accuracy) error {
			return p.storage.CreateReport(report, a)
		})

		summary.Stages = append(summary.Stages, runStage(ctx, blog,
			worker.NewGroup(p.workerConfig(types.EvaluateStageName, p.config.Worker.Train, benchmark), p.evaluate(benchmark, results)),
			jobs))
		close(results)

		rollup, err := Rollup(benchmark, <-collected)
		if err != nil {
			blog.Warnf("no model evaluated: %s", err.Error())
			continue
		}

		if err := p.storage.CreateNetAccuracy(report, rollup); err != nil {
			return nil, err
		}
		summary.Rollups = append(summary.Rollups, rollup)
	}

	return summary, nil
}

// evaluate returns the handler testing a stored model on the features of
// benchmark. A missing feature file scores zero.
func (p *Pipeline) evaluate(benchmark string, results chan<- storage.Accuracy) worker.Handler[evaluation] {
	return func(ctx context.Context, log *logger.SugaredLoggerOnWith, e evaluation) error {
		if len(e.weight.Weights) != feature.Size {
			return fmt.Errorf("model of %s has %d weights, expected %d", e.name, len(e.weight.Weights), feature.Size)
		}

		path, err := p.benchmarkFeatures(benchmark, e.name)
		if err != nil {
			return err
		}

		records, err := p.storage.ListFeatures(path)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return err
			}

			log.Warnf("no features of %s", e.name)
		}

		ev := training.Evaluate(&training.Model{Bias: e.weight.Bias, Weights: e.weight.Weights}, records)
		results <- storage.Accuracy{
			Job:            e.name,
			Accuracy:       ev.Accuracy,
			FalsePositives: ev.FalsePositives,
			FalseNegatives: ev.FalseNegatives,
		}
		return nil
	}
}
