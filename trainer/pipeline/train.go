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

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/metrics"
	"github.com/nocsentry/nocsentry/trainer/storage"
	"github.com/nocsentry/nocsentry/trainer/worker"
)

// netJob names the rollup of a training run.
const netJob = "net"

// trainAll trains a classifier per job. Workers send their accuracy to a
// single collector writing the accuracy report, the run wide rollup is
// appended once every worker exited.
func (p *Pipeline) trainAll(ctx context.Context, log *logger.SugaredLoggerOnWith, jobs []string) (*storage.Accuracy, *worker.Result, error) {
	layout := p.storage.Layout()
	for _, path := range []string{layout.Weights(), layout.AccuracyReport()} {
		if err := p.storage.Remove(path); err != nil {
			return nil, nil, err
		}
	}

	results := make(chan storage.Accuracy)
	collected := collect(log, results, func(a storage.Accuracy) error {
		metrics.ModelAccuracyGauge.WithLabelValues(a.Job).Set(a.Accuracy)
		return p.storage.CreateAccuracy(a)
	})

	result := runStage(ctx, log,
		worker.NewGroup(p.workerConfig(types.TrainStageName, p.config.Worker.Train, ""), p.train(results)),
		jobs)
	close(results)

	rollup, err := Rollup(netJob, <-collected)
	if err != nil {
		log.Warnf("no classifier trained: %s", err.Error())
		return nil, result, nil
	}

	if err := p.storage.CreateNetAccuracy(layout.AccuracyReport(), rollup); err != nil {
		return nil, result, err
	}
	metrics.NetAccuracyGauge.Set(rollup.Accuracy)

	return &rollup, result, nil
}

// train returns the handler fitting and testing the classifier of a run
// wide feature file. Empty feature files are skipped.
func (p *Pipeline) train(results chan<- storage.Accuracy) worker.Handler[string] {
	return func(ctx context.Context, log *logger.SugaredLoggerOnWith, name string) error {
		records, err := p.storage.ListFeatures(p.storage.Layout().RouterFeatures("", name))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		if len(records) == 0 {
			log.Infof("no samples of %s, skipping", name)
			return nil
		}

		routerID, target, err := p.target(name)
		if err != nil {
			return err
		}

		model, evaluation, err := p.training.Train(ctx, name, records)
		if err != nil {
			return err
		}
		log.Infof("trained %s on %d records, tested on %d", name, len(records)-evaluation.Total, evaluation.Total)

		if err := p.storage.CreateWeight(storage.Weight{
			RouterID: routerID,
			Target:   target,
			Bias:     model.Bias,
			Weights:  model.Weights,
		}); err != nil {
			return err
		}

		results <- storage.Accuracy{
			Job:            name,
			Accuracy:       evaluation.Accuracy,
			FalsePositives: evaluation.FalsePositives,
			FalseNegatives: evaluation.FalseNegatives,
		}
		return nil
	}
}

// target returns the router id and the weights file target of the
// classifier named name.
func (p *Pipeline) target(name string) (int, int, error) {
	if p.config.Training.Granularity == types.GranularityPort {
		rp, err := mesh.ParseRouterPort(name)
		if err != nil {
			return 0, 0, err
		}

		return p.mesh.RouterID(rp.Router), int(rp.Port), nil
	}

	c, in, err := storage.ParseRouterFeaturesName(name)
	if err != nil {
		return 0, 0, err
	}

	if in {
		return p.mesh.RouterID(c), storage.TargetIn, nil
	}

	return p.mesh.RouterID(c), storage.TargetOut, nil
}

// name is the inverse of target.
func (p *Pipeline) name(w storage.Weight) (string, error) {
	c, err := p.mesh.Coordinate(w.RouterID)
	if err != nil {
		return "", err
	}

	if p.config.Training.Granularity == types.GranularityPort {
		port := mesh.Port(w.Target)
		if !port.Valid() {
			return "", fmt.Errorf("%w: target %d of router %d", mesh.ErrInvalidName, w.Target, w.RouterID)
		}

		return mesh.RouterPort{Router: c, Port: port}.String(), nil
	}

	switch w.Target {
	case storage.TargetIn:
		return storage.RouterFeaturesName(c, true), nil
	case storage.TargetOut:
		return storage.RouterFeaturesName(c, false), nil
	}

	return "", fmt.Errorf("%w: target %d of router %d", mesh.ErrInvalidName, w.Target, w.RouterID)
}
