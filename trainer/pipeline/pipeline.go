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
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/pkg/util/fileutils"
	"github.com/nocsentry/nocsentry/trainer/config"
	"github.com/nocsentry/nocsentry/trainer/simulator"
	"github.com/nocsentry/nocsentry/trainer/storage"
	"github.com/nocsentry/nocsentry/trainer/training"
	"github.com/nocsentry/nocsentry/trainer/worker"
)

// Summary reports a finished run.
type Summary struct {
	// RunID identifies the run in logs.
	RunID string

	// Stages are the results of every stage in run order.
	Stages []*worker.Result

	// Rollups are the averaged accuracies, one for training and one per
	// evaluated benchmark.
	Rollups []storage.Accuracy
}

// Failed returns the number of failed jobs of the run.
func (s *Summary) Failed() int64 {
	var n int64
	for _, stage := range s.Stages {
		n += stage.Failed
	}

	return n
}

// Pipeline generates features for every benchmark, merges them and trains
// one classifier per feature file. Stages run one after another, a stage
// starts once every job of the previous one is done.
type Pipeline struct {
	config    *config.Config
	mesh      *mesh.Mesh
	storage   storage.Storage
	simulator simulator.Simulator
	training  training.Training
}

// New returns a new Pipeline.
func New(cfg *config.Config, storage storage.Storage, simulator simulator.Simulator) (*Pipeline, error) {
	m, err := mesh.New(cfg.Mesh.DimX, cfg.Mesh.DimY)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		config:    cfg,
		mesh:      m,
		storage:   storage,
		simulator: simulator,
		training:  training.New(&cfg.Training),
	}, nil
}

// Run runs every stage. Failed jobs are logged and counted in the summary,
// only errors that prevent a stage from starting are returned.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	log := logger.WithRun(summary.RunID)

	if p.config.Storage.ResetWorkDir {
		log.Infof("removing work directory %s", p.storage.Layout().WorkDir())
		if err := p.storage.Clear(); err != nil {
			return nil, err
		}
	}

	benchmarks, err := p.prepareBenchmarks()
	if err != nil {
		return nil, err
	}
	log.Infof("found %d benchmarks in %s", len(benchmarks), p.config.Storage.BenchmarkDir)

	scenarios := Scenarios(&p.config.Scenario, p.mesh)
	log.Infof("enqueueing %d scenarios per benchmark", len(scenarios))

	for _, benchmark := range benchmarks {
		blog := log.WithBenchmark(benchmark)
		if err := p.touchPortFeatures(benchmark); err != nil {
			return nil, err
		}

		summary.Stages = append(summary.Stages, runStage(ctx, blog,
			worker.NewGroup(p.workerConfig(types.GenerationStageName, p.config.Worker.Generation, benchmark), p.generate(benchmark)),
			scenarios))

		if p.config.Training.Granularity == types.GranularityRouter {
			summary.Stages = append(summary.Stages, runStage(ctx, blog,
				worker.NewGroup(p.workerConfig(types.MergeStageName, p.config.Worker.Merge, benchmark), p.merge(benchmark)),
				p.mesh.Routers()))
		}
	}

	jobs := p.jobs()
	summary.Stages = append(summary.Stages, runStage(ctx, log,
		worker.NewGroup(p.workerConfig(types.MetaMergeStageName, p.config.Worker.Merge, ""), p.metaMerge(benchmarks)),
		jobs))

	rollup, result, err := p.trainAll(ctx, log, jobs)
	if err != nil {
		return nil, err
	}
	summary.Stages = append(summary.Stages, result)
	if rollup != nil {
		summary.Rollups = append(summary.Rollups, *rollup)
	}

	return summary, nil
}

// prepareBenchmarks creates the tree of every benchmark traffic table found
// in the benchmark directory.
func (p *Pipeline) prepareBenchmarks() ([]string, error) {
	benchmarks, err := fileutils.RegularFiles(p.config.Storage.BenchmarkDir)
	if err != nil {
		return nil, err
	}

	if len(benchmarks) == 0 {
		return nil, fmt.Errorf("no benchmark found in %s", p.config.Storage.BenchmarkDir)
	}

	for _, benchmark := range benchmarks {
		if err := p.storage.CreateBenchmark(benchmark, filepath.Join(p.config.Storage.BenchmarkDir, benchmark)); err != nil {
			return nil, err
		}
	}

	return benchmarks, nil
}

// touchPortFeatures creates an empty feature file for every router port of
// the mesh.
func (p *Pipeline) touchPortFeatures(benchmark string) error {
	var paths []string
	for _, rp := range p.mesh.RouterPorts() {
		paths = append(paths, p.storage.Layout().PortFeatures(benchmark, rp))
	}

	return p.storage.TouchFeatures(paths)
}

// jobs returns the names of the feature files classifiers are trained for.
func (p *Pipeline) jobs() []string {
	var jobs []string
	if p.config.Training.Granularity == types.GranularityPort {
		for _, rp := range p.mesh.RouterPorts() {
			jobs = append(jobs, rp.String())
		}

		return jobs
	}

	for _, c := range p.mesh.Routers() {
		jobs = append(jobs, storage.RouterFeaturesName(c, true), storage.RouterFeaturesName(c, false))
	}

	return jobs
}

func (p *Pipeline) workerConfig(stage string, workers int, benchmark string) worker.Config {
	return worker.Config{
		Stage:       stage,
		Workers:     workers,
		PollTimeout: p.config.Worker.PollTimeout,
		LogDir:      p.storage.Layout().WorkerLogs(benchmark, stage),
		Verbose:     p.config.Verbose,
		Rotate: logger.LogRotateConfig{
			MaxSize:    p.config.Server.LogMaxSize,
			MaxAge:     p.config.Server.LogMaxAge,
			MaxBackups: p.config.Server.LogMaxBackups,
		},
		Progress: p.config.Progress,
	}
}

// runStage runs a stage and logs its failures, a failed job never stops
// the run.
func runStage[T any](ctx context.Context, log *logger.SugaredLoggerOnWith, g *worker.Group[T], jobs []T) *worker.Result {
	result, err := g.Run(ctx, jobs)
	if err != nil {
		log.Errorf("stage %s has %d failed jobs: %s", result.Stage, result.Failed, err.Error())
	}

	return result
}
