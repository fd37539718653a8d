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

package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/math"
	"github.com/nocsentry/nocsentry/pkg/safe"
	"github.com/nocsentry/nocsentry/pkg/structure/queue"
	"github.com/nocsentry/nocsentry/trainer/metrics"
)

// Config is the configuration of one stage of workers.
type Config struct {
	// Stage names the stage in logs and metrics.
	Stage string

	// Workers is the number of workers.
	Workers int

	// PollTimeout is how long an idle worker waits for a job before exiting.
	PollTimeout time.Duration

	// LogDir is the directory of per worker log files, empty logs to the core logger.
	LogDir string

	// Verbose enables debug logs of workers.
	Verbose bool

	// Rotate is the rotation policy of per worker log files.
	Rotate logger.LogRotateConfig

	// Progress shows a progress bar of the stage.
	Progress bool
}

// Handler processes one job with the logger of the worker running it.
type Handler[T any] func(context.Context, *logger.SugaredLoggerOnWith, T) error

// Result summarizes a finished stage.
type Result struct {
	Stage     string
	Jobs      int
	Succeeded int64
	Failed    int64
	Duration  time.Duration
}

// Group runs the jobs of a stage on a pool of workers sharing one queue.
// Workers exit once the queue stayed empty for a poll timeout.
type Group[T any] struct {
	config  Config
	handler Handler[T]
}

// NewGroup returns a new worker group.
func NewGroup[T any](cfg Config, handler Handler[T]) *Group[T] {
	cfg.Workers = math.Max(cfg.Workers, 1)
	return &Group[T]{config: cfg, handler: handler}
}

// Run enqueues every job, starts the workers and blocks until all jobs are
// done and every worker exited. A failed job does not stop its worker, the
// failures are returned together once the stage is over.
func (g *Group[T]) Run(ctx context.Context, jobs []T) (*Result, error) {
	start := time.Now()
	log := logger.WithStage(g.config.Stage)

	q := queue.New[T]()
	for _, job := range jobs {
		q.Put(job)
	}

	var bar *progressbar.ProgressBar
	if g.config.Progress {
		bar = progressbar.Default(int64(len(jobs)), g.config.Stage)
	}

	var (
		succeeded = atomic.NewInt64(0)
		failed    = atomic.NewInt64(0)
		mu        sync.Mutex
		errs      *multierror.Error
	)

	log.Infof("starting %d workers for %d jobs", g.config.Workers, len(jobs))
	eg := errgroup.Group{}
	for i := 0; i < g.config.Workers; i++ {
		workerID := i
		eg.Go(func() error {
			wlog, err := logger.NewWorkerLogger(g.config.Verbose, g.config.LogDir, g.config.Rotate, g.config.Stage, workerID)
			if err != nil {
				log.Warnf("create logger of worker %d failed: %s", workerID, err.Error())
				wlog = logger.WithWorker(g.config.Stage, workerID)
			}
			defer wlog.Sync()

			wlog.Info("starting")
			for {
				job, ok := q.PollTimeout(g.config.PollTimeout)
				if !ok {
					break
				}

				metrics.JobCount.WithLabelValues(g.config.Stage).Inc()
				if err := g.process(ctx, wlog, job); err != nil {
					metrics.JobFailureCount.WithLabelValues(g.config.Stage).Inc()
					wlog.Errorf("job %v failed: %s", job, err.Error())
					failed.Inc()

					mu.Lock()
					errs = multierror.Append(errs, fmt.Errorf("job %v: %w", job, err))
					mu.Unlock()
				} else {
					succeeded.Inc()
				}

				if bar != nil {
					bar.Add(1)
				}
				q.Done()
			}

			wlog.Info("exiting")
			return nil
		})
	}

	eg.Wait()
	q.Join()
	if bar != nil {
		bar.Finish()
	}

	result := &Result{
		Stage:     g.config.Stage,
		Jobs:      len(jobs),
		Succeeded: succeeded.Load(),
		Failed:    failed.Load(),
		Duration:  time.Since(start),
	}
	log.Infof("stage finished: %d succeeded, %d failed in %s", result.Succeeded, result.Failed, result.Duration)

	return result, errs.ErrorOrNil()
}

func (g *Group[T]) process(ctx context.Context, log *logger.SugaredLoggerOnWith, job T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Infof("starting job %v", job)
	if err := safe.Call(func() error {
		return g.handler(ctx, log, job)
	}); err != nil {
		return err
	}

	log.Infof("completed job %v", job)
	return nil
}
