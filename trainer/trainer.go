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

package trainer

import (
	"context"
	"net/http"
	"time"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/trainer/config"
	"github.com/nocsentry/nocsentry/trainer/metrics"
	"github.com/nocsentry/nocsentry/trainer/pipeline"
	"github.com/nocsentry/nocsentry/trainer/simulator"
	"github.com/nocsentry/nocsentry/trainer/storage"
)

const (
	// gracefulStopTimeout specifies a time limit for
	// metrics server to complete a graceful stop.
	gracefulStopTimeout = 10 * time.Second
)

type Server struct {
	// Server configuration.
	config *config.Config

	// Metrics server.
	metricsServer *http.Server

	// Storage interface.
	storage storage.Storage

	// Pipeline of the stages.
	pipeline *pipeline.Pipeline
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{config: cfg}

	// Initialize storage.
	s.storage = storage.New(cfg.Storage.WorkDir)

	// Initialize pipeline.
	p, err := pipeline.New(cfg, s.storage, simulator.New(cfg))
	if err != nil {
		return nil, err
	}
	s.pipeline = p

	// Initialize metrics.
	if cfg.Metrics.Enable {
		s.metricsServer = metrics.New(&cfg.Metrics)
	}

	return s, nil
}

// Serve runs every stage of the pipeline.
func (s *Server) Serve(ctx context.Context) (*pipeline.Summary, error) {
	s.serveMetrics()
	return s.pipeline.Run(ctx)
}

// Evaluate evaluates the stored models against benchmarks.
func (s *Server) Evaluate(ctx context.Context, benchmarks []string) (*pipeline.Summary, error) {
	s.serveMetrics()
	return s.pipeline.Evaluate(ctx, benchmarks)
}

func (s *Server) Stop() {
	// Stop metrics server.
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), gracefulStopTimeout)
		defer cancel()

		if err := s.metricsServer.Shutdown(ctx); err != nil {
			logger.Errorf("metrics server failed to stop: %s", err.Error())
		} else {
			logger.Info("metrics server closed under request")
		}
	}
}

func (s *Server) serveMetrics() {
	if s.metricsServer == nil {
		return
	}

	go func() {
		logger.Infof("started metrics server at %s", s.metricsServer.Addr)
		if err := s.metricsServer.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				return
			}

			logger.Fatalf("metrics server closed unexpect: %s", err.Error())
		}
	}()
}
