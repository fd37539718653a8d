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

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/storage"
	"github.com/nocsentry/nocsentry/trainer/worker"
)

// merge returns the handler grouping the per port files of a router into
// its input and output feature files.
func (p *Pipeline) merge(benchmark string) worker.Handler[mesh.Coordinate] {
	return func(ctx context.Context, log *logger.SugaredLoggerOnWith, c mesh.Coordinate) error {
		layout := p.storage.Layout()
		groups := []struct {
			in    bool
			ports []mesh.RouterPort
		}{
			{in: true, ports: p.mesh.InputPorts(c)},
			{in: false, ports: p.mesh.OutputPorts(c)},
		}

		for _, group := range groups {
			srcs := make([]string, 0, len(group.ports))
			for _, rp := range group.ports {
				srcs = append(srcs, layout.PortFeatures(benchmark, rp))
			}

			name := storage.RouterFeaturesName(c, group.in)
			used, err := p.storage.ConcatFeatures(layout.RouterFeatures(benchmark, name), srcs)
			if err != nil {
				return err
			}
			log.Debugf("merged %d port files into %s", used, name)
		}

		return nil
	}
}

// metaMerge returns the handler concatenating a feature file across every
// benchmark into the run wide one.
func (p *Pipeline) metaMerge(benchmarks []string) worker.Handler[string] {
	return func(ctx context.Context, log *logger.SugaredLoggerOnWith, name string) error {
		layout := p.storage.Layout()
		srcs := make([]string, 0, len(benchmarks))
		for _, benchmark := range benchmarks {
			src, err := p.benchmarkFeatures(benchmark, name)
			if err != nil {
				return err
			}
			srcs = append(srcs, src)
		}

		used, err := p.storage.ConcatFeatures(layout.RouterFeatures("", name), srcs)
		if err != nil {
			return err
		}
		log.Debugf("merged %d benchmark files into %s", used, name)

		return nil
	}
}

// benchmarkFeatures returns the feature file of a benchmark a classifier
// named name is trained or evaluated on.
func (p *Pipeline) benchmarkFeatures(benchmark, name string) (string, error) {
	layout := p.storage.Layout()
	if p.config.Training.Granularity == types.GranularityPort {
		rp, err := mesh.ParseRouterPort(name)
		if err != nil {
			return "", err
		}

		return layout.PortFeatures(benchmark, rp), nil
	}

	return layout.RouterFeatures(benchmark, name), nil
}
