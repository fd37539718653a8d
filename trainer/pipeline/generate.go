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
	"math"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/trainer/feature"
	"github.com/nocsentry/nocsentry/trainer/simulator"
	"github.com/nocsentry/nocsentry/trainer/storage"
	"github.com/nocsentry/nocsentry/trainer/worker"
)

// generate returns the handler simulating a scenario of benchmark twice,
// without and with the attack flow, and appending the labeled features of
// the routers on the attack path to their per port files.
func (p *Pipeline) generate(benchmark string) worker.Handler[Scenario] {
	return func(ctx context.Context, log *logger.SugaredLoggerOnWith, s Scenario) error {
		layout := p.storage.Layout()
		name := s.String()

		log.Debugf("writing traffic tables of %s", name)
		flow := simulator.AttackFlow(p.mesh.RouterID(s.Src), p.mesh.RouterID(s.Dst), p.config.Simulator.PIR)
		if err := simulator.WriteTrafficTables(
			layout.BenchmarkTrafficTable(benchmark),
			layout.TrafficTable(benchmark, name, storage.RunBaseline),
			layout.TrafficTable(benchmark, name, storage.RunAttack),
			flow,
		); err != nil {
			return err
		}

		for _, run := range []storage.Run{storage.RunBaseline, storage.RunAttack} {
			log.Debugf("calling simulator for %s run", run)
			if err := p.simulator.Run(ctx,
				layout.TrafficTable(benchmark, name, run),
				layout.UnparsedFeatures(benchmark, name, run),
				layout.SimulatorLog(benchmark, name, run),
			); err != nil {
				return err
			}
		}

		path, err := p.mesh.Path(s.Src, s.Dst)
		if err != nil {
			return err
		}

		log.Debug("parsing features")
		baseline, err := feature.ParseFile(layout.UnparsedFeatures(benchmark, name, storage.RunBaseline), p.mesh, path)
		if err != nil {
			return err
		}

		attack, err := feature.ParseFile(layout.UnparsedFeatures(benchmark, name, storage.RunAttack), p.mesh, path)
		if err != nil {
			return err
		}

		if p.config.Feature.EnableAverage {
			log.Debug("pre-processing features")
			if err := feature.Smooth(baseline, p.config.Feature.AverageCycles); err != nil {
				return err
			}

			if err := feature.Smooth(attack, p.config.Feature.AverageCycles); err != nil {
				return err
			}
		}

		log.Debug("annotating features")
		merged := feature.Merge(
			feature.Annotate(baseline, math.MaxInt64),
			feature.Annotate(attack, p.config.Scenario.AttackStartCycle),
		)

		log.Debug("writing per port features")
		return p.writePortFeatures(log, benchmark, path, merged)
	}
}

// writePortFeatures appends the streams of ports in path order. Port files
// are append only, a failed write leaves the ports before it committed.
func (p *Pipeline) writePortFeatures(log *logger.SugaredLoggerOnWith, benchmark string, ports []mesh.RouterPort, streams map[mesh.RouterPort][]feature.AnnotatedRecord) error {
	for i, rp := range ports {
		if err := p.storage.CreateFeatures(p.storage.Layout().PortFeatures(benchmark, rp), streams[rp]); err != nil {
			log.Errorf("writing %s failed after %d of %d ports were committed: %v", rp, i, len(ports), ports[:i])
			return fmt.Errorf("write features of %s: %w", rp, err)
		}
	}

	return nil
}
