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

package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nocsentry/nocsentry/pkg/mesh"
)

const (
	// TrafficTablesDir holds the traffic tables of every scenario.
	TrafficTablesDir = "traffic_tables"

	// UnparsedFeaturesDir holds the raw feature files written by the simulator.
	UnparsedFeaturesDir = "unparsed_features"

	// PerPortFeaturesDir holds one feature file per router port.
	PerPortFeaturesDir = "per_port_features"

	// PerRouterFeaturesDir holds one feature file per router direction.
	PerRouterFeaturesDir = "per_router_features"

	// LogsDir holds the simulator logs.
	LogsDir = "logs"

	// WorkerLogsDirPrefix prefixes the directory of per worker logs of a stage.
	WorkerLogsDirPrefix = "worker_logs_"

	// WeightsFileName is the file of trained models.
	WeightsFileName = "weights"

	// AccuracyReportFileName is the file of model accuracies.
	AccuracyReportFileName = "accuracy_report"

	// ReportFileSuffix suffixes the evaluation report of a benchmark.
	ReportFileSuffix = "_report"
)

// Run is the kind of a simulator run of a scenario.
type Run string

const (
	// RunBaseline is the run of the benchmark traffic only.
	RunBaseline Run = "baseline"

	// RunAttack is the run of the benchmark traffic with the injected flow.
	RunAttack Run = "attack"
)

// Scenario names an attack from src to dst, for example 0_0_to_7_0.
func Scenario(src, dst mesh.Coordinate) string {
	return fmt.Sprintf("%s_to_%s", src, dst)
}

// Layout resolves the files of a run under the work directory. Every
// benchmark has its own tree, the merged features, the weights and the
// accuracy report live at the root.
type Layout struct {
	workDir string
}

// NewLayout returns the layout rooted at workDir.
func NewLayout(workDir string) *Layout {
	return &Layout{workDir: workDir}
}

// WorkDir returns the root directory.
func (l *Layout) WorkDir() string {
	return l.workDir
}

// Benchmark returns the directory of a benchmark.
func (l *Layout) Benchmark(benchmark string) string {
	return filepath.Join(l.workDir, benchmark)
}

// BenchmarkDirs returns the directories created for every benchmark.
func (l *Layout) BenchmarkDirs(benchmark string) []string {
	dirs := []string{TrafficTablesDir, UnparsedFeaturesDir, PerPortFeaturesDir, PerRouterFeaturesDir, LogsDir}
	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(l.Benchmark(benchmark), dir))
	}

	return paths
}

// BenchmarkTrafficTable returns the copy of the benchmark traffic table.
func (l *Layout) BenchmarkTrafficTable(benchmark string) string {
	return filepath.Join(l.Benchmark(benchmark), benchmark)
}

// TrafficTable returns the traffic table of a scenario run.
func (l *Layout) TrafficTable(benchmark, scenario string, run Run) string {
	return filepath.Join(l.Benchmark(benchmark), TrafficTablesDir, fmt.Sprintf("%s_%s", scenario, run))
}

// UnparsedFeatures returns the raw feature file of a scenario run.
func (l *Layout) UnparsedFeatures(benchmark, scenario string, run Run) string {
	return filepath.Join(l.Benchmark(benchmark), UnparsedFeaturesDir, fmt.Sprintf("%s_%s", scenario, run))
}

// SimulatorLog returns the simulator log of a scenario run.
func (l *Layout) SimulatorLog(benchmark, scenario string, run Run) string {
	return filepath.Join(l.Benchmark(benchmark), LogsDir, fmt.Sprintf("%s_%s", scenario, run))
}

// PortFeatures returns the feature file of a router port.
func (l *Layout) PortFeatures(benchmark string, rp mesh.RouterPort) string {
	return filepath.Join(l.Benchmark(benchmark), PerPortFeaturesDir, rp.String())
}

// RouterFeatures returns the feature file of a router direction, the
// merged one when benchmark is empty.
func (l *Layout) RouterFeatures(benchmark, name string) string {
	return filepath.Join(l.workDir, benchmark, PerRouterFeaturesDir, name)
}

// WorkerLogs returns the per worker log directory of a stage, the root
// one when benchmark is empty.
func (l *Layout) WorkerLogs(benchmark, stage string) string {
	return filepath.Join(l.workDir, benchmark, WorkerLogsDirPrefix+stage)
}

// Weights returns the file of trained models.
func (l *Layout) Weights() string {
	return filepath.Join(l.workDir, WeightsFileName)
}

// AccuracyReport returns the file of model accuracies.
func (l *Layout) AccuracyReport() string {
	return filepath.Join(l.workDir, AccuracyReportFileName)
}

// Report returns the evaluation report of a benchmark under reportDir.
func Report(reportDir, benchmark string) string {
	return filepath.Join(reportDir, benchmark+ReportFileSuffix)
}

// RouterFeaturesName names the feature file of an input or output port group.
func RouterFeaturesName(c mesh.Coordinate, in bool) string {
	if in {
		return fmt.Sprintf("%s_in", c)
	}

	return fmt.Sprintf("%s_out", c)
}

// ParseRouterFeaturesName parses a name made by RouterFeaturesName.
func ParseRouterFeaturesName(name string) (mesh.Coordinate, bool, error) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return mesh.Coordinate{}, false, fmt.Errorf("%w: %q", mesh.ErrInvalidName, name)
	}

	c, err := mesh.ParseCoordinate(name[:i])
	if err != nil {
		return mesh.Coordinate{}, false, err
	}

	switch name[i+1:] {
	case "in":
		return c, true, nil
	case "out":
		return c, false, nil
	}

	return mesh.Coordinate{}, false, fmt.Errorf("%w: %q", mesh.ErrInvalidName, name)
}
