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

package config

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/nocsentry/nocsentry/internal/dflog/logcore"
	"github.com/nocsentry/nocsentry/pkg/types"
)

const (
	// DefaultMeshDimX is default number of mesh columns.
	DefaultMeshDimX = 8

	// DefaultMeshDimY is default number of mesh rows.
	DefaultMeshDimY = 8
)

const (
	// DefaultSimulatorPath is default simulator executable, looked up in PATH.
	DefaultSimulatorPath = "noxim"

	// DefaultSimulatorTopology is default topology passed to the simulator.
	DefaultSimulatorTopology = "MESH"

	// DefaultSimulatorPIR is default packet injection rate of the attack flow.
	DefaultSimulatorPIR = 1.0
)

const (
	// DefaultScenarioMode is default mode of scenario enumeration.
	DefaultScenarioMode = types.ScenarioModeEdges

	// DefaultScenarioAttackStartCycle is default first saturated cycle of an attack run.
	DefaultScenarioAttackStartCycle = 0
)

const (
	// DefaultFeatureEnableAverage is default value of enableAverage.
	DefaultFeatureEnableAverage = true

	// DefaultFeatureAverageCycles is default moving average window in cycles.
	DefaultFeatureAverageCycles = 5
)

const (
	// DefaultTrainingEpochs is default number of training epochs.
	DefaultTrainingEpochs = 100

	// DefaultTrainingLearningRate is default learning rate.
	DefaultTrainingLearningRate = 5e-5

	// DefaultTrainingRatio is default fraction of each class used for training.
	DefaultTrainingRatio = 0.7

	// DefaultTrainingGranularity is default granularity of classifiers.
	DefaultTrainingGranularity = types.GranularityRouter
)

const (
	// DefaultWorkerPollTimeout is default timeout of a worker polling the job queue.
	DefaultWorkerPollTimeout = 100 * time.Millisecond
)

const (
	// DefaultStorageBenchmarkDir is default directory of benchmark traffic tables.
	DefaultStorageBenchmarkDir = "benchmarks"

	// DefaultStorageWorkDir is default directory of generated files.
	DefaultStorageWorkDir = "DoS_noxim_data_router"

	// DefaultEvaluateReportDir is default directory name of evaluation reports.
	DefaultEvaluateReportDir = "feature_tester"
)

const (
	// DefaultLogRotateMaxSize is default maximum size in megabytes of log files.
	DefaultLogRotateMaxSize = logcore.DefaultRotateMaxSize

	// DefaultLogRotateMaxAge is default maximum number of days to retain old log files.
	DefaultLogRotateMaxAge = logcore.DefaultRotateMaxAge

	// DefaultLogRotateMaxBackups is default maximum number of old log files to keep.
	DefaultLogRotateMaxBackups = logcore.DefaultRotateMaxBackups
)

const (
	// DefaultMetricsAddr is default address for metrics server.
	DefaultMetricsAddr = ":8000"
)

// DefaultWorkers is default number of workers per stage, one per logical cpu.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return 1
	}

	return n
}
