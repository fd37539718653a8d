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
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nocsentry/nocsentry/cmd/dependency/base"
	pkgstrings "github.com/nocsentry/nocsentry/pkg/strings"
	"github.com/nocsentry/nocsentry/pkg/types"
)

type Config struct {
	// Base options.
	base.Options `yaml:",inline" mapstructure:",squash"`

	// Mesh configuration.
	Mesh MeshConfig `yaml:"mesh" mapstructure:"mesh"`

	// Simulator configuration.
	Simulator SimulatorConfig `yaml:"simulator" mapstructure:"simulator"`

	// Scenario configuration.
	Scenario ScenarioConfig `yaml:"scenario" mapstructure:"scenario"`

	// Feature configuration.
	Feature FeatureConfig `yaml:"feature" mapstructure:"feature"`

	// Training configuration.
	Training TrainingConfig `yaml:"training" mapstructure:"training"`

	// Worker configuration.
	Worker WorkerConfig `yaml:"worker" mapstructure:"worker"`

	// Storage configuration.
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Evaluate configuration.
	Evaluate EvaluateConfig `yaml:"evaluate" mapstructure:"evaluate"`

	// Server configuration.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Metrics configuration.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

type MeshConfig struct {
	// DimX is the number of columns.
	DimX int `yaml:"dimX" mapstructure:"dimX"`

	// DimY is the number of rows.
	DimY int `yaml:"dimY" mapstructure:"dimY"`
}

type SimulatorConfig struct {
	// Path is the simulator executable.
	Path string `yaml:"path" mapstructure:"path"`

	// Topology is passed as -topology.
	Topology string `yaml:"topology" mapstructure:"topology"`

	// ConfigFile is passed as -config when set.
	ConfigFile string `yaml:"configFile" mapstructure:"configFile"`

	// PowerFile is passed as -power when set.
	PowerFile string `yaml:"powerFile" mapstructure:"powerFile"`

	// ExtraArgs are appended to the simulator arguments.
	ExtraArgs []string `yaml:"extraArgs" mapstructure:"extraArgs"`

	// PIR is the packet injection rate of the injected attack flow.
	PIR float64 `yaml:"pir" mapstructure:"pir"`
}

type ScenarioConfig struct {
	// Mode selects how attack scenarios are enumerated.
	Mode types.ScenarioMode `yaml:"mode" mapstructure:"mode"`

	// Pairs are the attack scenarios used by explicit mode.
	Pairs []PairConfig `yaml:"pairs" mapstructure:"pairs"`

	// AttackStartCycle is the first cycle labeled saturated in an attack run.
	AttackStartCycle int64 `yaml:"attackStartCycle" mapstructure:"attackStartCycle"`
}

type PairConfig struct {
	// Src is the router injecting the attack flow.
	Src RouterConfig `yaml:"src" mapstructure:"src"`

	// Dst is the target router of the attack flow.
	Dst RouterConfig `yaml:"dst" mapstructure:"dst"`
}

type RouterConfig struct {
	X int `yaml:"x" mapstructure:"x"`
	Y int `yaml:"y" mapstructure:"y"`
}

type FeatureConfig struct {
	// EnableAverage replaces features with their trailing moving average.
	EnableAverage bool `yaml:"enableAverage" mapstructure:"enableAverage"`

	// AverageCycles is the moving average window.
	AverageCycles int `yaml:"averageCycles" mapstructure:"averageCycles"`
}

type TrainingConfig struct {
	// Epochs is the number of passes over the training set.
	Epochs int `yaml:"epochs" mapstructure:"epochs"`

	// LearningRate is the step of the perceptron update.
	LearningRate float64 `yaml:"learningRate" mapstructure:"learningRate"`

	// TrainRatio is the fraction of each class used for training.
	TrainRatio float64 `yaml:"trainRatio" mapstructure:"trainRatio"`

	// Granularity is the unit a classifier is trained for.
	Granularity types.Granularity `yaml:"granularity" mapstructure:"granularity"`

	// Seed seeds shuffling, zero seeds from the clock.
	Seed int64 `yaml:"seed" mapstructure:"seed"`
}

type WorkerConfig struct {
	// Generation is the number of workers driving the simulator.
	Generation int `yaml:"generation" mapstructure:"generation"`

	// Merge is the number of workers merging and meta merging features.
	Merge int `yaml:"merge" mapstructure:"merge"`

	// Train is the number of workers training and evaluating classifiers.
	Train int `yaml:"train" mapstructure:"train"`

	// PollTimeout is how long an idle worker waits for a job before exiting.
	PollTimeout time.Duration `yaml:"pollTimeout" mapstructure:"pollTimeout"`
}

type StorageConfig struct {
	// BenchmarkDir holds one traffic table per benchmark.
	BenchmarkDir string `yaml:"benchmarkDir" mapstructure:"benchmarkDir"`

	// WorkDir is the root of generated files.
	WorkDir string `yaml:"workDir" mapstructure:"workDir"`

	// ResetWorkDir removes the work directory of a previous run.
	ResetWorkDir bool `yaml:"resetWorkDir" mapstructure:"resetWorkDir"`
}

type EvaluateConfig struct {
	// WeightsFile is the weights file to evaluate, defaults to the one in the work directory.
	WeightsFile string `yaml:"weightsFile" mapstructure:"weightsFile"`

	// ReportDir is the directory of per benchmark reports.
	ReportDir string `yaml:"reportDir" mapstructure:"reportDir"`
}

type ServerConfig struct {
	// Server log directory.
	LogDir string `yaml:"logDir" mapstructure:"logDir"`

	// Maximum size in megabytes of log files before rotation (default: 300)
	LogMaxSize int `yaml:"logMaxSize" mapstructure:"logMaxSize"`

	// Maximum number of days to retain old log files (default: 7)
	LogMaxAge int `yaml:"logMaxAge" mapstructure:"logMaxAge"`

	// Maximum number of old log files to keep (default: 50)
	LogMaxBackups int `yaml:"logMaxBackups" mapstructure:"logMaxBackups"`
}

type MetricsConfig struct {
	// Enable metrics service.
	Enable bool `yaml:"enable" mapstructure:"enable"`

	// Metrics service address.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// New default configuration.
func New() *Config {
	workers := DefaultWorkers()

	return &Config{
		Mesh: MeshConfig{
			DimX: DefaultMeshDimX,
			DimY: DefaultMeshDimY,
		},
		Simulator: SimulatorConfig{
			Path:     DefaultSimulatorPath,
			Topology: DefaultSimulatorTopology,
			PIR:      DefaultSimulatorPIR,
		},
		Scenario: ScenarioConfig{
			Mode:             DefaultScenarioMode,
			AttackStartCycle: DefaultScenarioAttackStartCycle,
		},
		Feature: FeatureConfig{
			EnableAverage: DefaultFeatureEnableAverage,
			AverageCycles: DefaultFeatureAverageCycles,
		},
		Training: TrainingConfig{
			Epochs:       DefaultTrainingEpochs,
			LearningRate: DefaultTrainingLearningRate,
			TrainRatio:   DefaultTrainingRatio,
			Granularity:  DefaultTrainingGranularity,
		},
		Worker: WorkerConfig{
			Generation:  workers,
			Merge:       workers,
			Train:       workers,
			PollTimeout: DefaultWorkerPollTimeout,
		},
		Storage: StorageConfig{
			BenchmarkDir: DefaultStorageBenchmarkDir,
			WorkDir:      DefaultStorageWorkDir,
		},
		Server: ServerConfig{
			LogMaxSize:    DefaultLogRotateMaxSize,
			LogMaxAge:     DefaultLogRotateMaxAge,
			LogMaxBackups: DefaultLogRotateMaxBackups,
		},
		Metrics: MetricsConfig{
			Enable: false,
			Addr:   DefaultMetricsAddr,
		},
	}
}

// Validate config parameters.
func (cfg *Config) Validate() error {
	if cfg.Mesh.DimX <= 0 {
		return errors.New("mesh requires parameter dimX")
	}

	if cfg.Mesh.DimY <= 0 {
		return errors.New("mesh requires parameter dimY")
	}

	if pkgstrings.IsBlank(cfg.Simulator.Path) {
		return errors.New("simulator requires parameter path")
	}

	if pkgstrings.IsBlank(cfg.Simulator.Topology) {
		return errors.New("simulator requires parameter topology")
	}

	if cfg.Simulator.PIR <= 0 || cfg.Simulator.PIR > 1 {
		return errors.New("simulator requires parameter pir")
	}

	if !cfg.Scenario.Mode.Valid() {
		return errors.New("scenario requires parameter mode")
	}

	if cfg.Scenario.Mode == types.ScenarioModeExplicit {
		if len(cfg.Scenario.Pairs) == 0 {
			return errors.New("scenario requires parameter pairs")
		}

		for _, pair := range cfg.Scenario.Pairs {
			if !cfg.inMesh(pair.Src) || !cfg.inMesh(pair.Dst) {
				return fmt.Errorf("scenario pair %d_%d to %d_%d is outside of the mesh", pair.Src.X, pair.Src.Y, pair.Dst.X, pair.Dst.Y)
			}
		}
	}

	if cfg.Scenario.AttackStartCycle < 0 {
		return errors.New("scenario requires parameter attackStartCycle")
	}

	if cfg.Feature.EnableAverage && cfg.Feature.AverageCycles <= 0 {
		return errors.New("feature requires parameter averageCycles")
	}

	if cfg.Training.Epochs <= 0 {
		return errors.New("training requires parameter epochs")
	}

	if cfg.Training.LearningRate <= 0 {
		return errors.New("training requires parameter learningRate")
	}

	if cfg.Training.TrainRatio <= 0 || cfg.Training.TrainRatio >= 1 {
		return errors.New("training requires parameter trainRatio")
	}

	if !cfg.Training.Granularity.Valid() {
		return errors.New("training requires parameter granularity")
	}

	if cfg.Worker.Generation <= 0 {
		return errors.New("worker requires parameter generation")
	}

	if cfg.Worker.Merge <= 0 {
		return errors.New("worker requires parameter merge")
	}

	if cfg.Worker.Train <= 0 {
		return errors.New("worker requires parameter train")
	}

	if cfg.Worker.PollTimeout <= 0 {
		return errors.New("worker requires parameter pollTimeout")
	}

	if pkgstrings.IsBlank(cfg.Storage.BenchmarkDir) {
		return errors.New("storage requires parameter benchmarkDir")
	}

	if pkgstrings.IsBlank(cfg.Storage.WorkDir) {
		return errors.New("storage requires parameter workDir")
	}

	if cfg.Metrics.Enable {
		if pkgstrings.IsBlank(cfg.Metrics.Addr) {
			return errors.New("metrics requires parameter addr")
		}
	}

	return nil
}

// Convert fills derived parameters.
func (cfg *Config) Convert() error {
	if cfg.Storage.WorkDir != "" {
		workDir, err := filepath.Abs(cfg.Storage.WorkDir)
		if err != nil {
			return err
		}
		cfg.Storage.WorkDir = workDir
	}

	if cfg.Evaluate.WeightsFile == "" {
		cfg.Evaluate.WeightsFile = filepath.Join(cfg.Storage.WorkDir, "weights")
	}

	if cfg.Evaluate.ReportDir == "" {
		cfg.Evaluate.ReportDir = filepath.Join(cfg.Storage.WorkDir, DefaultEvaluateReportDir)
	}

	if cfg.Server.LogDir == "" {
		cfg.Server.LogDir = filepath.Join(cfg.Storage.WorkDir, "logs")
	}

	return nil
}

func (cfg *Config) inMesh(r RouterConfig) bool {
	return r.X >= 0 && r.X < cfg.Mesh.DimX && r.Y >= 0 && r.Y < cfg.Mesh.DimY
}
