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

//go:generate mockgen -destination mocks/simulator_mock.go -source simulator.go -package mocks

package simulator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/nocsentry/nocsentry/pkg/util/fileutils"
	"github.com/nocsentry/nocsentry/trainer/config"
)

// Simulator is the interface used for network simulation.
type Simulator interface {
	// Run simulates the traffic table, it writes raw features to the feature
	// file and the simulator output to the log file. Run blocks until the
	// simulator exits.
	Run(ctx context.Context, trafficTable, featureFile, logFile string) error
}

// simulator runs an external simulator executable.
type simulator struct {
	config *config.SimulatorConfig
	dimX   int
	dimY   int
}

// New returns a new Simulator instance.
func New(cfg *config.Config) Simulator {
	return &simulator{
		config: &cfg.Simulator,
		dimX:   cfg.Mesh.DimX,
		dimY:   cfg.Mesh.DimY,
	}
}

// Run simulates the traffic table.
func (s *simulator) Run(ctx context.Context, trafficTable, featureFile, logFile string) error {
	if err := fileutils.MkdirAll(filepath.Dir(featureFile)); err != nil {
		return err
	}

	log, err := fileutils.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer log.Close()

	cmd := exec.CommandContext(ctx, s.config.Path, s.args(trafficTable, featureFile)...)
	cmd.Stdout = log
	cmd.Stderr = log
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("simulate %s: %w", trafficTable, err)
	}

	return nil
}

// args returns the command line of the simulator.
func (s *simulator) args(trafficTable, featureFile string) []string {
	args := []string{
		"-topology", s.config.Topology,
		"-dimx", strconv.Itoa(s.dimX),
		"-dimy", strconv.Itoa(s.dimY),
		"-traffic", "table", trafficTable,
	}

	if s.config.ConfigFile != "" {
		args = append(args, "-config", s.config.ConfigFile)
	}

	if s.config.PowerFile != "" {
		args = append(args, "-power", s.config.PowerFile)
	}

	args = append(args, "-features", featureFile)
	return append(args, s.config.ExtraArgs...)
}
