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

package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// NocsentryName is the name of the binary.
	NocsentryName = "nocsentry"

	// MetricsNamespace is the namespace of metrics.
	MetricsNamespace = "nocsentry"

	// PipelineMetricsName is the subsystem name of pipeline metrics.
	PipelineMetricsName = "pipeline"
)

const (
	// GenerationStageName is the name of the stage driving the simulator.
	GenerationStageName = "gen"

	// MergeStageName is the name of the stage grouping ports into routers.
	MergeStageName = "merge"

	// MetaMergeStageName is the name of the stage concatenating benchmarks.
	MetaMergeStageName = "meta_merge"

	// TrainStageName is the name of the training stage.
	TrainStageName = "train"

	// EvaluateStageName is the name of the stage evaluating stored weights.
	EvaluateStageName = "evaluate"
)

// Granularity is the unit a classifier is trained for.
type Granularity string

const (
	// GranularityRouter trains one classifier per router direction.
	GranularityRouter Granularity = "router"

	// GranularityPort trains one classifier per router port.
	GranularityPort Granularity = "port"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == GranularityRouter || g == GranularityPort
}

func (g *Granularity) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	if !Granularity(s).Valid() {
		return fmt.Errorf("invalid granularity %q", s)
	}

	*g = Granularity(s)
	return nil
}

// ScenarioMode selects how attack scenarios are enumerated.
type ScenarioMode string

const (
	// ScenarioModeEdges pairs every router with the mesh edge routers in its row and column.
	ScenarioModeEdges ScenarioMode = "edges"

	// ScenarioModeExplicit uses the configured scenario pairs.
	ScenarioModeExplicit ScenarioMode = "explicit"
)

// Valid reports whether m is a known scenario mode.
func (m ScenarioMode) Valid() bool {
	return m == ScenarioModeEdges || m == ScenarioModeExplicit
}

func (m *ScenarioMode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	if !ScenarioMode(s).Valid() {
		return fmt.Errorf("invalid scenario mode %q", s)
	}

	*m = ScenarioMode(s)
	return nil
}
