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
	"github.com/nocsentry/nocsentry/pkg/container/set"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/config"
	"github.com/nocsentry/nocsentry/trainer/storage"
)

// Scenario is an attack flow injected from Src to Dst.
type Scenario struct {
	Src mesh.Coordinate
	Dst mesh.Coordinate
}

func (s Scenario) String() string {
	return storage.Scenario(s.Src, s.Dst)
}

// Scenarios returns the attack scenarios of a run in enqueue order.
func Scenarios(cfg *config.ScenarioConfig, m *mesh.Mesh) []Scenario {
	if cfg.Mode == types.ScenarioModeExplicit {
		scenarios := set.NewSafeSet[Scenario]()
		for _, pair := range cfg.Pairs {
			s := Scenario{
				Src: mesh.Coordinate{X: pair.Src.X, Y: pair.Src.Y},
				Dst: mesh.Coordinate{X: pair.Dst.X, Y: pair.Dst.Y},
			}

			if s.Src != s.Dst {
				scenarios.Add(s)
			}
		}

		return scenarios.Values()
	}

	return edgeScenarios(m)
}

// edgeScenarios pairs every router with the edge routers of its row and
// column, in both directions.
func edgeScenarios(m *mesh.Mesh) []Scenario {
	scenarios := set.NewSafeSet[Scenario]()
	for _, r := range m.Routers() {
		partners := []mesh.Coordinate{
			{X: 0, Y: r.Y},
			{X: m.DimX() - 1, Y: r.Y},
			{X: r.X, Y: 0},
			{X: r.X, Y: m.DimY() - 1},
		}

		for _, p := range partners {
			if p == r {
				continue
			}

			scenarios.Add(Scenario{Src: r, Dst: p})
			scenarios.Add(Scenario{Src: p, Dst: r})
		}
	}

	return scenarios.Values()
}
