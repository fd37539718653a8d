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

package dependency

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/config"
)

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		expect func(t *testing.T, cfg *config.Config, err error)
	}{
		{
			name: "typed values decoded from yaml",
			text: "verbose: true\nworker:\n  pollTimeout: 250ms\n  train: 3\ntraining:\n  granularity: port\nscenario:\n  mode: explicit\n",
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.True(cfg.Verbose)
				assert.Equal(250*time.Millisecond, cfg.Worker.PollTimeout)
				assert.Equal(3, cfg.Worker.Train)
				assert.Equal(types.GranularityPort, cfg.Training.Granularity)
				assert.Equal(types.ScenarioModeExplicit, cfg.Scenario.Mode)
				assert.Equal(config.DefaultMeshDimX, cfg.Mesh.DimX)
			},
		},
		{
			name: "invalid granularity",
			text: "training:\n  granularity: cluster\n",
			expect: func(t *testing.T, cfg *config.Config, err error) {
				assert := assert.New(t)
				assert.Error(err)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nocsentry.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.text), 0600))

			v := viper.New()
			v.Set("config", path)
			cfg := config.New()
			tc.expect(t, cfg, initConfig(v, true, "nocsentry", cfg))
		})
	}
}

func TestInitConfig_MissingFile(t *testing.T) {
	assert := assert.New(t)

	v := viper.New()
	v.Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(initConfig(v, true, "nocsentry", config.New()))

	// Without a config file the defaults are kept.
	cfg := config.New()
	assert.NoError(initConfig(viper.New(), false, "nocsentry", cfg))
	assert.Equal(config.New().Training, cfg.Training)
}
