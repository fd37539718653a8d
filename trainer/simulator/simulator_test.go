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

package simulator

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nocsentry/nocsentry/trainer/config"
)

// writeScript writes an executable shell script standing in for the simulator.
func writeScript(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "noxim")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSimulator_New(t *testing.T) {
	assert := assert.New(t)
	s := New(config.New())
	assert.Equal(reflect.TypeOf(s).Elem().Name(), "simulator")
}

func TestSimulator_Args(t *testing.T) {
	tests := []struct {
		name   string
		mock   func(cfg *config.Config)
		expect string
	}{
		{
			name:   "default config",
			mock:   func(cfg *config.Config) {},
			expect: "-topology MESH -dimx 8 -dimy 8 -traffic table tt -features ff",
		},
		{
			name: "config and power files",
			mock: func(cfg *config.Config) {
				cfg.Mesh.DimX = 4
				cfg.Mesh.DimY = 2
				cfg.Simulator.ConfigFile = "my_config.yaml"
				cfg.Simulator.PowerFile = "power.yaml"
				cfg.Simulator.ExtraArgs = []string{"-sim", "10000"}
			},
			expect: "-topology MESH -dimx 4 -dimy 2 -traffic table tt -config my_config.yaml -power power.yaml -features ff -sim 10000",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.New()
			tc.mock(cfg)
			s := New(cfg).(*simulator)
			assert.Equal(t, tc.expect, strings.Join(s.args("tt", "ff"), " "))
		})
	}
}

func TestSimulator_Run(t *testing.T) {
	tests := []struct {
		name   string
		script string
		expect func(t *testing.T, featureFile, logFile string, err error)
	}{
		{
			name: "simulator writes features and log",
			script: `while [ $# -gt 0 ]; do
  if [ "$1" = "-features" ]; then echo "0, 1" > "$2"; fi
  shift
done
echo done`,
			expect: func(t *testing.T, featureFile, logFile string, err error) {
				assert := assert.New(t)
				assert.NoError(err)

				b, err := os.ReadFile(featureFile)
				assert.NoError(err)
				assert.Equal("0, 1\n", string(b))

				b, err = os.ReadFile(logFile)
				assert.NoError(err)
				assert.Equal("done\n", string(b))
			},
		},
		{
			name:   "simulator fails",
			script: "echo failed >&2; exit 3",
			expect: func(t *testing.T, featureFile, logFile string, err error) {
				assert := assert.New(t)
				assert.Error(err)

				b, err := os.ReadFile(logFile)
				assert.NoError(err)
				assert.Equal("failed\n", string(b))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.New()
			cfg.Simulator.Path = writeScript(t, tc.script)

			dir := t.TempDir()
			featureFile := filepath.Join(dir, "unparsed_features", "0_0_to_1_0_baseline")
			logFile := filepath.Join(dir, "logs", "0_0_to_1_0_baseline")
			err := New(cfg).Run(context.Background(), filepath.Join(dir, "tt"), featureFile, logFile)
			tc.expect(t, featureFile, logFile, err)
		})
	}
}

func TestWriteTrafficTables(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	benchmark := filepath.Join(dir, "x264")
	assert.NoError(os.WriteFile(benchmark, []byte("0\t1\t0.01\t0.01\n2\t3\t0.02\t0.02\n"), 0600))

	baseline := filepath.Join(dir, "traffic_tables", "0_0_to_7_0_baseline")
	attack := filepath.Join(dir, "traffic_tables", "0_0_to_7_0_attack")
	assert.NoError(WriteTrafficTables(benchmark, baseline, attack, AttackFlow(0, 7, 1)))

	b, err := os.ReadFile(baseline)
	assert.NoError(err)
	assert.Equal("0\t1\t0.01\t0.01\n2\t3\t0.02\t0.02\n", string(b))

	b, err = os.ReadFile(attack)
	assert.NoError(err)
	assert.Equal("0\t7\t1\t1\t1\t1000000\n0\t1\t0.01\t0.01\n2\t3\t0.02\t0.02\n", string(b))

	assert.Error(WriteTrafficTables(filepath.Join(dir, "missing"), baseline, attack, ""))
}

func TestAttackFlow(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("63\t0\t0.25\t0.25\t1\t1000000\n", AttackFlow(63, 0, 0.25))
}
