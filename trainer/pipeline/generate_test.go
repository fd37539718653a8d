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
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logger "github.com/nocsentry/nocsentry/internal/dflog"
	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/pkg/types"
	"github.com/nocsentry/nocsentry/trainer/feature"
	"github.com/nocsentry/nocsentry/trainer/simulator/mocks"
	"github.com/nocsentry/nocsentry/trainer/storage"
)

func TestPipeline_WritePortFeaturesPartial(t *testing.T) {
	assert := assert.New(t)
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	cfg := mockConfig(t, types.GranularityRouter)
	s := storage.New(cfg.Storage.WorkDir)
	p, err := New(cfg, s, mocks.NewMockSimulator(ctl))
	require.NoError(t, err)

	ports := []mesh.RouterPort{
		{Router: mesh.Coordinate{X: 0, Y: 0}, Port: mesh.Local},
		{Router: mesh.Coordinate{X: 1, Y: 0}, Port: mesh.West},
		{Router: mesh.Coordinate{X: 1, Y: 1}, Port: mesh.PE},
	}
	streams := make(map[mesh.RouterPort][]feature.AnnotatedRecord)
	for _, rp := range ports {
		streams[rp] = []feature.AnnotatedRecord{{Record: feature.Record{Cycle: 1}, Annotation: 1}}
	}

	// A directory in place of the second port file makes its append fail.
	require.NoError(t, os.MkdirAll(s.Layout().PortFeatures(mockBenchmark, ports[1]), 0755))

	logDir := filepath.Join(t.TempDir(), "worker_logs_gen")
	log, err := logger.NewWorkerLogger(false, logDir, logger.LogRotateConfig{}, types.GenerationStageName, 0)
	require.NoError(t, err)

	err = p.writePortFeatures(log, mockBenchmark, ports, streams)
	assert.Error(err)
	assert.Contains(err.Error(), ports[1].String())
	assert.NoError(log.Sync())

	records, err := s.ListFeatures(s.Layout().PortFeatures(mockBenchmark, ports[0]))
	assert.NoError(err)
	assert.Len(records, 1)

	_, err = os.Stat(s.Layout().PortFeatures(mockBenchmark, ports[2]))
	assert.True(os.IsNotExist(err))

	b, err := os.ReadFile(filepath.Join(logDir, "worker_0"))
	assert.NoError(err)
	assert.Contains(string(b), "after 1 of 3 ports were committed")
	assert.Contains(string(b), ports[0].String())
}
