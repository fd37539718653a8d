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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocsentry/nocsentry/pkg/mesh"
	"github.com/nocsentry/nocsentry/trainer/feature"
)

var (
	mockRecords = []feature.AnnotatedRecord{
		{
			Record: feature.Record{
				Cycle:               1000,
				BufferStatus:        2,
				CyclesSinceLastFlit: 0.4,
				StalledFlits:        1,
				TransmittedFlits:    13,
				BufferWaitingTime:   2.25,
			},
			Annotation: 0,
		},
		{
			Record: feature.Record{
				Cycle:               1001,
				BufferStatus:        4,
				CyclesSinceLastFlit: 0,
				StalledFlits:        12.6,
				TransmittedFlits:    20,
				BufferWaitingTime:   7.5,
			},
			Annotation: 1,
		},
	}

	mockRouterPort = mesh.RouterPort{Router: mesh.Coordinate{X: 1, Y: 2}, Port: mesh.South}
)

func TestStorage_New(t *testing.T) {
	tests := []struct {
		name    string
		workDir string
		expect  func(t *testing.T, s Storage)
	}{
		{
			name:    "new storage",
			workDir: os.TempDir(),
			expect: func(t *testing.T, s Storage) {
				assert := assert.New(t)
				assert.Equal(reflect.TypeOf(s).Elem().Name(), "storage")
				assert.Equal(os.TempDir(), s.Layout().WorkDir())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.expect(t, New(tc.workDir))
		})
	}
}

func TestStorage_CreateBenchmark(t *testing.T) {
	assert := assert.New(t)
	workDir := t.TempDir()
	trafficTable := filepath.Join(t.TempDir(), "blackscholes")
	require.NoError(t, os.WriteFile(trafficTable, []byte("0\t1\t0.01\t0.01\n"), 0600))

	s := New(workDir)
	assert.NoError(s.CreateBenchmark("blackscholes", trafficTable))
	assert.NoError(s.CreateBenchmark("blackscholes", trafficTable))

	for _, dir := range s.Layout().BenchmarkDirs("blackscholes") {
		info, err := os.Stat(dir)
		assert.NoError(err)
		assert.True(info.IsDir())
	}

	b, err := os.ReadFile(filepath.Join(workDir, "blackscholes", "blackscholes"))
	assert.NoError(err)
	assert.Equal("0\t1\t0.01\t0.01\n", string(b))

	assert.Error(s.CreateBenchmark("missing", filepath.Join(t.TempDir(), "missing")))
}

func TestStorage_ListBenchmarks(t *testing.T) {
	assert := assert.New(t)
	workDir := t.TempDir()
	s := New(workDir)

	for _, name := range []string{"x264", "blackscholes"} {
		assert.NoError(os.MkdirAll(filepath.Join(workDir, name, PerPortFeaturesDir), 0755))
	}
	assert.NoError(os.MkdirAll(filepath.Join(workDir, PerRouterFeaturesDir), 0755))
	assert.NoError(os.MkdirAll(filepath.Join(workDir, WorkerLogsDirPrefix+"train"), 0755))
	assert.NoError(os.WriteFile(filepath.Join(workDir, WeightsFileName), nil, 0600))

	benchmarks, err := s.ListBenchmarks()
	assert.NoError(err)
	assert.Equal([]string{"blackscholes", "x264"}, benchmarks)

	_, err = New(filepath.Join(workDir, "missing")).ListBenchmarks()
	assert.Error(err)
}

func TestStorage_ListFeatures(t *testing.T) {
	tests := []struct {
		name   string
		mock   func(t *testing.T, s Storage, path string)
		expect func(t *testing.T, records []feature.AnnotatedRecord, err error)
	}{
		{
			name: "empty csv file given",
			mock: func(t *testing.T, s Storage, path string) {
				if err := s.TouchFeatures([]string{path}); err != nil {
					t.Fatal(err)
				}
			},
			expect: func(t *testing.T, records []feature.AnnotatedRecord, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Empty(records)
			},
		},
		{
			name: "missing file given",
			mock: func(t *testing.T, s Storage, path string) {},
			expect: func(t *testing.T, records []feature.AnnotatedRecord, err error) {
				assert := assert.New(t)
				assert.True(errors.Is(err, ErrNotFound))
			},
		},
		{
			name: "records written by CreateFeatures",
			mock: func(t *testing.T, s Storage, path string) {
				if err := s.CreateFeatures(path, mockRecords[:1]); err != nil {
					t.Fatal(err)
				}

				if err := s.CreateFeatures(path, mockRecords[1:]); err != nil {
					t.Fatal(err)
				}

				if err := s.CreateFeatures(path, nil); err != nil {
					t.Fatal(err)
				}
			},
			expect: func(t *testing.T, records []feature.AnnotatedRecord, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Equal(mockRecords, records)
			},
		},
		{
			name: "malformed csv file given",
			mock: func(t *testing.T, s Storage, path string) {
				if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
					t.Fatal(err)
				}

				if err := os.WriteFile(path, []byte("1000, foo, 0, 0, 0, 0, 0\n"), 0600); err != nil {
					t.Fatal(err)
				}
			},
			expect: func(t *testing.T, records []feature.AnnotatedRecord, err error) {
				assert := assert.New(t)
				assert.Error(err)
				assert.False(errors.Is(err, ErrNotFound))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(t.TempDir())
			path := s.Layout().PortFeatures("blackscholes", mockRouterPort)
			tc.mock(t, s, path)

			records, err := s.ListFeatures(path)
			tc.expect(t, records, err)
		})
	}
}

func TestStorage_ConcatFeatures(t *testing.T) {
	assert := assert.New(t)
	s := New(t.TempDir())
	layout := s.Layout()

	first := layout.PortFeatures("blackscholes", mockRouterPort)
	second := layout.PortFeatures("blackscholes", mesh.RouterPort{Router: mesh.Coordinate{X: 1, Y: 2}, Port: mesh.Local})
	missing := layout.PortFeatures("blackscholes", mesh.RouterPort{Router: mesh.Coordinate{X: 1, Y: 2}, Port: mesh.North})
	assert.NoError(s.CreateFeatures(first, mockRecords[:1]))
	assert.NoError(s.CreateFeatures(second, mockRecords[1:]))

	dst := layout.RouterFeatures("blackscholes", RouterFeaturesName(mockRouterPort.Router, true))
	used, err := s.ConcatFeatures(dst, []string{first, missing, second})
	assert.NoError(err)
	assert.Equal(2, used)

	records, err := s.ListFeatures(dst)
	assert.NoError(err)
	assert.Equal(mockRecords, records)

	// A second merge overwrites the first one.
	used, err = s.ConcatFeatures(dst, []string{second})
	assert.NoError(err)
	assert.Equal(1, used)

	records, err = s.ListFeatures(dst)
	assert.NoError(err)
	assert.Equal(mockRecords[1:], records)
}

func TestStorage_Weights(t *testing.T) {
	assert := assert.New(t)
	s := New(t.TempDir())

	weights := []Weight{
		{RouterID: 10, Target: TargetIn, Bias: 0.5, Weights: []float64{1, -2.5, 0, 3e-05, 4}},
		{RouterID: 63, Target: TargetOut, Bias: -1, Weights: []float64{0, 0, 0, 0, 0}},
	}
	for _, w := range weights {
		assert.NoError(s.CreateWeight(w))
	}

	b, err := os.ReadFile(s.Layout().Weights())
	assert.NoError(err)
	assert.Equal("10, 1, 0.5, 1.0, -2.5, 0.0, 3e-05, 4.0\n63, 0, -1.0, 0.0, 0.0, 0.0, 0.0, 0.0\n", string(b))

	list, err := s.ListWeights(s.Layout().Weights())
	assert.NoError(err)
	assert.Equal(weights, list)

	_, err = s.ListWeights(filepath.Join(t.TempDir(), "missing"))
	assert.True(errors.Is(err, ErrNotFound))
}

func TestStorage_Accuracy(t *testing.T) {
	assert := assert.New(t)
	s := New(t.TempDir())

	assert.NoError(s.CreateAccuracy(Accuracy{Job: "0_0_in", Accuracy: 100, FalsePositives: 0, FalseNegatives: 0}))
	assert.NoError(s.CreateAccuracy(Accuracy{Job: "0_0_out", Accuracy: 87.5, FalsePositives: 12.5, FalseNegatives: 0}))
	assert.NoError(s.CreateNetAccuracy(s.Layout().AccuracyReport(), Accuracy{Accuracy: 93.75, FalsePositives: 6.25}))

	b, err := os.ReadFile(s.Layout().AccuracyReport())
	assert.NoError(err)
	assert.Equal("0_0_in\t: 100.0, 0.0, 0.0\n0_0_out\t: 87.5, 12.5, 0.0\nNet:\t93.75, 6.25, 0.0\n", string(b))

	report := Report(filepath.Join(s.Layout().WorkDir(), "feature_tester"), "x264")
	assert.NoError(s.CreateReport(report, Accuracy{Job: "3_3_out", Accuracy: 50, FalsePositives: 25, FalseNegatives: 25}))

	b, err = os.ReadFile(report)
	assert.NoError(err)
	assert.Equal("3_3_out\t:\t50.0, 25.0, 25.0\n", string(b))
}

func TestStorage_Remove(t *testing.T) {
	assert := assert.New(t)
	s := New(t.TempDir())

	assert.NoError(s.CreateWeight(Weight{RouterID: 1, Target: TargetIn, Weights: []float64{0, 0, 0, 0, 0}}))
	assert.NoError(s.Remove(s.Layout().Weights()))
	assert.NoError(s.Remove(s.Layout().Weights()))

	_, err := s.ListWeights(s.Layout().Weights())
	assert.True(errors.Is(err, ErrNotFound))
}

func TestStorage_Clear(t *testing.T) {
	assert := assert.New(t)
	workDir := filepath.Join(t.TempDir(), "work")
	s := New(workDir)

	assert.NoError(s.TouchFeatures([]string{s.Layout().PortFeatures("x264", mockRouterPort)}))
	assert.NoError(s.Clear())

	_, err := os.Stat(workDir)
	assert.True(os.IsNotExist(err))
}
