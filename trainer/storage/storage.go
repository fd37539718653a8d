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
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"

	"github.com/nocsentry/nocsentry/pkg/util/fileutils"
	"github.com/nocsentry/nocsentry/trainer/feature"
)

// ErrNotFound represents a feature or weights file that does not exist.
var ErrNotFound = errors.New("file not found")

// Storage is the interface used for storage.
type Storage interface {
	// Layout returns the layout of the work directory.
	Layout() *Layout

	// CreateBenchmark creates the directory tree of a benchmark and copies its traffic table.
	CreateBenchmark(string, string) error

	// ListBenchmarks returns the names of the benchmarks in the work directory.
	ListBenchmarks() ([]string, error)

	// TouchFeatures creates empty feature files, existing files are kept.
	TouchFeatures([]string) error

	// CreateFeatures appends annotated records to a feature file under a file lock.
	CreateFeatures(string, []feature.AnnotatedRecord) error

	// ListFeatures returns the annotated records of a feature file.
	ListFeatures(string) ([]feature.AnnotatedRecord, error)

	// ConcatFeatures overwrites a feature file with the given feature files, missing files
	// are skipped. It returns the number of files used.
	ConcatFeatures(string, []string) (int, error)

	// CreateWeight appends a model to the weights file under a file lock.
	CreateWeight(Weight) error

	// ListWeights returns the models of a weights file.
	ListWeights(string) ([]Weight, error)

	// CreateAccuracy appends an accuracy line to the accuracy report under a file lock.
	CreateAccuracy(Accuracy) error

	// CreateReport appends an accuracy line to an evaluation report under a file lock.
	CreateReport(string, Accuracy) error

	// CreateNetAccuracy appends the run wide accuracy line to a report under a file lock.
	CreateNetAccuracy(string, Accuracy) error

	// Remove removes a report or feature file, missing files are ignored.
	Remove(string) error

	// Clear removes the work directory.
	Clear() error
}

type storage struct {
	layout *Layout
}

// New returns a new Storage instance.
func New(workDir string) Storage {
	return &storage{layout: NewLayout(workDir)}
}

// Layout returns the layout of the work directory.
func (s *storage) Layout() *Layout {
	return s.layout
}

// CreateBenchmark creates the directory tree of a benchmark and copies its traffic table.
func (s *storage) CreateBenchmark(name, trafficTable string) error {
	for _, dir := range s.layout.BenchmarkDirs(name) {
		if err := fileutils.MkdirAll(dir); err != nil {
			return err
		}
	}

	if _, err := fileutils.CopyFile(s.layout.BenchmarkTrafficTable(name), trafficTable); err != nil {
		return err
	}

	return nil
}

// ListBenchmarks returns the names of the benchmarks in the work directory, a
// benchmark is a directory holding per port features.
func (s *storage) ListBenchmarks() ([]string, error) {
	entries, err := os.ReadDir(s.layout.WorkDir())
	if err != nil {
		return nil, err
	}

	var benchmarks []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if fileutils.IsDir(filepath.Join(s.layout.Benchmark(entry.Name()), PerPortFeaturesDir)) {
			benchmarks = append(benchmarks, entry.Name())
		}
	}

	sort.Strings(benchmarks)
	return benchmarks, nil
}

// TouchFeatures creates empty feature files, existing files are kept.
func (s *storage) TouchFeatures(paths []string) error {
	for _, path := range paths {
		if err := fileutils.Touch(path); err != nil {
			return err
		}
	}

	return nil
}

// CreateFeatures appends annotated records to a feature file under a file lock.
func (s *storage) CreateFeatures(path string, records []feature.AnnotatedRecord) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, record := range records {
		buf.WriteString(record.String())
		buf.WriteByte('\n')
	}

	return fileutils.AppendLocked(path, buf.Bytes())
}

// ListFeatures returns the annotated records of a feature file.
func (s *storage) ListFeatures(path string) ([]feature.AnnotatedRecord, error) {
	var records []feature.AnnotatedRecord
	if err := unmarshalFile(path, &records); err != nil {
		return nil, err
	}

	return records, nil
}

// ConcatFeatures overwrites dst with the content of srcs in order, missing
// sources are skipped.
func (s *storage) ConcatFeatures(dst string, srcs []string) (int, error) {
	out, err := fileutils.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	used := 0
	for _, src := range srcs {
		in, err := os.Open(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return used, err
		}

		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			return used, err
		}
		used++
	}

	return used, nil
}

// CreateWeight appends a model to the weights file under a file lock.
func (s *storage) CreateWeight(w Weight) error {
	return fileutils.AppendLocked(s.layout.Weights(), []byte(w.String()+"\n"))
}

// ListWeights returns the models of a weights file.
func (s *storage) ListWeights(path string) ([]Weight, error) {
	var rows []weightRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	weights := make([]Weight, 0, len(rows))
	for _, row := range rows {
		weights = append(weights, row.weight())
	}

	return weights, nil
}

// CreateAccuracy appends an accuracy line to the accuracy report under a file lock.
func (s *storage) CreateAccuracy(a Accuracy) error {
	return fileutils.AppendLocked(s.layout.AccuracyReport(), []byte(fmt.Sprintf("%s\t: %s\n", a.Job, a.Values())))
}

// CreateReport appends an accuracy line to an evaluation report under a file lock.
func (s *storage) CreateReport(path string, a Accuracy) error {
	return fileutils.AppendLocked(path, []byte(fmt.Sprintf("%s\t:\t%s\n", a.Job, a.Values())))
}

// CreateNetAccuracy appends the run wide accuracy line to a report under a file lock.
func (s *storage) CreateNetAccuracy(path string, a Accuracy) error {
	return fileutils.AppendLocked(path, []byte(fmt.Sprintf("Net:\t%s\n", a.Values())))
}

// Remove removes a report or feature file, missing files are ignored.
func (s *storage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// Clear removes the work directory.
func (s *storage) Clear() error {
	return os.RemoveAll(s.layout.WorkDir())
}

// unmarshalFile decodes a headerless comma separated file into out. Empty
// files decode to nothing, missing files fail with ErrNotFound.
func unmarshalFile(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}

		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	if err := gocsv.UnmarshalCSVWithoutHeaders(reader, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}

		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}
