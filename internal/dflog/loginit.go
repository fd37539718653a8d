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

package logger

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nocsentry/nocsentry/internal/dflog/logcore"
)

const (
	// CoreLogFileName is the file name of core log.
	CoreLogFileName = "core.log"

	// JobLogFileName is the file name of job log.
	JobLogFileName = "job.log"
)

// LogRotateConfig is the rotation policy of log files.
type LogRotateConfig = logcore.RotateConfig

type logInitMeta struct {
	fileName             string
	setSugaredLoggerFunc func(*zap.SugaredLogger)
}

// InitPipeline initializes the core and job loggers of the pipeline.
func InitPipeline(verbose, console bool, dir string, rotate LogRotateConfig) error {
	if console {
		return createConsoleLogger(verbose)
	}

	logDir := filepath.Join(dir, "nocsentry")

	var meta = []logInitMeta{
		{
			fileName:             CoreLogFileName,
			setSugaredLoggerFunc: SetCoreLogger,
		},
		{
			fileName:             JobLogFileName,
			setSugaredLoggerFunc: SetJobLogger,
		},
	}

	return createFileLogger(verbose, meta, logDir, rotate)
}

// NewWorkerLogger returns a logger of one worker. When dir is empty the
// worker logs to the core logger, otherwise to dir/worker_<id>.
func NewWorkerLogger(verbose bool, dir string, rotate LogRotateConfig, stage string, workerID int) (*SugaredLoggerOnWith, error) {
	log := WithWorker(stage, workerID)
	if dir == "" {
		return log, nil
	}

	l, _, err := logcore.CreateLogger(filepath.Join(dir, fmt.Sprintf("worker_%d", workerID)), rotate, false, verbose)
	if err != nil {
		return nil, err
	}

	log.log = l.Sugar()
	return log, nil
}

func createConsoleLogger(verbose bool) error {
	levels = nil
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	sugar := log.Sugar()
	SetCoreLogger(sugar)
	SetJobLogger(sugar)
	levels = append(levels, config.Level)
	return nil
}

func createFileLogger(verbose bool, meta []logInitMeta, logDir string, rotate LogRotateConfig) error {
	levels = nil

	for _, m := range meta {
		log, level, err := logcore.CreateLogger(filepath.Join(logDir, m.fileName), rotate, false, verbose)
		if err != nil {
			return err
		}
		m.setSugaredLoggerFunc(log.Sugar())

		levels = append(levels, level)
	}

	return nil
}
