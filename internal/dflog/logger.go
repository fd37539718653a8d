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

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	CoreLogger *zap.SugaredLogger
	JobLogger  *zap.SugaredLogger

	coreLogLevelEnabler zapcore.LevelEnabler
	levels              []zap.AtomicLevel
)

func init() {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	log, err := config.Build(zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1))
	if err == nil {
		sugar := log.Sugar()
		SetCoreLogger(sugar)
		SetJobLogger(sugar)
	}
	levels = append(levels, config.Level)
}

// SetLevel updates all log level
func SetLevel(level zapcore.Level) {
	Infof("change log level to %s", level.String())
	for _, l := range levels {
		l.SetLevel(level)
	}
}

func SetCoreLogger(log *zap.SugaredLogger) {
	CoreLogger = log
	coreLogLevelEnabler = log.Desugar().Core()
}

func SetJobLogger(log *zap.SugaredLogger) {
	JobLogger = log
}

// SugaredLoggerOnWith carries structured fields. It writes to the core
// logger unless it was bound to its own logger.
type SugaredLoggerOnWith struct {
	log      *zap.SugaredLogger
	withArgs []any
}

func With(args ...any) *SugaredLoggerOnWith {
	return &SugaredLoggerOnWith{
		withArgs: args,
	}
}

func WithRun(runID string) *SugaredLoggerOnWith {
	return &SugaredLoggerOnWith{
		withArgs: []any{"runID", runID},
	}
}

func WithStage(stage string) *SugaredLoggerOnWith {
	return &SugaredLoggerOnWith{
		withArgs: []any{"stage", stage},
	}
}

func WithWorker(stage string, workerID int) *SugaredLoggerOnWith {
	return &SugaredLoggerOnWith{
		withArgs: []any{"stage", stage, "worker", workerID},
	}
}

func (log *SugaredLoggerOnWith) With(args ...any) *SugaredLoggerOnWith {
	args = append(args, log.withArgs...)
	return &SugaredLoggerOnWith{
		log:      log.log,
		withArgs: args,
	}
}

// WithBenchmark tags log lines with the benchmark being processed.
func (log *SugaredLoggerOnWith) WithBenchmark(benchmark string) *SugaredLoggerOnWith {
	return log.With("benchmark", benchmark)
}

func (log *SugaredLoggerOnWith) logger() (*zap.SugaredLogger, zapcore.LevelEnabler) {
	if log.log != nil {
		return log.log, log.log.Desugar().Core()
	}

	return CoreLogger, coreLogLevelEnabler
}

func (log *SugaredLoggerOnWith) Infof(template string, args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.InfoLevel) {
		return
	}
	l.Infow(fmt.Sprintf(template, args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Info(args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.InfoLevel) {
		return
	}
	l.Infow(fmt.Sprint(args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Warnf(template string, args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.WarnLevel) {
		return
	}
	l.Warnw(fmt.Sprintf(template, args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Warn(args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.WarnLevel) {
		return
	}
	l.Warnw(fmt.Sprint(args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Errorf(template string, args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.ErrorLevel) {
		return
	}
	l.Errorw(fmt.Sprintf(template, args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Error(args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.ErrorLevel) {
		return
	}
	l.Errorw(fmt.Sprint(args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Debugf(template string, args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.DebugLevel) {
		return
	}
	l.Debugw(fmt.Sprintf(template, args...), log.withArgs...)
}

func (log *SugaredLoggerOnWith) Debug(args ...any) {
	l, enabler := log.logger()
	if !enabler.Enabled(zap.DebugLevel) {
		return
	}
	l.Debugw(fmt.Sprint(args...), log.withArgs...)
}

// Sync flushes a bound logger.
func (log *SugaredLoggerOnWith) Sync() error {
	if log.log == nil {
		return nil
	}

	return log.log.Sync()
}

func Infof(template string, args ...any) {
	CoreLogger.Infof(template, args...)
}

func Info(args ...any) {
	CoreLogger.Info(args...)
}

func Warnf(template string, args ...any) {
	CoreLogger.Warnf(template, args...)
}

func Warn(args ...any) {
	CoreLogger.Warn(args...)
}

func Errorf(template string, args ...any) {
	CoreLogger.Errorf(template, args...)
}

func Error(args ...any) {
	CoreLogger.Error(args...)
}

func Debugf(template string, args ...any) {
	CoreLogger.Debugf(template, args...)
}

func Debug(args ...any) {
	CoreLogger.Debug(args...)
}

func Fatalf(template string, args ...any) {
	CoreLogger.Fatalf(template, args...)
}

func Fatal(args ...any) {
	CoreLogger.Fatal(args...)
}
