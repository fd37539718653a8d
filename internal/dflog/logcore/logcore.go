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

package logcore

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultRotateMaxSize is the default maximum size in megabytes of a log file.
	DefaultRotateMaxSize = 300

	// DefaultRotateMaxBackups is the default maximum number of old log files to keep.
	DefaultRotateMaxBackups = 50

	// DefaultRotateMaxAge is the default maximum number of days to retain old log files.
	DefaultRotateMaxAge = 7
)

const (
	encodeTimeFormat = "2006-01-02 15:04:05.000"
)

// RotateConfig is the rotation policy of a log file.
type RotateConfig struct {
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

// CreateLogger creates a json logger writing to a rotated file.
func CreateLogger(filePath string, rotate RotateConfig, compress bool, verbose bool) (*zap.Logger, zap.AtomicLevel, error) {
	if rotate.MaxSize <= 0 {
		rotate.MaxSize = DefaultRotateMaxSize
	}

	if rotate.MaxAge <= 0 {
		rotate.MaxAge = DefaultRotateMaxAge
	}

	if rotate.MaxBackups <= 0 {
		rotate.MaxBackups = DefaultRotateMaxBackups
	}

	rotateConfig := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    rotate.MaxSize,
		MaxAge:     rotate.MaxAge,
		MaxBackups: rotate.MaxBackups,
		LocalTime:  true,
		Compress:   compress,
	}
	syncer := zapcore.AddSync(rotateConfig)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(encodeTimeFormat)

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		syncer,
		level,
	)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.WarnLevel), zap.AddCallerSkip(1)), level, nil
}
