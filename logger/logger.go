// Copyright 2025 The lbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the minimal logging interface used by lbkit.
// The policy base logs reference-count transitions and shutdown progress
// through it; channels can plug in their own implementation.
package logger

import (
	"log"
	"os"
)

// Logger is the interface lbkit logs through.
type Logger interface {
	// Debugf logs a formatted message at debug level.
	Debugf(format string, args ...any)
	// Infof logs a formatted message at info level.
	Infof(format string, args ...any)
	// Warnf logs a formatted message at warn level.
	Warnf(format string, args ...any)
	// Errorf logs a formatted message at error level.
	Errorf(format string, args ...any)
}

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent // Disables all logging
)

// NewDefaultLogger creates a logger backed by Go's standard log package,
// emitting messages at or above the given level.
func NewDefaultLogger(level Level) Logger {
	return &defaultLogger{
		level:  level,
		logger: log.New(os.Stderr, "[lbkit] ", log.LstdFlags|log.Lmsgprefix),
	}
}

type defaultLogger struct {
	level  Level
	logger *log.Logger
}

func (l *defaultLogger) Debugf(format string, args ...any) {
	if l.level <= LevelDebug {
		l.logger.Printf("[DEBUG] "+format, args...)
	}
}

func (l *defaultLogger) Infof(format string, args ...any) {
	if l.level <= LevelInfo {
		l.logger.Printf("[INFO] "+format, args...)
	}
}

func (l *defaultLogger) Warnf(format string, args ...any) {
	if l.level <= LevelWarn {
		l.logger.Printf("[WARN] "+format, args...)
	}
}

func (l *defaultLogger) Errorf(format string, args ...any) {
	if l.level <= LevelError {
		l.logger.Printf("[ERROR] "+format, args...)
	}
}

// NopLogger is a Logger that discards all messages.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// NewNopLogger returns a logger that discards all messages.
func NewNopLogger() Logger {
	return NopLogger{}
}
