// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	LogContainer     logContainer
	loggerInit       sync.Once
	simpleLoggerInit sync.Once
)

type logContainer struct {
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger
	logFile      string
	level        zapcore.Level
}

// SetLogFile adds a JSON log at path next to the console output. It has no
// effect once a logger has been handed out.
func (l *logContainer) SetLogFile(path string) {
	l.logFile = path
}

// SetDebug lowers the level of all cores to debug. It has no effect once a
// logger has been handed out.
func (l *logContainer) SetDebug(debug bool) {
	if debug {
		l.level = zapcore.DebugLevel
	} else {
		l.level = zapcore.InfoLevel
	}
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(l.getCombinedCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = l.GetLogger().Sugar()
	})
	return l.simpleLogger
}

// String mirrors zap.String
func (l *logContainer) String(key string, val string) zap.Field {
	return zap.String(key, val)
}

// Int mirrors zap.Int
func (l *logContainer) Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Uint32 mirrors zap.Uint32
func (l *logContainer) Uint32(key string, val uint32) zap.Field {
	return zap.Uint32(key, val)
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func (l *logContainer) getConsoleCore() zapcore.Core {
	return zapcore.NewCore(getConsoleEncoder(), zapcore.AddSync(os.Stderr), l.level)
}

func (l *logContainer) getCombinedCore() zapcore.Core {
	console := l.getConsoleCore()
	if l.logFile == "" {
		return console
	}
	f, err := os.OpenFile(l.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		zap.New(console).Sugar().Warnf("unable to open logfile, logging to the console only: %v", err)
		return console
	}
	return zapcore.NewTee(console, zapcore.NewCore(getJsonEncoder(), zapcore.AddSync(f), l.level))
}
