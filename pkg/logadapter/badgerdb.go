package logadapter

import (
	"strings"

	"go.uber.org/zap"
)

// BadgerLogger routes BadgerDB's log output into a zap logger.
// It implements badger.Logger.
type BadgerLogger struct {
	sugar *zap.SugaredLogger
}

// NewBadgerLogger creates a new BadgerLogger.
// All entries get a "component" field with the value "badger".
func NewBadgerLogger(logger *zap.Logger) *BadgerLogger {
	return &BadgerLogger{
		sugar: logger.With(zap.String("component", "badger")).Sugar(),
	}
}

// BadgerDB terminates most of its log templates with a newline.
func trim(template string) string {
	return strings.TrimSuffix(template, "\n")
}

func (l *BadgerLogger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(trim(template), args...)
}

func (l *BadgerLogger) Warningf(template string, args ...interface{}) {
	l.sugar.Warnf(trim(template), args...)
}

func (l *BadgerLogger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(trim(template), args...)
}

func (l *BadgerLogger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(trim(template), args...)
}
