// Package monitoring holds the diagnostic logger shared by the elevation,
// validation, and export packages.
package monitoring

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// RotatingLog describes a size-rotated log file.
type RotatingLog struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

// OpenRotatingLog routes the standard logger (and therefore the default
// Logf) to stderr and a rotating file. The returned closer flushes and
// closes the file; the standard logger keeps writing to stderr afterwards.
func OpenRotatingLog(cfg RotatingLog) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, err
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, lj))
	return closerFunc(func() error {
		log.SetOutput(os.Stderr)
		return lj.Close()
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
