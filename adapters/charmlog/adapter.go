// Package charmlog backs the glog logger contracts with charmbracelet/log.
package charmlog

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	glog "github.com/goliatone/go-logger/glog"
)

type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level  string
	Prefix string
	JSON   bool
	// Timestamps adds a time column to every line.
	Timestamps bool
}

type Logger struct {
	base *log.Logger
}

func New(w io.Writer, opts Options) (*Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	level := log.InfoLevel
	if strings.TrimSpace(opts.Level) != "" {
		parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	charmOpts := log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
	}
	if opts.JSON {
		charmOpts.Formatter = log.JSONFormatter
	}
	return &Logger{base: log.NewWithOptions(w, charmOpts)}, nil
}

// Trace maps to debug; charmbracelet/log has no lower level.
func (l *Logger) Trace(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.base.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.base.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.base.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.base.Error(msg, args...) }
func (l *Logger) Fatal(msg string, args ...any) { l.base.Fatal(msg, args...) }

func (l *Logger) WithContext(context.Context) glog.Logger {
	return l
}

// WithFields returns a child logger carrying fields in key order.
func (l *Logger) WithFields(fields map[string]any) glog.Logger {
	if len(fields) == 0 {
		return l
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	keyvals := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		keyvals = append(keyvals, key, fields[key])
	}
	return &Logger{base: l.base.With(keyvals...)}
}

// Provider hands out loggers prefixed with their name.
type Provider struct {
	root *Logger
}

func NewProvider(root *Logger) *Provider {
	return &Provider{root: root}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.root == nil {
		return glog.Nop()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return p.root
	}
	return &Logger{base: p.root.base.WithPrefix(name)}
}
