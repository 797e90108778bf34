package core

import (
	"runtime"

	"github.com/pkg/errors"
)

const (
	// MaxWorkers bounds Config.Workers.
	MaxWorkers = 1024

	defaultPoolName = "pool"
)

// Config holds configuration options for ThreadPool.
// All handlers are optional; if not provided, default implementations will be used.
type Config struct {
	// Name labels logs, metrics and stats. Defaults to "pool".
	Name string

	// Workers is the number of worker goroutines. Defaults to runtime.NumCPU().
	Workers int

	// HistoryCapacity is how many handled units RecentTasks remembers.
	HistoryCapacity int

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a spawn is refused. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler

	// Logger receives lifecycle messages. Defaults to DefaultLogger.
	Logger Logger
}

// DefaultConfig returns a config with default handlers.
func DefaultConfig() *Config {
	logger := NewDefaultLogger()
	return &Config{
		Name:                defaultPoolName,
		Workers:             runtime.NumCPU(),
		HistoryCapacity:     defaultTaskHistoryCapacity,
		PanicHandler:        &DefaultPanicHandler{Logger: logger},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{Logger: logger},
		Logger:              logger,
	}
}

// Validate reports configuration values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Workers > MaxWorkers {
		return errors.Errorf("workers must not exceed %d, got %d", MaxWorkers, c.Workers)
	}
	if c.HistoryCapacity < 0 {
		return errors.Errorf("history capacity must not be negative, got %d", c.HistoryCapacity)
	}
	return nil
}

// withDefaults returns a copy of c with every zero field filled in. A nil
// config yields DefaultConfig().
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.Name == "" {
		out.Name = defaultPoolName
	}
	if out.Workers == 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.HistoryCapacity == 0 {
		out.HistoryCapacity = defaultTaskHistoryCapacity
	}
	if out.Logger == nil {
		out.Logger = NewDefaultLogger()
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{Logger: out.Logger}
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.RejectedTaskHandler == nil {
		out.RejectedTaskHandler = &DefaultRejectedTaskHandler{Logger: out.Logger}
	}
	return &out
}
