package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoExperiments       = errors.New("no experiments")
	ErrDuplicateExperiment = errors.New("duplicate experiment name")
	ErrInvalidRunConfig    = errors.New("invalid run config")
)

// ParallelExperiment builds a fresh environment and policy for every run
type ParallelExperiment struct {
	Name        string
	Environment EnvironmentConstructor
	Policy      PolicyConstructor
}

// DataSet is whatever an analyzer collects over a run; comparators type assert it
type DataSet interface{}

// Analyzer sees every finished episode of one experiment in one run
type Analyzer interface {
	Analyze(*EpisodeContext, *Trace)
	DataSet() DataSet
	Reset()
}

type AnalyzerConstructor interface {
	// new analyzer based on experiment name and instance
	NewAnalyzer(string, int) Analyzer
}

// Comparator receives the datasets of all experiments of a run, ordered by experiment name.
// A failed experiment contributes a nil dataset.
type Comparator interface {
	Compare([]string, []DataSet)
}

type ComparatorConstructor interface {
	NewComparator(int) Comparator
}

type ParallelComparison struct {
	Experiments []*ParallelExperiment
	Analyzers   map[string]AnalyzerConstructor
	Comparators map[string]ComparatorConstructor
}

type RunConfig struct {
	Episodes int
	// Horizon is the maximum number of steps of an episode
	Horizon int
	// EpisodeTimeout of 0 disables the timeout
	EpisodeTimeout time.Duration

	ThresholdConsecutiveErrors   int
	ThresholdConsecutiveTimeouts int
}

func (r *RunConfig) Validate() error {
	switch {
	case r.Episodes < 1:
		return fmt.Errorf("%w: episodes must be positive, got %d", ErrInvalidRunConfig, r.Episodes)
	case r.Horizon < 1:
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidRunConfig, r.Horizon)
	case r.EpisodeTimeout < 0:
		return fmt.Errorf("%w: negative episode timeout", ErrInvalidRunConfig)
	case r.ThresholdConsecutiveErrors < 1 || r.ThresholdConsecutiveTimeouts < 1:
		return fmt.Errorf("%w: thresholds must be positive", ErrInvalidRunConfig)
	}
	return nil
}

func NewParallelComparison() *ParallelComparison {
	return &ParallelComparison{
		Analyzers:   make(map[string]AnalyzerConstructor),
		Comparators: make(map[string]ComparatorConstructor),
		Experiments: make([]*ParallelExperiment, 0),
	}
}

func (c *ParallelComparison) AddExperiment(e *ParallelExperiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *ParallelComparison) AddAnalysis(name string, a AnalyzerConstructor, cmp ComparatorConstructor) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}

// Validate checks that experiments exist and have distinct names, results are keyed by name
func (c *ParallelComparison) Validate() error {
	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		names[i] = e.Name
	}
	return checkNames(names)
}

func checkNames(names []string) error {
	if len(names) == 0 {
		return ErrNoExperiments
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("%w: %q", ErrDuplicateExperiment, name)
		}
		seen[name] = true
	}
	return nil
}

// Experiment is a single environment and policy pair, reused across runs
type Experiment struct {
	Name        string
	Environment Environment
	Policy      Policy
}

type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]Analyzer
	Comparators map[string]Comparator
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]Analyzer),
		Comparators: make(map[string]Comparator),
		Experiments: make([]*Experiment, 0),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a Analyzer, cmp Comparator) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}

func (c *Comparison) Validate() error {
	names := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		names[i] = e.Name
	}
	return checkNames(names)
}
