package gridworld

import (
	"log"
	"os"

	"github.com/zeu5/fourrooms/analysis"
	"github.com/zeu5/fourrooms/benchmarks/common"
	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/policies"
)

// PrepareComparison sets up the random, softmax and epsilon greedy learners on the configured grid
func PrepareComparison(flags *common.Flags) (*core.ParallelComparison, error) {
	cfg, err := flags.EnvConfig(flags.Seed)
	if err != nil {
		return nil, err
	}
	envConstructor, err := NewGridEnvConstructor(cfg)
	if err != nil {
		return nil, err
	}

	cmp := core.NewParallelComparison()
	cmp.AddAnalysis("Returns", analysis.NewReturnsAnalyzerConstructor(), analysis.NewReturnsComparatorConstructor(flags.SavePath, os.Stdout))
	cmp.AddAnalysis("Coverage", analysis.NewCoverageAnalyzerConstructor(), analysis.NewCoverageComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NewNoOpComparatorConstructor())
	cmp.AddAnalysis(
		"Violations",
		analysis.NewViolationAnalyzerConstructor(flags.SavePath, Invariants(envConstructor.Map())...),
		analysis.NewViolationComparatorConstructor(func(experiment string, counts map[string]int) {
			log.Printf("[fourrooms] %s violated invariants: %v", experiment, counts)
		}),
	)
	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, flags.Episodes-10), analysis.NewNoOpComparatorConstructor())
	}

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envConstructor,
		Policy:      &policies.RandomPolicyConstructor{Seed: flags.Seed},
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "SoftMax",
		Environment: envConstructor,
		Policy:      policies.NewSoftMaxPolicyConstructor(0.1, 0.99, 0.5, flags.Seed),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "EpsilonGreedy",
		Environment: envConstructor,
		Policy:      policies.NewEpsilonGreedyPolicyConstructor(0.1, 0.99, 0.1, flags.Seed),
	})
	if err := cmp.Validate(); err != nil {
		return nil, err
	}
	return cmp, nil
}
