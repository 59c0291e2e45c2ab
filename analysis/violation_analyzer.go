package analysis

import (
	"fmt"
	"os"
	"path"

	"github.com/zeu5/fourrooms/core"
)

// Invariant is a named property every episode trace must satisfy
type Invariant struct {
	Name  string
	Check func(*core.Trace) bool
}

// ViolationAnalyzer writes every trace breaking an invariant to disk and counts them
type ViolationAnalyzer struct {
	invariants []Invariant
	savePath   string
	exp        string
	counts     map[string]int
}

var _ core.Analyzer = &ViolationAnalyzer{}

func NewViolationAnalyzer(savePath string, invariants ...Invariant) *ViolationAnalyzer {
	if _, err := os.Stat(path.Join(savePath, "violations")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "violations"), 0755)
	}
	return &ViolationAnalyzer{
		invariants: invariants,
		savePath:   path.Join(savePath, "violations"),
		counts:     make(map[string]int),
	}
}

func (va *ViolationAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	for _, inv := range va.invariants {
		if inv.Check(trace) {
			continue
		}
		va.counts[inv.Name]++
		fileName := path.Join(va.savePath, fmt.Sprintf("%d_%s_violation_%d.txt", eCtx.Run, inv.Name, eCtx.Episode))
		if va.exp != "" {
			fileName = path.Join(va.savePath, fmt.Sprintf("%d_%s_%s_violation_%d.txt", eCtx.Run, va.exp, inv.Name, eCtx.Episode))
		}
		os.WriteFile(fileName, []byte(traceToString(trace)), 0644)
	}
}

// DataSet maps invariant names to the number of violating episodes
func (va *ViolationAnalyzer) DataSet() core.DataSet {
	out := make(map[string]int)
	for k, v := range va.counts {
		out[k] = v
	}
	return out
}

func (va *ViolationAnalyzer) Reset() {
	va.counts = make(map[string]int)
}

type ViolationAnalyzerConstructor struct {
	SavePath   string
	Invariants []Invariant
}

var _ core.AnalyzerConstructor = &ViolationAnalyzerConstructor{}

func NewViolationAnalyzerConstructor(savePath string, invariants ...Invariant) *ViolationAnalyzerConstructor {
	return &ViolationAnalyzerConstructor{
		SavePath:   savePath,
		Invariants: invariants,
	}
}

func (e *ViolationAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewViolationAnalyzer(e.SavePath, e.Invariants...)
	a.exp = exp
	return a
}

// ViolationComparator reports every experiment with violations
type ViolationComparator struct {
	report func(experiment string, counts map[string]int)
}

var _ core.Comparator = &ViolationComparator{}

func (v *ViolationComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	for i, name := range experimentNames {
		counts, ok := datasets[i].(map[string]int)
		if !ok || len(counts) == 0 {
			continue
		}
		v.report(name, counts)
	}
}

type ViolationComparatorConstructor struct {
	report func(experiment string, counts map[string]int)
}

var _ core.ComparatorConstructor = &ViolationComparatorConstructor{}

func NewViolationComparatorConstructor(report func(experiment string, counts map[string]int)) *ViolationComparatorConstructor {
	return &ViolationComparatorConstructor{report: report}
}

func (v *ViolationComparatorConstructor) NewComparator(_ int) core.Comparator {
	return &ViolationComparator{report: v.report}
}
