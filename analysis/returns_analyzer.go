package analysis

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"

	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/util"
	"gonum.org/v1/gonum/stat"
)

type returnsDataset struct {
	Returns []float64
	Lengths []int
	Reached []bool
}

func (r *returnsDataset) Copy() *returnsDataset {
	out := &returnsDataset{
		Returns: make([]float64, len(r.Returns)),
		Lengths: util.CopyIntSlice(r.Lengths),
		Reached: make([]bool, len(r.Reached)),
	}
	copy(out.Returns, r.Returns)
	copy(out.Reached, r.Reached)
	return out
}

// ReturnsSummary aggregates a returns dataset
type ReturnsSummary struct {
	Episodes      int
	SuccessRate   float64
	MeanReturn    float64
	StdReturn     float64
	MeanLength    float64
	StdLength     float64
	MeanLastTenth float64
}

func (r *returnsDataset) Summary() ReturnsSummary {
	n := len(r.Returns)
	if n == 0 {
		return ReturnsSummary{}
	}
	lengths := make([]float64, n)
	reached := 0
	for i := range r.Lengths {
		lengths[i] = float64(r.Lengths[i])
		if r.Reached[i] {
			reached++
		}
	}
	s := ReturnsSummary{
		Episodes:    n,
		SuccessRate: float64(reached) / float64(n),
	}
	s.MeanReturn, s.StdReturn = meanStdDev(r.Returns)
	s.MeanLength, s.StdLength = meanStdDev(lengths)
	tenth := n / 10
	if tenth == 0 {
		tenth = 1
	}
	s.MeanLastTenth = stat.Mean(lengths[n-tenth:], nil)
	return s
}

// meanStdDev reports a zero deviation for a single sample instead of NaN
func meanStdDev(x []float64) (float64, float64) {
	if len(x) < 2 {
		return stat.Mean(x, nil), 0
	}
	return stat.MeanStdDev(x, nil)
}

// ReturnsAnalyzer records the return, length and success of every episode
type ReturnsAnalyzer struct {
	dataset *returnsDataset
}

var _ core.Analyzer = &ReturnsAnalyzer{}

func NewReturnsAnalyzer() *ReturnsAnalyzer {
	return &ReturnsAnalyzer{dataset: &returnsDataset{}}
}

func (r *ReturnsAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if trace.Error() != nil {
		return
	}
	r.dataset.Returns = append(r.dataset.Returns, trace.Return())
	r.dataset.Lengths = append(r.dataset.Lengths, trace.Len())
	r.dataset.Reached = append(r.dataset.Reached, trace.Terminated())
}

func (r *ReturnsAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

func (r *ReturnsAnalyzer) Reset() {
	r.dataset = &returnsDataset{}
}

type ReturnsAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &ReturnsAnalyzerConstructor{}

func NewReturnsAnalyzerConstructor() *ReturnsAnalyzerConstructor {
	return &ReturnsAnalyzerConstructor{}
}

func (r *ReturnsAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewReturnsAnalyzer()
}

// ReturnsComparator saves the raw datasets and a summary table per experiment
type ReturnsComparator struct {
	savePath string
	out      io.Writer
}

var _ core.Comparator = &ReturnsComparator{}

func NewReturnsComparator(savePath string, out io.Writer) *ReturnsComparator {
	return &ReturnsComparator{
		savePath: savePath,
		out:      out,
	}
}

func (r *ReturnsComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	raw := make(map[string]*returnsDataset)
	summaries := make(map[string]ReturnsSummary)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*returnsDataset)
		if !ok {
			continue
		}
		raw[name] = ds
		summaries[name] = ds.Summary()
	}
	util.SaveJson(path.Join(r.savePath, "returns.json"), raw)
	util.SaveJson(path.Join(r.savePath, "returns_summary.json"), summaries)

	if r.out == nil {
		return
	}
	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := summaries[name]
		fmt.Fprintf(
			r.out,
			"%-14s episodes=%d success=%.3f return=%.3f±%.3f length=%.1f±%.1f last10%%=%.1f\n",
			name, s.Episodes, s.SuccessRate, s.MeanReturn, s.StdReturn, s.MeanLength, s.StdLength, s.MeanLastTenth,
		)
	}
}

type ReturnsComparatorConstructor struct {
	savePath string
	out      io.Writer
}

var _ core.ComparatorConstructor = &ReturnsComparatorConstructor{}

func NewReturnsComparatorConstructor(savePath string, out io.Writer) *ReturnsComparatorConstructor {
	return &ReturnsComparatorConstructor{
		savePath: savePath,
		out:      out,
	}
}

func (r *ReturnsComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewReturnsComparator(path.Join(r.savePath, strconv.Itoa(run)), r.out)
}
