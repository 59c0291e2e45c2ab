package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/zeu5/fourrooms/core"
)

type PrintDebugAnalyzer struct {
	// savePath is the path to save the trace
	savePath string
	exp      string
	// will save the trace to the file only after the episode number exceeds this threshold
	thresholdEpisode int
}

var _ core.Analyzer = &PrintDebugAnalyzer{}

func NewPrintDebugAnalyzer(savePath string, threshold int) *PrintDebugAnalyzer {
	// create a traces directory under save path if not exists
	if _, err := os.Stat(path.Join(savePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(savePath, "traces"), 0755)
	}
	return &PrintDebugAnalyzer{
		savePath:         path.Join(savePath, "traces"),
		thresholdEpisode: threshold,
	}
}

func (a *PrintDebugAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	if ctx.Episode < a.thresholdEpisode {
		return
	}
	fileName := fmt.Sprintf("%d_trace_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_trace_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	file := path.Join(a.savePath, fileName)
	os.WriteFile(file, []byte(traceToString(trace)), 0644)
}

func traceToString(trace *core.Trace) string {
	buf := new(bytes.Buffer)
	for i := 0; i < trace.Len(); i++ {
		buf.WriteString(fmt.Sprintf("Step %d\n%s\n", i, stepToString(trace.Step(i))))
	}
	return buf.String()
}

func stepToString(step *core.Step) string {
	return fmt.Sprintf(
		"State: %s\nAction: %s\nNext State: %s\nReward: %v Done: %v\n",
		stateToString(step.State),
		actionToString(step.Action),
		stateToString(step.NextState),
		step.Reward,
		step.Done,
	)
}

func stateToString(state core.State) string {
	if state == nil {
		return "<nil>"
	}
	if s, ok := state.(fmt.Stringer); ok {
		return s.String()
	}
	return state.Hash()
}

func actionToString(action core.Action) string {
	if action == nil {
		return "<nil>"
	}
	if a, ok := action.(fmt.Stringer); ok {
		return a.String()
	}
	return action.Hash()
}

func (a *PrintDebugAnalyzer) DataSet() core.DataSet {
	return nil
}

func (a *PrintDebugAnalyzer) Reset() {
	// do nothing
}

type PrintDebugAnalyzerConstructor struct {
	SavePath         string
	ThresholdEpisode int
}

var _ core.AnalyzerConstructor = &PrintDebugAnalyzerConstructor{}

func NewPrintDebugAnalyzerConstructor(savePath string, thresholdEpisode int) *PrintDebugAnalyzerConstructor {
	return &PrintDebugAnalyzerConstructor{
		SavePath:         savePath,
		ThresholdEpisode: thresholdEpisode,
	}
}

func (c *PrintDebugAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	if _, err := os.Stat(path.Join(c.SavePath, "traces")); os.IsNotExist(err) {
		os.MkdirAll(path.Join(c.SavePath, "traces"), 0755)
	}
	return &PrintDebugAnalyzer{
		savePath:         path.Join(c.SavePath, "traces"),
		exp:              exp,
		thresholdEpisode: c.ThresholdEpisode,
	}
}
