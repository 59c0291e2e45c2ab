package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gosuri/uilive"
)

var (
	ErrTooManyTimeouts = errors.New("too many timeouts")
	ErrTooManyErrors   = errors.New("too many errors")
	ErrNoAction        = errors.New("policy picked no action")
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer

	*RunConfig
}

type ExperimentResult struct {
	CompletedEpisodes  int
	TotalEpisodes      int
	ErrorEpisodes      int
	TimeoutEpisodes    int
	TotalTimeSteps     int
	TerminatedEpisodes int
	TotalReward        float64

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// RunResults maps experiment names to their result for one run
type RunResults map[string]*ExperimentResult

func (e *Experiment) runEpisode(ctx *experimentRunContext, eCtx *EpisodeContext) {
	e.Policy.ResetEpisode(eCtx)
	state, err := e.Environment.Reset()
	if err != nil {
		eCtx.Error(err)
		return
	}
	for step := 0; step < ctx.Horizon; step++ {
		select {
		case <-eCtx.Context.Done():
			endWithError(eCtx, eCtx.Context.Err())
			return
		default:
		}

		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		action := e.Policy.PickAction(sCtx, state, state.Actions())
		if action == nil {
			eCtx.Error(ErrNoAction)
			return
		}
		nextState, reward, done, err := e.Environment.Step(action, sCtx)
		if err != nil {
			endWithError(eCtx, err)
			return
		}
		e.Policy.UpdateStep(sCtx, state, action, nextState, reward)
		eCtx.Trace.AddStep(&Step{
			State:     state,
			Action:    action,
			NextState: nextState,
			Reward:    reward,
			Done:      done,
		})
		state = nextState
		if done {
			break
		}
	}
	e.Policy.UpdateEpisode(eCtx)
	eCtx.Finish()
}

// endWithError ends the episode as timed out when err comes from the episode deadline
func endWithError(eCtx *EpisodeContext, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		eCtx.Timeout()
		return
	}
	eCtx.Error(err)
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	if ctx.writer == nil {
		ctx.writer = io.Discard
	}
	e.Policy.Reset()

	consecutiveErrors := 0
	consecutiveTimeouts := 0
EpisodeLoop:
	for episode := 0; episode < ctx.Episodes; episode++ {
		select {
		case <-ctx.ctx.Done():
			result.Error = errors.New("context cancelled")
			break EpisodeLoop
		default:
		}

		fmt.Fprintf(
			ctx.writer,
			"Experiment: %s, Run %d, Timesteps: %d, Episode %d/%d, Reached: %d, Error: %d, Timedout: %d\n",
			e.Name, ctx.run, result.TotalTimeSteps, episode, ctx.Episodes, result.TerminatedEpisodes, result.ErrorEpisodes, result.TimeoutEpisodes,
		)
		var episodeCtx context.Context
		var cancel context.CancelFunc
		if ctx.EpisodeTimeout > 0 {
			episodeCtx, cancel = context.WithTimeout(ctx.ctx, ctx.EpisodeTimeout)
		} else {
			episodeCtx, cancel = context.WithCancel(ctx.ctx)
		}
		eCtx := NewEpisodeContext(episodeCtx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.Experiment = e.Name
		eCtx.StartTimeStep = result.TotalTimeSteps

		// the environment is only touched by this goroutine until Done
		go e.runEpisode(ctx, eCtx)
		<-eCtx.Done()
		cancel()

		errorred := eCtx.IsError()
		timedout := eCtx.IsTimeout()

		if errorred {
			result.ErrorEpisodes++
			if consecutiveErrors++; consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
			}
		} else {
			consecutiveErrors = 0
		}
		if timedout {
			result.TimeoutEpisodes++
			if consecutiveTimeouts++; consecutiveTimeouts >= ctx.ThresholdConsecutiveTimeouts {
				result.Error = ErrTooManyTimeouts
			}
		} else {
			consecutiveTimeouts = 0
		}

		if !errorred && !timedout {
			result.TotalTimeSteps += eCtx.Trace.Len()
			result.TotalReward += eCtx.Trace.Return()
			result.CompletedEpisodes++
			if eCtx.Trace.Terminated() {
				result.TerminatedEpisodes++
			}
		}
		result.TotalEpisodes++

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
		if result.Error != nil {
			break EpisodeLoop
		}
	}
	if result.Error != nil {
		fmt.Fprintf(ctx.writer, "Experiment: %s, Run %d, Error: %v\n", e.Name, ctx.run, result.Error)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}

	e.Policy.Reset()
	return result
}

func compare(ctx context.Context, results RunResults, analyzerNames []string, comparators map[string]Comparator) {
	// sorted for a stable dataset order
	experimentNames := make([]string, 0, len(results))
	for name := range results {
		experimentNames = append(experimentNames, name)
	}
	sort.Strings(experimentNames)

	datasets := make(map[string][]DataSet)
	for _, expName := range experimentNames {
		result := results[expName]
		for _, name := range analyzerNames {
			if result.IsError() {
				datasets[name] = append(datasets[name], nil)
			} else {
				datasets[name] = append(datasets[name], result.Datasets[name])
			}
		}
	}
	for name, c := range comparators {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.Compare(experimentNames, datasets[name])
	}
}

func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) []RunResults {
	all := make([]RunResults, 0, runs)
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return all
		default:
		}

		results := make(RunResults)
		writer := uilive.New()
		writer.Start()

		// Run experiments
		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				writer.Stop()
				return all
			default:
			}
			eCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				writer:    writer,
				RunConfig: rConfig,
			}

			for name, aC := range c.Analyzers {
				aC.Reset()
				eCtx.analyzers[name] = aC
			}

			results[e.Name] = e.run(eCtx)
		}
		writer.Stop()

		analyzerNames := make([]string, 0)
		for name := range c.Analyzers {
			analyzerNames = append(analyzerNames, name)
		}
		compare(ctx, results, analyzerNames, c.Comparators)
		all = append(all, results)
	}
	return all
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	ctx        context.Context
	experiment *ParallelExperiment
	instance   int
	comp       *ParallelComparison
	runNumber  int
	writer     io.Writer
	rConfig    *RunConfig
	wg         *sync.WaitGroup
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	experimentName string
	run            int
	result         *ExperimentResult
}

// Worker main loop that consumes work from a channel. Cancellation is observed by
// the experiment itself so every queued work item is accounted for.
func (w *parallelWorker) run(workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for work := range workCh {
		resultsCh <- w.runWork(work)
		work.wg.Done()
	}
}

// Run an experiment by constructing the experiment context, *Experiment
func (w *parallelWorker) runWork(work *parallelWork) *parallelResult {
	eCtx := &experimentRunContext{
		run:       work.runNumber,
		ctx:       work.ctx,
		analyzers: make(map[string]Analyzer),
		writer:    work.writer,
		RunConfig: work.rConfig,
	}

	for name, aC := range work.comp.Analyzers {
		eCtx.analyzers[name] = aC.NewAnalyzer(work.experiment.Name, work.instance)
	}

	// Construct the experiment. Instances are numbered by run and experiment,
	// not by worker, so the outcome does not depend on scheduling.
	exp := &Experiment{
		Name:        work.experiment.Name,
		Environment: work.experiment.Environment.NewEnvironment(work.instance),
		Policy:      work.experiment.Policy.NewPolicy(work.instance),
	}

	return &parallelResult{
		experimentName: work.experiment.Name,
		run:            work.runNumber,
		result:         exp.run(eCtx),
	}
}

func (c *ParallelComparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) []RunResults {
	if parallelism < 1 {
		parallelism = 1
	}
	all := make([]RunResults, 0, runs)
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return all
		default:
		}
		// Create workers and channels
		wg := new(sync.WaitGroup)
		writer := uilive.New()
		writer.Start()
		fmt.Fprintf(writer, "Run %d\n", run)

		workCh := make(chan *parallelWork, parallelism)
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		// Start workers
		for i := 0; i < parallelism; i++ {
			w := &parallelWorker{id: i}
			go w.run(workCh, resultsCh)
		}

		// Run experiments by sending work to workers
		cancelled := false
		for i, e := range c.Experiments {
			wg.Add(1)
			select {
			case <-ctx.Done():
				wg.Done()
				cancelled = true
			case workCh <- &parallelWork{
				ctx:        ctx,
				experiment: e,
				instance:   run*len(c.Experiments) + i,
				comp:       c,
				runNumber:  run,
				rConfig:    rConfig,
				wg:         wg,
				writer:     writer.Newline(),
			}:
			}
			if cancelled {
				break
			}
		}
		close(workCh)

		// Wait for all work to finish
		wg.Wait()
		close(resultsCh)
		writer.Stop()

		results := make(RunResults)
		for r := range resultsCh {
			results[r.experimentName] = r.result
		}
		if cancelled {
			return all
		}

		analyzerNames := make([]string, 0)
		for name := range c.Analyzers {
			analyzerNames = append(analyzerNames, name)
		}
		comparators := make(map[string]Comparator)
		for name, cc := range c.Comparators {
			comparators[name] = cc.NewComparator(run)
		}
		compare(ctx, results, analyzerNames, comparators)
		all = append(all, results)
	}
	return all
}
