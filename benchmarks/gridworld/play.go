package gridworld

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/fourrooms"
	"github.com/zeu5/fourrooms/policies"
	"github.com/zeu5/fourrooms/util"
)

type PlayOptions struct {
	Config   fourrooms.Config
	Episodes int
	Horizon  int
	// Delay between drawn steps
	Delay   time.Duration
	Epsilon float64
	// LoadPath is a Q-table written by an earlier play, empty to start fresh
	LoadPath string
	// RecordPath receives the Q-table at the end, empty to skip
	RecordPath string
	Out        io.Writer
}

type PlayResult struct {
	Episodes int
	Reached  int
	Steps    int
	Return   float64
}

// Play trains an epsilon greedy learner on a single environment and draws every step
func Play(ctx context.Context, opts PlayOptions) (*PlayResult, error) {
	env, err := fourrooms.New(opts.Config)
	if err != nil {
		return nil, err
	}
	gEnv := NewGridEnv(env)
	policy := policies.NewEpsilonGreedyPolicy(0.1, 0.99, opts.Epsilon, env.LastSeed())
	if opts.LoadPath != "" {
		if err := policy.Load(opts.LoadPath); err != nil {
			return nil, err
		}
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	printer := util.NewTerminalPrinter(out, 100*time.Millisecond)
	board := printer.NewOutput()
	status := printer.NewOutput()
	printer.Start(ctx)
	defer printer.Stop()

	result := &PlayResult{}
	for episode := 0; episode < opts.Episodes; episode++ {
		eCtx := core.NewEpisodeContext(ctx)
		eCtx.Episode = episode
		eCtx.Horizon = opts.Horizon
		eCtx.Experiment = "play"
		policy.ResetEpisode(eCtx)

		state, err := gEnv.Reset()
		if err != nil {
			return result, err
		}
		draw(board, env)
		for step := 0; step < opts.Horizon; step++ {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}
			sCtx := &core.StepContext{Step: step, EpisodeContext: eCtx}
			action := policy.PickAction(sCtx, state, state.Actions())
			if action == nil {
				return result, core.ErrNoAction
			}
			next, reward, done, err := gEnv.Step(action, sCtx)
			if err != nil {
				return result, err
			}
			policy.UpdateStep(sCtx, state, action, next, reward)
			state = next
			result.Steps++
			result.Return += reward

			draw(board, env)
			status.Set(fmt.Sprintf("Episode %d/%d, Step %d, Reached: %d, Return: %.0f", episode+1, opts.Episodes, step+1, result.Reached, result.Return))
			if opts.Delay > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(opts.Delay):
				}
			}
			if done {
				result.Reached++
				break
			}
		}
		policy.UpdateEpisode(eCtx)
		result.Episodes++
	}
	status.Set(fmt.Sprintf("Episodes: %d, Reached: %d, Steps: %d, Return: %.0f", result.Episodes, result.Reached, result.Steps, result.Return))

	if opts.RecordPath != "" {
		if err := policy.Record(opts.RecordPath); err != nil {
			return result, err
		}
	}
	return result, nil
}

func draw(o *util.ParallelOutput, env *fourrooms.Env) {
	buf := new(bytes.Buffer)
	env.Render(buf)
	o.Set(buf.String())
}
