package gridworld

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/fourrooms/benchmarks/common"
	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/fourrooms"
)

func testConfig(seed uint64) fourrooms.Config {
	cfg := fourrooms.DefaultConfig()
	cfg.Seed = fourrooms.Uint64(seed)
	return cfg
}

// record plays actions through the adapter and collects the trace, resetting after terminal steps
func record(t *testing.T, env core.Environment, actions []fourrooms.Action) []*core.Trace {
	traces := []*core.Trace{core.NewTrace()}
	state, err := env.Reset()
	require.NoError(t, err)
	for _, a := range actions {
		next, reward, done, err := env.Step(MoveAction{Action: a}, nil)
		require.NoError(t, err)
		traces[len(traces)-1].AddStep(&core.Step{State: state, Action: MoveAction{Action: a}, NextState: next, Reward: reward, Done: done})
		state = next
		if done {
			state, err = env.Reset()
			require.NoError(t, err)
			traces = append(traces, core.NewTrace())
		}
	}
	return traces
}

func TestGridEnvAdapter(t *testing.T) {
	c, err := NewGridEnvConstructor(testConfig(7))
	require.NoError(t, err)

	env := c.NewEnvironment(0)
	s, err := env.Reset()
	require.NoError(t, err)
	assert.Len(t, s.Actions(), 4)
	g := s.(*GridState)
	assert.NotEqual(t, g.Obs.Position(), g.Obs.Goal())

	_, _, _, err = env.Step(MoveAction{Action: fourrooms.Up}, nil)
	assert.NoError(t, err)

	_, _, _, err = env.Step(nil, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
	_, _, _, err = env.Step(MoveAction{Action: fourrooms.Action(9)}, nil)
	assert.ErrorIs(t, err, fourrooms.ErrInvalidAction)
}

func TestGridEnvConstructorInstances(t *testing.T) {
	c, err := NewGridEnvConstructor(testConfig(7))
	require.NoError(t, err)

	actions := ActionSequence(1, 200)
	a := record(t, c.NewEnvironment(3), actions)
	b := record(t, c.NewEnvironment(3), actions)
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Len(), b[i].Len())
		for j := 0; j < a[i].Len(); j++ {
			assert.Equal(t, a[i].Step(j).NextState.Hash(), b[i].Step(j).NextState.Hash())
		}
	}

	first := c.NewEnvironment(0).(*GridEnv).Env()
	second := c.NewEnvironment(1).(*GridEnv).Env()
	assert.Same(t, first.Map(), second.Map())
	assert.Equal(t, uint64(8), second.LastSeed())
}

func TestGridEnvConstructorInvalid(t *testing.T) {
	cfg := testConfig(1)
	cfg.FailProb = 0.9
	_, err := NewGridEnvConstructor(cfg)
	assert.ErrorIs(t, err, fourrooms.ErrConfig)

	cfg = testConfig(1)
	cfg.MapText = "\nxxx\nx x\nxxx"
	_, err = NewGridEnvConstructor(cfg)
	assert.ErrorIs(t, err, fourrooms.ErrConfig)

	_, err = NewGridEnvConstructor(fourrooms.DefaultConfig())
	assert.ErrorIs(t, err, fourrooms.ErrConfig)
}

func TestInvariantsHoldOnRollout(t *testing.T) {
	cfg := testConfig(11)
	cfg.GoalDurationSteps = fourrooms.Int(3)
	c, err := NewGridEnvConstructor(cfg)
	require.NoError(t, err)

	traces := record(t, c.NewEnvironment(0), ActionSequence(2, 2000))
	for _, inv := range Invariants(c.Map()) {
		for i, tr := range traces {
			assert.True(t, inv.Check(tr), "%s broken on episode %d", inv.Name, i)
		}
	}
}

func TestInvariantsCatchViolations(t *testing.T) {
	grid := fourrooms.DefaultMap()

	overlap := core.NewTrace()
	overlap.AddStep(&core.Step{
		State:     &GridState{Obs: fourrooms.Observation{1, 1, 1, 3}},
		NextState: &GridState{Obs: fourrooms.Observation{1, 2, 1, 2}},
	})
	assert.False(t, NoOverlap().Check(overlap))
	assert.True(t, TerminalOnGoal().Check(overlap))

	unpaid := core.NewTrace()
	unpaid.AddStep(&core.Step{
		State:     &GridState{Obs: fourrooms.Observation{1, 1, 1, 2}},
		NextState: &GridState{Obs: fourrooms.Observation{1, 2, 1, 2}, Done: true},
		Done:      true,
	})
	assert.False(t, TerminalOnGoal().Check(unpaid))
	assert.True(t, NoOverlap().Check(unpaid))

	wall := core.NewTrace()
	wall.AddStep(&core.Step{
		State:     &GridState{Obs: fourrooms.Observation{1, 1, 1, 2}},
		NextState: &GridState{Obs: fourrooms.Observation{0, 0, 1, 2}},
	})
	assert.False(t, InBounds(grid).Check(wall))
}

func TestVerify(t *testing.T) {
	cfg := testConfig(21)
	h1, err := VerifyDeterminism(cfg, 500)
	require.NoError(t, err)
	h2, err := VerifyDeterminism(cfg, 500)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := VerifyDeterminism(testConfig(22), 500)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	cfg.GoalDurationSteps = fourrooms.Int(5)
	_, err = VerifySnapshot(cfg, 250, 500)
	assert.NoError(t, err)

	_, err = VerifyDeterminism(fourrooms.DefaultConfig(), 10)
	assert.ErrorIs(t, err, fourrooms.ErrConfig)
}

func TestPrepareComparison(t *testing.T) {
	flags := common.DefaultFlags()
	flags.SavePath = t.TempDir()
	flags.Episodes = 5
	flags.Horizon = 50
	flags.Seed = 3
	flags.EpisodeTimeout = 0

	cmp, err := PrepareComparison(flags)
	require.NoError(t, err)
	results := cmp.Run(context.Background(), 1, flags.RunConfig(), 2)
	require.Len(t, results, 1)
	require.Len(t, results[0], 3)
	for name, r := range results[0] {
		assert.NoError(t, r.Error, name)
		assert.Equal(t, 5, r.CompletedEpisodes, name)
		assert.Empty(t, r.Datasets["Violations"], name)
	}
	_, err = os.Stat(filepath.Join(flags.SavePath, "0", "returns_summary.json"))
	assert.NoError(t, err)

	flags.GoalEpisodes = "never"
	_, err = PrepareComparison(flags)
	assert.Error(t, err)
}

func TestPlay(t *testing.T) {
	dir := t.TempDir()
	out := new(bytes.Buffer)
	opts := PlayOptions{
		Config:     testConfig(5),
		Episodes:   3,
		Horizon:    40,
		Epsilon:    0.2,
		RecordPath: filepath.Join(dir, "qtable.jsonl"),
		Out:        out,
	}
	result, err := Play(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Episodes)
	assert.LessOrEqual(t, result.Steps, 120)
	assert.Equal(t, float64(result.Reached), result.Return)
	assert.Contains(t, out.String(), "Episodes: 3")

	opts.LoadPath = opts.RecordPath
	opts.RecordPath = ""
	_, err = Play(context.Background(), opts)
	assert.NoError(t, err)
}

func TestPlayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Play(ctx, PlayOptions{
		Config:   testConfig(5),
		Episodes: 1,
		Horizon:  10,
		Delay:    time.Millisecond,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
