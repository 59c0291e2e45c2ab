package fourrooms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T, modify func(*Config)) *Env {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = Uint64(42)
	if modify != nil {
		modify(&cfg)
	}
	env, err := New(cfg)
	require.NoError(t, err)
	return env
}

type record struct {
	Obs    Observation
	Reward float64
	Done   bool
	Reset  bool
}

// drive steps through the actions, resetting after every terminal step
func drive(t *testing.T, env *Env, actions []Action) []record {
	t.Helper()
	out := make([]record, 0, len(actions))
	for _, a := range actions {
		res, err := env.Step(a)
		require.NoError(t, err)
		out = append(out, record{Obs: res.Observation, Reward: res.Reward, Done: res.Done})
		if res.Done {
			out = append(out, record{Obs: env.Reset(), Reset: true})
		}
	}
	return out
}

func sampleActions(seed uint64, n int) []Action {
	sampler, _ := New(Config{FailProb: 0, Map: DefaultMap(), Seed: Uint64(seed)})
	out := make([]Action, n)
	for i := range out {
		out[i] = sampler.ActionSpace().Sample()
	}
	return out
}

// safeAction picks a move that does not end on the goal when there is no failure
func safeAction(env *Env) Action {
	pos, _ := env.Position()
	goal, _ := env.Goal()
	for a := Action(0); a < NumActions; a++ {
		if pos.Add(a.Delta()) != goal {
			return a
		}
	}
	return Up
}

func TestNewConfigErrors(t *testing.T) {
	cases := map[string]func(*Config){
		"negative fail prob": func(c *Config) { c.FailProb = -0.1 },
		"fail prob too big":  func(c *Config) { c.FailProb = 0.76 },
		"both durations": func(c *Config) {
			c.GoalDurationSteps = Int(2)
			c.GoalDurationEpisodes = Int(2)
		},
		"zero steps":        func(c *Config) { c.GoalDurationSteps = Int(0) },
		"negative episodes": func(c *Config) { c.GoalDurationEpisodes = Int(-5) },
		"empty map":         func(c *Config) { c.MapText = "\nxxx\nxxx" },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			modify(&cfg)
			env, err := New(cfg)
			assert.Nil(t, env)
			assert.True(t, errors.Is(err, ErrConfig))
		})
	}
}

func TestNewDefaults(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.InDelta(t, 1.0/3.0, env.FailProb(), 1e-12)
	assert.Equal(t, ByEpisodes, env.Scheduler().Kind())
	assert.Equal(t, 1, env.Scheduler().Duration())
	assert.False(t, env.Scheduler().RepeatAllowed())
	assert.Equal(t, 4, env.ActionSpace().N())
	assert.Equal(t, [4]int{12, 12, 12, 12}, env.ObservationSpace().High)

	_, err := New(Config{FailProb: MaxFailProb, MapText: FourRoomsMap, GoalDurationEpisodes: Int(Infinite)})
	assert.NoError(t, err)
}

func TestStepBeforeReset(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.Step(Up)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStepInvalidAction(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Reset()
	before := env.Snapshot()
	for _, a := range []Action{-1, 4, 100} {
		_, err := env.Step(a)
		assert.ErrorIs(t, err, ErrInvalidAction)
	}
	assert.Equal(t, before, env.Snapshot())
}

func TestDeterminism(t *testing.T) {
	a := newTestEnv(t, func(c *Config) { c.Seed = Uint64(1234) })
	b := newTestEnv(t, func(c *Config) { c.Seed = Uint64(1234) })
	actions := sampleActions(9, 3000)

	assert.Equal(t, a.Reset(), b.Reset())
	assert.Equal(t, drive(t, a, actions), drive(t, b, actions))
}

func TestReseedRewiresComponents(t *testing.T) {
	a := newTestEnv(t, func(c *Config) { c.Seed = Uint64(1) })
	b := newTestEnv(t, func(c *Config) { c.Seed = Uint64(2) })
	a.Reset()
	drive(t, a, sampleActions(3, 50))

	a.Seed(77)
	b.Seed(77)
	assert.Equal(t, uint64(77), a.LastSeed())
	sa := make([]Action, 20)
	sb := make([]Action, 20)
	for i := range sa {
		sa[i] = a.ActionSpace().Sample()
		sb[i] = b.ActionSpace().Sample()
	}
	assert.Equal(t, sa, sb)
}

func TestRestoreKeepsActionSpace(t *testing.T) {
	a := newTestEnv(t, func(c *Config) { c.Seed = Uint64(5) })
	a.Reset()
	drive(t, a, sampleActions(4, 30))
	snap := a.Snapshot()

	b := newTestEnv(t, func(c *Config) { c.Seed = Uint64(6) })
	held := b.ActionSpace()
	require.NoError(t, b.Restore(snap))
	assert.Same(t, held, b.ActionSpace())

	before := b.Snapshot().RandomState
	drawn := held.Sample()
	assert.NotEqual(t, before, b.Snapshot().RandomState)

	// the held sampler continues the restored stream
	assert.Equal(t, a.ActionSpace().Sample(), drawn)
	assert.Equal(t, a.Snapshot().RandomState, b.Snapshot().RandomState)
}

func TestSnapshotRoundTrip(t *testing.T) {
	a := newTestEnv(t, func(c *Config) {
		c.Seed = Uint64(8)
		c.GoalDurationSteps = Int(7)
	})
	a.Reset()
	drive(t, a, sampleActions(1, 137))

	snap := a.Snapshot()
	actions := sampleActions(2, 500)
	expected := drive(t, a, actions)
	// keep driving the original with other actions
	drive(t, a, sampleActions(3, 321))
	a.Seed(5)

	b := newTestEnv(t, func(c *Config) { c.Seed = Uint64(999) })
	require.NoError(t, b.Restore(snap))
	assert.Equal(t, expected, drive(t, b, actions))

	bs, err := jsonEncode(snap)
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(bs)
	require.NoError(t, err)
	c := newTestEnv(t, nil)
	require.NoError(t, c.Restore(decoded))
	assert.Equal(t, expected, drive(t, c, actions))
}

func TestSnapshotFields(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.GoalDurationSteps = Int(3) })
	snap := env.Snapshot()
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Nil(t, snap.Position)
	assert.Nil(t, snap.Goal)
	assert.Equal(t, 3, *snap.GoalDurationSteps)
	assert.Nil(t, snap.GoalDurationEpisodes)
	assert.Equal(t, DefaultMap().OpenCells(), snap.OpenCells)

	obs := env.Reset()
	env.Step(safeAction(env))
	snap = env.Snapshot()
	require.NotNil(t, snap.Goal)
	assert.Equal(t, obs.Goal(), *snap.Goal)
	assert.Equal(t, 1, snap.StepCount)
}

func TestRestoreInvalid(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Reset()
	good := env.Snapshot()

	cases := map[string]func(*Snapshot){
		"version":        func(s *Snapshot) { s.Version = 2 },
		"no map":         func(s *Snapshot) { s.Map = nil },
		"open cells":     func(s *Snapshot) { s.OpenCells = s.OpenCells[1:] },
		"fail prob":      func(s *Snapshot) { s.FailProb = 0.9 },
		"no duration":    func(s *Snapshot) { s.GoalDurationEpisodes = nil },
		"both durations": func(s *Snapshot) { s.GoalDurationSteps = Int(1) },
		"counter":        func(s *Snapshot) { s.EpisodeCount = -1 },
		"wall position":  func(s *Snapshot) { s.Position = &Position{Row: 0, Col: 0} },
		"goal on agent":  func(s *Snapshot) { s.Goal = copyPosition(s.Position) },
		"random state":   func(s *Snapshot) { s.RandomState = []byte("pcg") },
	}
	for name, modify := range cases {
		t.Run(name, func(t *testing.T) {
			bad := env.Snapshot()
			modify(bad)
			err := env.Restore(bad)
			assert.ErrorIs(t, err, ErrSnapshot)
			assert.ErrorIs(t, err, ErrConfig)
			assert.Equal(t, good, env.Snapshot())
		})
	}
	assert.ErrorIs(t, env.Restore(nil), ErrSnapshot)

	_, err := DecodeSnapshot([]byte(`{"version":1,"unknown":true}`))
	assert.ErrorIs(t, err, ErrSnapshot)
}

func TestNoOverlap(t *testing.T) {
	configs := map[string]func(*Config){
		"episodes": nil,
		"steps":    func(c *Config) {
			c.GoalDurationSteps = Int(3)
			c.GoalRepeatAllowed = true
		},
		"every step": func(c *Config) {
			c.GoalDurationSteps = Int(1)
			c.FailProb = 0.5
		},
	}
	for name, modify := range configs {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, modify)
			obs := env.Reset()
			assert.NotEqual(t, obs.Position(), obs.Goal())
			for _, a := range sampleActions(4, 5000) {
				res, err := env.Step(a)
				require.NoError(t, err)
				if res.Done {
					assert.Equal(t, res.Observation.Position(), res.Observation.Goal())
					obs = env.Reset()
					assert.NotEqual(t, obs.Position(), obs.Goal())
					continue
				}
				assert.NotEqual(t, res.Observation.Position(), res.Observation.Goal())
				pos, _ := env.Position()
				goal, _ := env.Goal()
				assert.NotEqual(t, pos, goal)
				assert.True(t, env.ObservationSpace().Contains(res.Observation))
			}
		})
	}
}

func TestGoalChangeEveryStep(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.GoalDurationSteps = Int(1)
		c.FailProb = 0
	})
	env.Reset()
	g0, _ := env.Goal()
	env.Step(safeAction(env))
	g1, _ := env.Goal()
	env.Step(safeAction(env))
	g2, _ := env.Goal()
	assert.NotEqual(t, g0, g1)
	assert.NotEqual(t, g1, g2)
}

func TestGoalChangeEveryTwoSteps(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.GoalDurationSteps = Int(2)
		c.FailProb = 0
	})
	goal := func() Position {
		g, ok := env.Goal()
		require.True(t, ok)
		return g
	}
	env.Reset()
	g0 := goal()
	env.Step(safeAction(env))
	g1 := goal()
	env.Step(safeAction(env))
	g2 := goal()
	env.Reset()
	g3 := goal()
	env.Step(safeAction(env))
	g4 := goal()
	env.Step(safeAction(env))
	g5 := goal()

	assert.Equal(t, g0, g1)
	assert.NotEqual(t, g1, g2)
	assert.Equal(t, g2, g3)
	assert.Equal(t, g3, g4)
	assert.NotEqual(t, g4, g5)
}

func TestStepCounterSurvivesReset(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.GoalDurationSteps = Int(5)
		c.FailProb = 0
	})
	env.Reset()
	g0, _ := env.Goal()
	for i := 0; i < 4; i++ {
		env.Step(safeAction(env))
	}
	env.Reset()
	g, _ := env.Goal()
	assert.Equal(t, g0, g)
	env.Step(safeAction(env))
	g, _ = env.Goal()
	assert.NotEqual(t, g0, g)
}

func TestGoalChangeEveryEpisode(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.GoalDurationEpisodes = Int(1)
		c.FailProb = 0
	})
	env.Reset()
	g0, _ := env.Goal()
	env.Step(safeAction(env))
	g1, _ := env.Goal()
	env.Step(safeAction(env))
	g2, _ := env.Goal()
	env.Reset()
	g3, _ := env.Goal()
	env.Step(safeAction(env))
	g4, _ := env.Goal()

	assert.Equal(t, g0, g1)
	assert.Equal(t, g1, g2)
	assert.NotEqual(t, g2, g3)
	assert.Equal(t, g3, g4)
}

func TestGoalChangeEveryThreeEpisodes(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.GoalDurationEpisodes = Int(3) })
	goals := make([]Position, 0)
	for i := 0; i < 10; i++ {
		env.Reset()
		g, _ := env.Goal()
		goals = append(goals, g)
	}
	// unchanged across 3 resets, changes on the 4th
	for _, start := range []int{0, 3, 6} {
		assert.Equal(t, goals[start], goals[start+1])
		assert.Equal(t, goals[start], goals[start+2])
		assert.NotEqual(t, goals[start+2], goals[start+3])
	}
}

func TestGoalInfiniteDuration(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.GoalDurationEpisodes = Int(Infinite) })
	env.Reset()
	g0, _ := env.Goal()
	for _, a := range sampleActions(6, 2000) {
		res, err := env.Step(a)
		require.NoError(t, err)
		if res.Done {
			env.Reset()
		}
		g, _ := env.Goal()
		assert.Equal(t, g0, g)
	}
}

func TestNoRepeatGoal(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.GoalDurationSteps = Int(1) })
	env.Reset()
	for _, a := range sampleActions(7, 3000) {
		prev, _ := env.Goal()
		res, err := env.Step(a)
		require.NoError(t, err)
		g, _ := env.Goal()
		assert.NotEqual(t, prev, g)
		if res.Done {
			env.Reset()
		}
	}
}

func TestNoRepeatGoalSmallMap(t *testing.T) {
	// with three cells both exclusions still leave one choice
	env := newTestEnv(t, func(c *Config) {
		c.MapText = "\nxxxxx\nx   x\nxxxxx"
		c.GoalDurationEpisodes = Int(0)
		c.FailProb = 0
	})
	for i := 0; i < 200; i++ {
		prev, hadGoal := env.Goal()
		obs := env.Reset()
		assert.NotEqual(t, obs.Position(), obs.Goal())
		if hadGoal {
			assert.NotEqual(t, prev, obs.Goal())
		}
	}
}

func TestTwoCellMapNoRepeat(t *testing.T) {
	// the previous goal cannot be excluded as well, position wins
	env := newTestEnv(t, func(c *Config) {
		c.MapText = "\nxxxx\nx  x\nxxxx"
		c.GoalDurationEpisodes = Int(0)
	})
	for i := 0; i < 50; i++ {
		obs := env.Reset()
		assert.NotEqual(t, obs.Position(), obs.Goal())
	}
}

func TestTerminalTransition(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.FailProb = 0 })
	env.Reset()
	snap := env.Snapshot()
	snap.Position = &Position{Row: 1, Col: 1}
	snap.Goal = &Position{Row: 1, Col: 2}
	require.NoError(t, env.Restore(snap))

	res, err := env.Step(Right)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Reward)
	assert.True(t, res.Done)
	assert.Equal(t, Observation{1, 2, 1, 2}, res.Observation)
	assert.Empty(t, res.Info)

	_, ok := env.Position()
	assert.False(t, ok)
	g, ok := env.Goal()
	assert.True(t, ok)
	assert.Equal(t, Position{Row: 1, Col: 2}, g)

	_, err = env.Step(Right)
	assert.ErrorIs(t, err, ErrInvalidState)

	obs := env.Reset()
	assert.NotEqual(t, obs.Position(), obs.Goal())
}

func TestTerminalTransitionWithStepRotation(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.FailProb = 0
		c.GoalDurationSteps = Int(1)
	})
	env.Reset()
	snap := env.Snapshot()
	snap.Position = &Position{Row: 2, Col: 1}
	snap.Goal = &Position{Row: 1, Col: 1}
	require.NoError(t, env.Restore(snap))

	res, err := env.Step(Up)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, Observation{1, 1, 1, 1}, res.Observation)
	g, _ := env.Goal()
	assert.NotEqual(t, Position{Row: 1, Col: 1}, g)
}

func TestWallIsNoOp(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.FailProb = 0 })
	env.Reset()
	snap := env.Snapshot()
	snap.Position = &Position{Row: 1, Col: 1}
	snap.Goal = &Position{Row: 5, Col: 5}
	require.NoError(t, env.Restore(snap))

	res, err := env.Step(Up)
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, 0.0, res.Reward)
	assert.Equal(t, Position{Row: 1, Col: 1}, res.Observation.Position())
}

func TestStepRotationScenario(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.FailProb = 0
		c.GoalDurationSteps = Int(1)
	})
	obs := env.Reset()
	p0, g0 := obs.Position(), obs.Goal()

	var action Action
	var target Position
	found := false
	for a := Action(0); a < NumActions; a++ {
		next := p0.Add(a.Delta())
		if env.Map().Passable(next) && next != g0 {
			action, target, found = a, next, true
			break
		}
	}
	require.True(t, found)

	res, err := env.Step(action)
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, target, res.Observation.Position())
	assert.NotEqual(t, g0, res.Observation.Goal())
}

func TestFailureDistribution(t *testing.T) {
	// the intended move happens with probability 1 - failProb
	env := newTestEnv(t, func(c *Config) { c.FailProb = 0.3 })
	grid := env.Map()
	start := Position{Row: 3, Col: 3}
	moved := 0
	n := 20000
	for i := 0; i < n; i++ {
		if env.transition.Apply(start, Right) == start.Add(Right.Delta()) {
			moved++
		}
	}
	require.True(t, grid.Passable(start.Add(Right.Delta())))
	assert.InDelta(t, 0.7, float64(moved)/float64(n), 0.02)
}

func TestClose(t *testing.T) {
	env := newTestEnv(t, nil)
	env.Reset()
	env.Close()
	_, ok := env.Position()
	assert.False(t, ok)
	_, err := env.Step(Up)
	assert.ErrorIs(t, err, ErrInvalidState)
}
