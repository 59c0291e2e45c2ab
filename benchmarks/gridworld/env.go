package gridworld

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/fourrooms"
)

var ErrUnknownAction = errors.New("action is not a move")

// GridState is the observation after a reset or a step
type GridState struct {
	Obs  fourrooms.Observation
	Done bool
}

var _ core.State = &GridState{}

func (s *GridState) Hash() string {
	return fmt.Sprintf("%d_%d_%d_%d", s.Obs[0], s.Obs[1], s.Obs[2], s.Obs[3])
}

func (s *GridState) Actions() []core.Action {
	out := make([]core.Action, fourrooms.NumActions)
	for i := range out {
		out[i] = MoveAction{Action: fourrooms.Action(i)}
	}
	return out
}

func (s *GridState) String() string {
	str := fmt.Sprintf("agent=%v goal=%v", s.Obs.Position(), s.Obs.Goal())
	if s.Done {
		str += " done"
	}
	return str
}

type MoveAction struct {
	fourrooms.Action
}

var _ core.Action = MoveAction{}

func (m MoveAction) Hash() string {
	return strconv.Itoa(int(m.Action))
}

// GridEnv runs a fourrooms.Env behind the experiment runner
type GridEnv struct {
	env *fourrooms.Env
}

var _ core.Environment = &GridEnv{}

func NewGridEnv(env *fourrooms.Env) *GridEnv {
	return &GridEnv{env: env}
}

func (g *GridEnv) Env() *fourrooms.Env {
	return g.env
}

func (g *GridEnv) Reset() (core.State, error) {
	return &GridState{Obs: g.env.Reset()}, nil
}

func (g *GridEnv) Step(a core.Action, _ *core.StepContext) (core.State, float64, bool, error) {
	move, ok := a.(MoveAction)
	if !ok {
		return nil, 0, false, fmt.Errorf("%w: %v", ErrUnknownAction, a)
	}
	res, err := g.env.Step(move.Action)
	if err != nil {
		return nil, 0, false, err
	}
	return &GridState{Obs: res.Observation, Done: res.Done}, res.Reward, res.Done, nil
}

// GridEnvConstructor builds identically configured environments over one shared map.
// Instance i is seeded with the base seed plus i.
type GridEnvConstructor struct {
	config fourrooms.Config
	seed   uint64
}

var _ core.EnvironmentConstructor = &GridEnvConstructor{}

// NewGridEnvConstructor parses the map once and checks the config by building a first environment.
// The config must carry a seed, instances derive theirs from it.
func NewGridEnvConstructor(cfg fourrooms.Config) (*GridEnvConstructor, error) {
	if cfg.Seed == nil {
		return nil, fmt.Errorf("%w: environment constructor needs a seed", fourrooms.ErrConfig)
	}
	if cfg.Map == nil {
		grid, err := fourrooms.ParseMap(cfg.MapText)
		if err != nil {
			return nil, err
		}
		cfg.Map = grid
	}
	seed := *cfg.Seed
	if _, err := fourrooms.New(cfg); err != nil {
		return nil, err
	}
	return &GridEnvConstructor{config: cfg, seed: seed}, nil
}

func (c *GridEnvConstructor) Map() *fourrooms.GridMap {
	return c.config.Map
}

func (c *GridEnvConstructor) NewEnvironment(instance int) core.Environment {
	cfg := c.config
	cfg.Seed = fourrooms.Uint64(c.seed + uint64(instance))
	env, err := fourrooms.New(cfg)
	if err != nil {
		// the config was checked in NewGridEnvConstructor
		panic(err)
	}
	return NewGridEnv(env)
}
