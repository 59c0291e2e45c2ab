package gridworld

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeu5/fourrooms/fourrooms"
	"github.com/zeu5/fourrooms/util"
)

var ErrDiverged = errors.New("trajectories diverged")

// transition is one entry of a recorded trajectory. Resets are recorded with Reset set.
type transition struct {
	Reset  bool                  `json:"reset,omitempty"`
	Action fourrooms.Action      `json:"action"`
	Obs    fourrooms.Observation `json:"obs"`
	Reward float64               `json:"reward"`
	Done   bool                  `json:"done"`
}

// ActionSequence draws n actions from a source seeded with seed, independent of any environment
func ActionSequence(seed uint64, n int) []fourrooms.Action {
	src := fourrooms.NewSource(seed)
	out := make([]fourrooms.Action, n)
	for i := range out {
		out[i] = fourrooms.Action(src.Intn(int(fourrooms.NumActions)))
	}
	return out
}

// rollout plays actions on env, resetting whenever no episode is running
func rollout(env *fourrooms.Env, actions []fourrooms.Action) ([]transition, error) {
	out := make([]transition, 0, len(actions))
	for _, a := range actions {
		if _, ok := env.Position(); !ok {
			out = append(out, transition{Reset: true, Obs: env.Reset()})
		}
		res, err := env.Step(a)
		if err != nil {
			return out, err
		}
		out = append(out, transition{Action: a, Obs: res.Observation, Reward: res.Reward, Done: res.Done})
	}
	return out, nil
}

func compareTrajectories(a, b []transition) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: lengths %d and %d", ErrDiverged, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			return fmt.Errorf("%w at entry %d: %+v != %+v", ErrDiverged, i, a[i], b[i])
		}
	}
	return nil
}

// VerifyDeterminism plays the same action sequence on two environments built from cfg
// and returns the hash of the common trajectory. cfg must carry a seed.
func VerifyDeterminism(cfg fourrooms.Config, steps int) (string, error) {
	if cfg.Seed == nil {
		return "", fmt.Errorf("%w: determinism check needs a seed", fourrooms.ErrConfig)
	}
	actions := ActionSequence(*cfg.Seed+1, steps)

	trajectories := make([][]transition, 2)
	for i := range trajectories {
		env, err := fourrooms.New(cfg)
		if err != nil {
			return "", err
		}
		trajectories[i], err = rollout(env, actions)
		if err != nil {
			return "", err
		}
	}
	if err := compareTrajectories(trajectories[0], trajectories[1]); err != nil {
		return "", err
	}
	return util.JsonHash(trajectories[0]), nil
}

// VerifySnapshot runs warmup steps, snapshots through JSON into a fresh environment and
// checks both continue identically for steps more actions. It returns the hash of the
// continuation.
func VerifySnapshot(cfg fourrooms.Config, warmup, steps int) (string, error) {
	original, err := fourrooms.New(cfg)
	if err != nil {
		return "", err
	}
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	if _, err := rollout(original, ActionSequence(seed+1, warmup)); err != nil {
		return "", err
	}

	bs, err := json.Marshal(original.Snapshot())
	if err != nil {
		return "", err
	}
	snap, err := fourrooms.DecodeSnapshot(bs)
	if err != nil {
		return "", err
	}
	fresh, err := fourrooms.New(fourrooms.DefaultConfig())
	if err != nil {
		return "", err
	}
	if err := fresh.Restore(snap); err != nil {
		return "", err
	}

	actions := ActionSequence(seed+2, steps)
	a, err := rollout(original, actions)
	if err != nil {
		return "", err
	}
	b, err := rollout(fresh, actions)
	if err != nil {
		return "", err
	}
	if err := compareTrajectories(a, b); err != nil {
		return "", err
	}
	return util.JsonHash(a), nil
}
