package fourrooms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const SnapshotVersion = 1

// Snapshot is the complete mutable state of an Env, including the exact random state
type Snapshot struct {
	Version              int        `json:"version"`
	Map                  []string   `json:"map"`
	OpenCells            []Position `json:"open_cells"`
	FailProb             float64    `json:"fail_prob"`
	GoalDurationSteps    *int       `json:"goal_duration_steps,omitempty"`
	GoalDurationEpisodes *int       `json:"goal_duration_episodes,omitempty"`
	GoalRepeatAllowed    bool       `json:"goal_repeat_allowed"`
	StepCount            int        `json:"step_count"`
	EpisodeCount         int        `json:"episode_count"`
	Position             *Position  `json:"position,omitempty"`
	Goal                 *Position  `json:"goal,omitempty"`
	Seed                 uint64     `json:"seed"`
	RandomState          []byte     `json:"random_state"`
}

// Snapshot copies the state. The copy shares nothing with the environment.
func (e *Env) Snapshot() *Snapshot {
	s := &Snapshot{
		Version:           SnapshotVersion,
		Map:               e.grid.Lines(),
		OpenCells:         e.grid.OpenCells(),
		FailProb:          e.transition.FailProb(),
		GoalRepeatAllowed: e.scheduler.RepeatAllowed(),
		StepCount:         e.scheduler.StepCount(),
		EpisodeCount:      e.scheduler.EpisodeCount(),
		Seed:              e.seed,
		RandomState:       e.src.State(),
	}
	if e.scheduler.Kind() == BySteps {
		s.GoalDurationSteps = Int(e.scheduler.Duration())
	} else {
		s.GoalDurationEpisodes = Int(e.scheduler.Duration())
	}
	if e.pos != nil {
		p := *e.pos
		s.Position = &p
	}
	if e.goal != nil {
		g := *e.goal
		s.Goal = &g
	}
	return s
}

// Restore replaces the whole state of the environment with the snapshot.
// The snapshot is validated first; on error the environment is unchanged.
func (e *Env) Restore(s *Snapshot) error {
	if s == nil {
		return snapshotErrorf("nil snapshot")
	}
	if s.Version != SnapshotVersion {
		return snapshotErrorf("unsupported version %d", s.Version)
	}
	if len(s.Map) == 0 {
		return snapshotErrorf("empty map")
	}
	grid, err := ParseMap("\n" + strings.Join(s.Map, "\n"))
	if err != nil {
		return snapshotErrorf("map: %s", err)
	}
	if !samePositions(grid.open, s.OpenCells) {
		return snapshotErrorf("open cells do not match the map")
	}
	if !validFailProb(s.FailProb) {
		return snapshotErrorf("fail probability %v outside [0, %v]", s.FailProb, MaxFailProb)
	}
	if s.GoalDurationSteps == nil && s.GoalDurationEpisodes == nil {
		return snapshotErrorf("no goal duration")
	}
	kind, duration, err := resolveDuration(s.GoalDurationSteps, s.GoalDurationEpisodes)
	if err != nil {
		return snapshotErrorf("%s", err)
	}
	if s.StepCount < 0 || s.EpisodeCount < 0 {
		return snapshotErrorf("negative counters")
	}
	for _, p := range []*Position{s.Position, s.Goal} {
		if p != nil && !grid.Passable(*p) {
			return snapshotErrorf("cell (%d,%d) is not open", p.Row, p.Col)
		}
	}
	if s.Position != nil && s.Goal != nil && *s.Position == *s.Goal {
		return snapshotErrorf("position equals goal")
	}
	src, err := RestoreSource(s.RandomState)
	if err != nil {
		return err
	}

	scheduler := newGoalScheduler(kind, duration, s.GoalRepeatAllowed)
	scheduler.stepCount = s.StepCount
	scheduler.episodeCount = s.EpisodeCount

	e.grid = grid
	e.seed = s.Seed
	e.scheduler = scheduler
	e.transition = newTransitionModel(grid, s.FailProb, e.actionSpace, src)
	e.setSource(src)
	e.pos = copyPosition(s.Position)
	e.goal = copyPosition(s.Goal)
	return nil
}

// LoadSnapshot reads a JSON snapshot file
func LoadSnapshot(path string) (*Snapshot, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(bs)
}

// DecodeSnapshot parses JSON, rejecting unknown fields
func DecodeSnapshot(bs []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.DisallowUnknownFields()
	s := &Snapshot{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSnapshot, err)
	}
	return s, nil
}

func samePositions(a, b []Position) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func copyPosition(p *Position) *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
