package fourrooms

import "fmt"

// Config holds the construction parameters of an Env. Start from DefaultConfig.
type Config struct {
	// FailProb in [0, 0.75]
	FailProb float64
	// MapText is parsed when Map is nil
	MapText string
	Map     *GridMap
	// At most one of the two durations may be set. With neither, the goal changes every episode.
	GoalDurationSteps    *int
	GoalDurationEpisodes *int
	GoalRepeatAllowed    bool
	// Seed of the random source. Nil seeds from the clock.
	Seed *uint64
}

func DefaultConfig() Config {
	return Config{
		FailProb: 1.0 / 3.0,
		MapText:  FourRoomsMap,
	}
}

// Int returns a pointer to n, for the optional durations
func Int(n int) *int {
	return &n
}

func Uint64(v uint64) *uint64 {
	return &v
}

// Observation is (position row, position col, goal row, goal col)
type Observation [4]int

func (o Observation) Position() Position {
	return Position{Row: o[0], Col: o[1]}
}

func (o Observation) Goal() Position {
	return Position{Row: o[2], Col: o[3]}
}

type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Info        map[string]interface{}
}

// Env is the four rooms environment. It is not safe for concurrent use; independent
// instances may share a GridMap.
type Env struct {
	grid        *GridMap
	src         *Source
	seed        uint64
	actionSpace *ActionSpace
	transition  *TransitionModel
	scheduler   *GoalScheduler

	pos  *Position
	goal *Position
}

// New validates the config and builds the environment. Nothing is built on error.
func New(cfg Config) (*Env, error) {
	if !validFailProb(cfg.FailProb) {
		return nil, configErrorf("fail probability %v outside [0, %v]", cfg.FailProb, MaxFailProb)
	}
	kind, duration, err := resolveDuration(cfg.GoalDurationSteps, cfg.GoalDurationEpisodes)
	if err != nil {
		return nil, err
	}
	grid := cfg.Map
	if grid == nil {
		grid, err = ParseMap(cfg.MapText)
		if err != nil {
			return nil, err
		}
	}

	var src *Source
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
		src = NewSource(seed)
	} else {
		src, seed = NewEntropySource()
	}
	actions := newActionSpace(src)
	return &Env{
		grid:        grid,
		src:         src,
		seed:        seed,
		actionSpace: actions,
		transition:  newTransitionModel(grid, cfg.FailProb, actions, src),
		scheduler:   newGoalScheduler(kind, duration, cfg.GoalRepeatAllowed),
	}, nil
}

func resolveDuration(steps, episodes *int) (DurationKind, int, error) {
	switch {
	case steps != nil && episodes != nil:
		return 0, 0, configErrorf("goal duration given in both steps and episodes")
	case steps != nil:
		if *steps <= 0 {
			return 0, 0, configErrorf("goal duration in steps must be positive, got %d", *steps)
		}
		return BySteps, *steps, nil
	case episodes != nil:
		if *episodes < 0 && *episodes != Infinite {
			return 0, 0, configErrorf("goal duration in episodes must be non-negative or infinite, got %d", *episodes)
		}
		return ByEpisodes, *episodes, nil
	}
	return ByEpisodes, 1, nil
}

// Seed replaces the random source and hands it to every component drawing from it
func (e *Env) Seed(seed uint64) {
	e.setSource(NewSource(seed))
	e.seed = seed
}

// SeedFromEntropy reseeds from the clock and returns the seed used
func (e *Env) SeedFromEntropy() uint64 {
	src, seed := NewEntropySource()
	e.setSource(src)
	e.seed = seed
	return seed
}

func (e *Env) setSource(src *Source) {
	e.src = src
	e.actionSpace.setSource(src)
	e.transition.setSource(src)
}

// Reset starts a new episode: a new start position and, if the schedule says so, a new goal
func (e *Env) Reset() Observation {
	e.resetPosition()
	if e.scheduler.OnReset(e.goal != nil) {
		e.resampleGoal()
	}
	return e.observation()
}

// Step moves the agent. Reaching the goal ends the episode and clears the position;
// the goal stays set until the next reset.
func (e *Env) Step(action Action) (StepResult, error) {
	if !e.actionSpace.Contains(action) {
		return StepResult{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(action))
	}
	if e.pos == nil || e.goal == nil {
		return StepResult{}, fmt.Errorf("%w: step called without a reset", ErrInvalidState)
	}
	next := e.transition.Apply(*e.pos, action)
	e.pos = &next

	result := StepResult{Info: make(map[string]interface{})}
	if next == *e.goal {
		result.Reward = 1
		result.Done = true
		e.pos = nil
	}
	if e.scheduler.OnStep() {
		e.resampleGoal()
	}
	if result.Done {
		result.Observation = Observation{next.Row, next.Col, next.Row, next.Col}
	} else {
		result.Observation = e.observation()
	}
	return result, nil
}

func (e *Env) resetPosition() {
	excluded := make([]int, 0, 1)
	if e.goal != nil {
		i, _ := e.grid.IndexOf(*e.goal)
		excluded = append(excluded, i)
	}
	p := e.grid.Cell(sampleExcluding(e.src, e.grid.NumOpen(), excluded))
	e.pos = &p
}

// resampleGoal excludes the agent position and, without repeats, the previous goal.
// The position takes priority when the pool is too small for both.
func (e *Env) resampleGoal() {
	n := e.grid.NumOpen()
	excluded := make([]int, 0, 2)
	if e.pos != nil {
		i, _ := e.grid.IndexOf(*e.pos)
		excluded = append(excluded, i)
	}
	if !e.scheduler.RepeatAllowed() && e.goal != nil {
		i, _ := e.grid.IndexOf(*e.goal)
		candidate := dedupSorted(append(append([]int{}, excluded...), i))
		if len(candidate) < n {
			excluded = candidate
		}
	}
	g := e.grid.Cell(sampleExcluding(e.src, n, excluded))
	e.goal = &g
}

func (e *Env) observation() Observation {
	var obs Observation
	if e.pos != nil {
		obs[0], obs[1] = e.pos.Row, e.pos.Col
	}
	if e.goal != nil {
		obs[2], obs[3] = e.goal.Row, e.goal.Col
	}
	return obs
}

// Close clears the position and the goal
func (e *Env) Close() {
	e.pos = nil
	e.goal = nil
}

func (e *Env) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}
	return *e.pos, true
}

func (e *Env) Goal() (Position, bool) {
	if e.goal == nil {
		return Position{}, false
	}
	return *e.goal, true
}

func (e *Env) Map() *GridMap { return e.grid }

func (e *Env) FailProb() float64 { return e.transition.FailProb() }

func (e *Env) Scheduler() *GoalScheduler { return e.scheduler }

func (e *Env) ActionSpace() *ActionSpace { return e.actionSpace }

// LastSeed is the seed the current source was created with
func (e *Env) LastSeed() uint64 { return e.seed }

func (e *Env) ObservationSpace() ObservationSpace {
	r, c := e.grid.Rows()-1, e.grid.Cols()-1
	return ObservationSpace{
		High: [4]int{r, c, r, c},
	}
}
