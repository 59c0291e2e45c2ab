package fourrooms

// MaxFailProb keeps the substitution probability failProb*4/3 within [0,1]
const MaxFailProb = 0.75

// TransitionModel moves the agent under stochastic action failure. With probability
// failProb*4/3 the intended action is replaced by a uniform one over all four, so the
// intended move still happens with probability 1-failProb.
type TransitionModel struct {
	grid     *GridMap
	failProb float64
	actions  *ActionSpace
	src      *Source
}

func newTransitionModel(grid *GridMap, failProb float64, actions *ActionSpace, src *Source) *TransitionModel {
	return &TransitionModel{
		grid:     grid,
		failProb: failProb,
		actions:  actions,
		src:      src,
	}
}

func (t *TransitionModel) setSource(src *Source) {
	t.src = src
}

func (t *TransitionModel) FailProb() float64 {
	return t.failProb
}

// Apply returns the next position. Moving into a wall leaves the agent in place.
func (t *TransitionModel) Apply(pos Position, action Action) Position {
	if t.src.Float64() < t.failProb*4/3 {
		action = t.actions.Sample()
	}
	next := pos.Add(action.Delta())
	if !t.grid.Passable(next) {
		return pos
	}
	return next
}

func validFailProb(p float64) bool {
	return p >= 0 && p <= MaxFailProb
}
