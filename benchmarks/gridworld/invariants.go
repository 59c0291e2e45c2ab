package gridworld

import (
	"github.com/zeu5/fourrooms/analysis"
	"github.com/zeu5/fourrooms/core"
	"github.com/zeu5/fourrooms/fourrooms"
)

func gridState(s core.State) (*GridState, bool) {
	g, ok := s.(*GridState)
	return g, ok
}

// NoOverlap holds when no live observation has the agent standing on the goal
func NoOverlap() analysis.Invariant {
	return analysis.Invariant{
		Name: "no_overlap",
		Check: func(t *core.Trace) bool {
			for i := 0; i < t.Len(); i++ {
				step := t.Step(i)
				if i == 0 {
					if s, ok := gridState(step.State); ok && s.Obs.Position() == s.Obs.Goal() {
						return false
					}
				}
				next, ok := gridState(step.NextState)
				if !ok || next.Done {
					continue
				}
				if next.Obs.Position() == next.Obs.Goal() {
					return false
				}
			}
			return true
		},
	}
}

// TerminalOnGoal holds when reward is paid exactly on the last, terminal step
func TerminalOnGoal() analysis.Invariant {
	return analysis.Invariant{
		Name: "terminal_on_goal",
		Check: func(t *core.Trace) bool {
			for i := 0; i < t.Len(); i++ {
				step := t.Step(i)
				last := i == t.Len()-1
				if step.Done && !last {
					return false
				}
				if step.Done != (step.Reward == 1) {
					return false
				}
				if step.Reward != 0 && step.Reward != 1 {
					return false
				}
			}
			return true
		},
	}
}

// InBounds holds when every observed position and goal is an open cell of grid
func InBounds(grid *fourrooms.GridMap) analysis.Invariant {
	return analysis.Invariant{
		Name: "in_bounds",
		Check: func(t *core.Trace) bool {
			for i := 0; i < t.Len(); i++ {
				next, ok := gridState(t.Step(i).NextState)
				if !ok {
					return false
				}
				if !grid.Passable(next.Obs.Position()) || !grid.Passable(next.Obs.Goal()) {
					return false
				}
			}
			return true
		},
	}
}

func Invariants(grid *fourrooms.GridMap) []analysis.Invariant {
	return []analysis.Invariant{
		NoOverlap(),
		TerminalOnGoal(),
		InBounds(grid),
	}
}
