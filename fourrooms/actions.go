package fourrooms

import "fmt"

type Action int

const (
	Up Action = iota
	Right
	Down
	Left
)

const NumActions = 4

var directions = [NumActions]Position{
	Up:    {Row: -1, Col: 0},
	Right: {Row: 0, Col: 1},
	Down:  {Row: 1, Col: 0},
	Left:  {Row: 0, Col: -1},
}

func (a Action) Valid() bool {
	return a >= 0 && a < NumActions
}

// Delta is the (row, col) displacement of the action
func (a Action) Delta() Position {
	return directions[a]
}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ActionSpace is the discrete space of the four moves. Sampling draws from the
// environment's Source, which is handed to it again on every reseed.
type ActionSpace struct {
	src *Source
}

func newActionSpace(src *Source) *ActionSpace {
	return &ActionSpace{src: src}
}

func (s *ActionSpace) setSource(src *Source) {
	s.src = src
}

func (s *ActionSpace) N() int {
	return NumActions
}

func (s *ActionSpace) Sample() Action {
	return Action(s.src.Intn(NumActions))
}

func (s *ActionSpace) Contains(a Action) bool {
	return a.Valid()
}

// Box bounds of the observation vector (pos row, pos col, goal row, goal col), inclusive
type ObservationSpace struct {
	Low  [4]int
	High [4]int
}

func (o ObservationSpace) Contains(obs Observation) bool {
	for i := range obs {
		if obs[i] < o.Low[i] || obs[i] > o.High[i] {
			return false
		}
	}
	return true
}
