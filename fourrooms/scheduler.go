package fourrooms

import "sort"

// Infinite as an episode duration keeps the first goal forever
const Infinite = -1

type DurationKind int

const (
	ByEpisodes DurationKind = iota
	BySteps
)

func (k DurationKind) String() string {
	if k == BySteps {
		return "steps"
	}
	return "episodes"
}

// GoalScheduler decides when the goal has to be resampled. Step based durations count
// steps across episode boundaries; episode based durations count resets.
type GoalScheduler struct {
	kind          DurationKind
	duration      int
	repeatAllowed bool

	stepCount    int
	episodeCount int
}

func newGoalScheduler(kind DurationKind, duration int, repeatAllowed bool) *GoalScheduler {
	return &GoalScheduler{
		kind:          kind,
		duration:      duration,
		repeatAllowed: repeatAllowed,
	}
}

func (s *GoalScheduler) Kind() DurationKind { return s.kind }

func (s *GoalScheduler) Duration() int { return s.duration }

func (s *GoalScheduler) RepeatAllowed() bool { return s.repeatAllowed }

func (s *GoalScheduler) StepCount() int { return s.stepCount }

func (s *GoalScheduler) EpisodeCount() int { return s.episodeCount }

// OnReset reports whether the goal must be resampled at the start of an episode
func (s *GoalScheduler) OnReset(hasGoal bool) bool {
	resample := !hasGoal
	if s.kind == ByEpisodes && s.duration != Infinite {
		if hasGoal && s.episodeCount >= s.duration {
			resample = true
		}
		if resample {
			s.episodeCount = 0
		}
		s.episodeCount++
	}
	return resample
}

// OnStep reports whether the goal must be resampled after a step
func (s *GoalScheduler) OnStep() bool {
	if s.kind != BySteps {
		return false
	}
	s.stepCount++
	if s.stepCount >= s.duration {
		s.stepCount = 0
		return true
	}
	return false
}

// sampleExcluding draws a uniform index in [0,n) that is not in excluded, without rejection.
// It draws in [0,n-m) and maps a hit on an excluded index to one of the non excluded
// indices in the tail [n-m,n). With one exclusion this is "swap with the last cell".
func sampleExcluding(src *Source, n int, excluded []int) int {
	ex := dedupSorted(excluded)
	m := len(ex)
	k := src.Intn(n - m)
	if m == 0 {
		return k
	}
	isExcluded := make(map[int]bool, m)
	for _, e := range ex {
		isExcluded[e] = true
	}
	low := make([]int, 0, m)
	for _, e := range ex {
		if e < n-m {
			low = append(low, e)
		}
	}
	tail := make([]int, 0, m)
	for i := n - m; i < n; i++ {
		if !isExcluded[i] {
			tail = append(tail, i)
		}
	}
	for j, e := range low {
		if k == e {
			return tail[j]
		}
	}
	return k
}

func dedupSorted(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	sort.Ints(out)
	j := 0
	for i := range out {
		if i == 0 || out[i] != out[i-1] {
			out[j] = out[i]
			j++
		}
	}
	return out[:j]
}
