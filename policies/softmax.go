package policies

import (
	"math"

	"github.com/zeu5/fourrooms/core"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Q-learning on the environment reward.
// The next action is chosen according to the softmax function
// With a temperature
type SoftMaxPolicy struct {
	QTable      map[string]map[string]float64
	Alpha       float64
	Gamma       float64
	Temperature float64

	seed uint64
	rand erand.Source
}

// NewSoftMaxPolicy instantiated the SoftMaxPolicy
func NewSoftMaxPolicy(alpha, gamma, temperature float64, seed uint64) *SoftMaxPolicy {
	return &SoftMaxPolicy{
		QTable:      make(map[string]map[string]float64),
		Alpha:       alpha,
		Gamma:       gamma,
		Temperature: temperature,
		seed:        seed,
		rand:        erand.NewSource(seed),
	}
}

// Checking interface compatibility
var _ core.Policy = &SoftMaxPolicy{}

// Reset clears the QTable
func (s *SoftMaxPolicy) Reset() {
	s.QTable = make(map[string]map[string]float64)
	s.rand = erand.NewSource(s.seed)
}

func (s *SoftMaxPolicy) ResetEpisode(_ *core.EpisodeContext) {
}

func (s *SoftMaxPolicy) UpdateEpisode(_ *core.EpisodeContext) {
}

func (s *SoftMaxPolicy) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	stateHash := state.Hash()

	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}

	// Initializing QTable entry to 0 if it does not exist
	for _, a := range actions {
		aName := a.Hash()
		if _, ok := s.QTable[stateHash][aName]; !ok {
			s.QTable[stateHash][aName] = 0
		}
	}

	temperature := s.Temperature
	if temperature <= 0 {
		temperature = 1
	}
	sum := float64(0)
	weights := make([]float64, len(actions))
	vals := make([]float64, len(actions))
	largestValue := math.Inf(-1)

	for i := 0; i < len(actions); i++ {
		val := s.QTable[stateHash][actions[i].Hash()] / temperature
		vals[i] = val
		if val > largestValue {
			largestValue = val
		}
	}

	// Normalizing
	for i := 0; i < len(vals); i++ {
		vals[i] = math.Exp(vals[i] - largestValue)
		sum += vals[i]
	}

	// Computing weights for each action
	for i, v := range vals {
		weights[i] = v / sum
	}
	// using the sampleuv library to sample based on the weights
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil
	}
	return actions[i]
}

func (s *SoftMaxPolicy) UpdateStep(sCtx *core.StepContext, state core.State, action core.Action, nextState core.State, reward float64) {
	stateHash := state.Hash()

	nextStateHash := nextState.Hash()
	actionKey := action.Hash()
	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}
	curVal := s.QTable[stateHash][actionKey]
	max := float64(0)
	if next, ok := s.QTable[nextStateHash]; ok && len(next) > 0 {
		max = math.Inf(-1)
		for _, val := range next {
			if val > max {
				max = val
			}
		}
	}
	nextVal := (1-s.Alpha)*curVal + s.Alpha*(reward+s.Gamma*max)
	s.QTable[stateHash][actionKey] = nextVal
}

type SoftMaxPolicyConstructor struct {
	alpha float64
	gamma float64
	temp  float64
	seed  uint64
}

var _ core.PolicyConstructor = &SoftMaxPolicyConstructor{}

func NewSoftMaxPolicyConstructor(alpha, gamma, temp float64, seed uint64) *SoftMaxPolicyConstructor {
	return &SoftMaxPolicyConstructor{
		alpha: alpha,
		gamma: gamma,
		temp:  temp,
		seed:  seed,
	}
}

func (s *SoftMaxPolicyConstructor) NewPolicy(instance int) core.Policy {
	return NewSoftMaxPolicy(s.alpha, s.gamma, s.temp, s.seed+uint64(instance))
}
