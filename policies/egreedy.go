package policies

import (
	"github.com/zeu5/fourrooms/core"
	erand "golang.org/x/exp/rand"
)

// EpsilonGreedyPolicy is tabular Q-learning with epsilon greedy exploration
type EpsilonGreedyPolicy struct {
	qTable   *QTable
	alpha    float64
	discount float64
	epsilon  float64
	seed     uint64
	rand     *erand.Rand
}

var _ core.Policy = &EpsilonGreedyPolicy{}

func NewEpsilonGreedyPolicy(alpha, discount, epsilon float64, seed uint64) *EpsilonGreedyPolicy {
	return &EpsilonGreedyPolicy{
		qTable:   NewQTable(seed),
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
		seed:     seed,
		rand:     erand.New(erand.NewSource(seed)),
	}
}

func (e *EpsilonGreedyPolicy) QTable() *QTable {
	return e.qTable
}

// SetEpsilon changes the exploration rate, 0 makes the policy greedy
func (e *EpsilonGreedyPolicy) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
}

func (e *EpsilonGreedyPolicy) Record(path string) error {
	return e.qTable.Record(path)
}

// Load reads a table written by Record
func (e *EpsilonGreedyPolicy) Load(path string) error {
	return e.qTable.Read(path)
}

func (e *EpsilonGreedyPolicy) Reset() {
	e.qTable = NewQTable(e.seed)
	e.rand = erand.New(erand.NewSource(e.seed))
}

func (e *EpsilonGreedyPolicy) ResetEpisode(_ *core.EpisodeContext) {
}

func (e *EpsilonGreedyPolicy) UpdateEpisode(_ *core.EpisodeContext) {
}

func (e *EpsilonGreedyPolicy) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	if e.rand.Float64() < e.epsilon {
		i := e.rand.Intn(len(actions))
		return actions[i]
	}

	actionsMap := make(map[string]core.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := e.qTable.MaxAmong(state.Hash(), availableActions, 0)
	if maxAction == "" {
		return nil
	}
	return actionsMap[maxAction]
}

func (e *EpsilonGreedyPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, nextState core.State, reward float64) {
	stateHash := state.Hash()
	actionKey := action.Hash()

	curVal := e.qTable.Get(stateHash, actionKey, 0)
	_, nextVal := e.qTable.Max(nextState.Hash(), 0)
	e.qTable.Set(stateHash, actionKey, (1-e.alpha)*curVal+e.alpha*(reward+e.discount*nextVal))
}

type EpsilonGreedyPolicyConstructor struct {
	alpha    float64
	discount float64
	epsilon  float64
	seed     uint64
}

var _ core.PolicyConstructor = &EpsilonGreedyPolicyConstructor{}

func NewEpsilonGreedyPolicyConstructor(alpha, discount, epsilon float64, seed uint64) *EpsilonGreedyPolicyConstructor {
	return &EpsilonGreedyPolicyConstructor{
		alpha:    alpha,
		discount: discount,
		epsilon:  epsilon,
		seed:     seed,
	}
}

func (c *EpsilonGreedyPolicyConstructor) NewPolicy(instance int) core.Policy {
	return NewEpsilonGreedyPolicy(c.alpha, c.discount, c.epsilon, c.seed+uint64(instance))
}
