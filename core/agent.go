package core

type Policy interface {
	ResetEpisode(*EpisodeContext)
	UpdateEpisode(*EpisodeContext)
	PickAction(*StepContext, State, []Action) Action
	UpdateStep(*StepContext, State, Action, State, float64)
	Reset()
}

type PolicyConstructor interface {
	// NewPolicy creates a policy seeded from the instance number
	NewPolicy(int) Policy
}
