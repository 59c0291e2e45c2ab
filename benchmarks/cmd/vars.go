package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/common"
)

var (
	flags             *common.Flags
	savePath          string
	failProb          float64
	mapFile           string
	goalSteps         int
	goalEpisodes      string
	goalRepeatAllowed bool
	seed              uint64
	debug             bool

	numRuns                int
	episodes               int
	horizon                int
	maxConsecutiveErrors   int
	maxConsecutiveTimeouts int
	episodeTimeout         int
	parallelism            int
)

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().Float64Var(&failProb, "fail-prob", flags.FailProb, "Probability that a move is replaced by a random one")
	cmd.PersistentFlags().StringVar(&mapFile, "map", flags.MapFile, "Map file, the four rooms layout when empty")
	cmd.PersistentFlags().IntVar(&goalSteps, "goal-steps", flags.GoalSteps, "Change the goal every n steps")
	cmd.PersistentFlags().StringVar(&goalEpisodes, "goal-episodes", flags.GoalEpisodes, "Change the goal every n episodes, or \"infinite\"")
	cmd.PersistentFlags().BoolVar(&goalRepeatAllowed, "goal-repeat", flags.GoalRepeatAllowed, "Allow a new goal to equal the previous one")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Random seed")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Save traces of the last episodes")

	cmd.PersistentFlags().IntVar(&numRuns, "num-runs", flags.NumRuns, "Number of runs")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of episodes")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", flags.Horizon, "Horizon")
	cmd.PersistentFlags().IntVar(&maxConsecutiveErrors, "max-consecutive-errors", flags.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	cmd.PersistentFlags().IntVar(&maxConsecutiveTimeouts, "max-consecutive-timeouts", flags.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	cmd.PersistentFlags().IntVar(&episodeTimeout, "episode-timeout", int(flags.EpisodeTimeout.Seconds()), "Episode timeout in seconds, 0 for none")
	cmd.PersistentFlags().IntVar(&parallelism, "parallelism", flags.Parallelism, "Number of parallel runs")
}

func UpdateFlags() {
	flags.SavePath = savePath
	flags.FailProb = failProb
	flags.MapFile = mapFile
	flags.GoalSteps = goalSteps
	flags.GoalEpisodes = goalEpisodes
	flags.GoalRepeatAllowed = goalRepeatAllowed
	flags.Seed = seed
	flags.Debug = debug

	flags.NumRuns = numRuns
	flags.Episodes = episodes
	flags.Horizon = horizon
	flags.MaxConsecutiveErrors = maxConsecutiveErrors
	flags.MaxConsecutiveTimeouts = maxConsecutiveTimeouts
	flags.EpisodeTimeout = time.Duration(episodeTimeout) * time.Second
	flags.Parallelism = parallelism
}
