package cmd

import (
	"log"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/gridworld"
)

func PlayCommand() *cobra.Command {
	var (
		delay   time.Duration
		epsilon float64
		load    string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Train a single epsilon greedy learner and draw the grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.EnvConfig(flags.Seed)
			if err != nil {
				return err
			}

			ctx, stop := interruptContext()
			defer stop()
			result, err := gridworld.Play(ctx, gridworld.PlayOptions{
				Config:     cfg,
				Episodes:   flags.Episodes,
				Horizon:    flags.Horizon,
				Delay:      delay,
				Epsilon:    epsilon,
				LoadPath:   load,
				RecordPath: path.Join(flags.SavePath, "qtable.jsonl"),
				Out:        os.Stdout,
			})
			if err != nil {
				return err
			}
			log.Printf("[fourrooms] played %d episodes, reached the goal %d times", result.Episodes, result.Reached)
			return nil
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "Delay between drawn steps")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0.1, "Exploration rate")
	cmd.Flags().StringVar(&load, "load", "", "Q-table from an earlier play")

	return cmd
}
