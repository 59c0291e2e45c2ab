package cmd

import (
	"fmt"
	"log"
	"os"
	"path"

	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/gridworld"
	"github.com/zeu5/fourrooms/fourrooms"
	"github.com/zeu5/fourrooms/util"
)

func CheckpointCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Take random steps and save the environment state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.EnvConfig(flags.Seed)
			if err != nil {
				return err
			}
			env, err := fourrooms.New(cfg)
			if err != nil {
				return err
			}
			for _, a := range gridworld.ActionSequence(flags.Seed+1, steps) {
				if _, ok := env.Position(); !ok {
					env.Reset()
				}
				if _, err := env.Step(a); err != nil {
					return err
				}
			}
			file := path.Join(flags.SavePath, "snapshot.json")
			if err := util.SaveJson(file, env.Snapshot()); err != nil {
				return err
			}
			log.Printf("[fourrooms] saved state after %d steps to %s", steps, file)
			return env.Render(os.Stdout)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 100, "Number of random steps before saving")

	return cmd
}

func ResumeCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "resume [snapshot]",
		Short: "Restore a saved environment and continue with random steps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := path.Join(flags.SavePath, "snapshot.json")
			if len(args) == 1 {
				file = args[0]
			}
			snap, err := fourrooms.LoadSnapshot(file)
			if err != nil {
				return err
			}
			env, err := fourrooms.New(fourrooms.DefaultConfig())
			if err != nil {
				return err
			}
			if err := env.Restore(snap); err != nil {
				return err
			}

			reached := 0
			for _, a := range gridworld.ActionSequence(flags.Seed+2, steps) {
				if _, ok := env.Position(); !ok {
					env.Reset()
				}
				res, err := env.Step(a)
				if err != nil {
					return err
				}
				if res.Done {
					reached++
				}
			}
			fmt.Fprintf(os.Stdout, "Resumed from %s, %d steps, reached the goal %d times\n", file, steps, reached)
			return env.Render(os.Stdout)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 100, "Number of random steps after restoring")

	return cmd
}
