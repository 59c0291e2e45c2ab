package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/gridworld"
)

func VerifyCommand() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that seeded runs and restored snapshots replay identically",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.EnvConfig(flags.Seed)
			if err != nil {
				return err
			}
			hash, err := gridworld.VerifyDeterminism(cfg, steps)
			if err != nil {
				return fmt.Errorf("determinism: %w", err)
			}
			fmt.Fprintf(os.Stdout, "determinism ok, trajectory %s\n", hash)

			hash, err = gridworld.VerifySnapshot(cfg, steps/2, steps)
			if err != nil {
				return fmt.Errorf("snapshot: %w", err)
			}
			fmt.Fprintf(os.Stdout, "snapshot ok, continuation %s\n", hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1000, "Number of steps to replay")

	return cmd
}
