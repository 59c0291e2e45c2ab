package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/gridworld"
)

func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compare learners on the grid world",
		RunE: func(cmd *cobra.Command, args []string) error {
			rConfig := flags.RunConfig()
			if err := rConfig.Validate(); err != nil {
				return err
			}
			cmp, err := gridworld.PrepareComparison(flags)
			if err != nil {
				return err
			}

			ctx, stop := interruptContext()
			defer stop()
			cmp.Run(ctx, flags.NumRuns, rConfig, flags.Parallelism)
			return nil
		},
	}

	return cmd
}
