package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/fourrooms/benchmarks/common"
)

func RootCommand() *cobra.Command {
	common.LoadDotEnv()
	flags = common.DefaultFlags()

	cmd := &cobra.Command{
		Use:          "fourrooms",
		Short:        "Four rooms grid world experiments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			UpdateFlags()
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		RunCommand(),
		PlayCommand(),
		CheckpointCommand(),
		ResumeCommand(),
		VerifyCommand(),
	)

	return cmd
}

// interruptContext is cancelled on an interrupt from the os or when stop is called
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}
