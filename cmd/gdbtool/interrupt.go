package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func interruptCmd() *cobra.Command {
	flags := &connFlags{}

	var noWait bool

	cmd := &cobra.Command{
		Use:   "interrupt",
		Short: "Interrupt the running program",
		Long: `Send the out-of-band interrupt byte (Ctrl-C) to the stub, then wait for
the stop reply that reports where the program stopped.

Examples:
  gdbtool interrupt --addr 127.0.0.1:1234
  gdbtool interrupt --target qemu --no-wait`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterrupt(cmd, flags, noWait)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Send the interrupt without waiting for the stop reply")

	return cmd
}

func runInterrupt(cmd *cobra.Command, flags *connFlags, noWait bool) error {
	client, err := flags.dial(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Interrupt(); err != nil {
		return err
	}

	if noWait {
		return nil
	}

	reply, console, err := client.StopReply()
	if err != nil {
		return err
	}

	if console != "" {
		fmt.Print(console)
	}
	fmt.Println(reply)

	return nil
}
