package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func stopReplyCmd() *cobra.Command {
	flags := &connFlags{}

	var after string

	cmd := &cobra.Command{
		Use:   "stop-reply",
		Short: "Wait for a stop reply, printing console output",
		Long: `Wait until the stub reports a program stop, printing any console output
the program produces on the way, then the stop reply itself.

Use --after to resume or step the program first; raise --timeout for
programs that run long between stops.

Examples:
  gdbtool stop-reply --target qemu --after 'vCont;c' --timeout 60s
  gdbtool stop-reply --addr 127.0.0.1:1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStopReply(cmd, flags, after)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&after, "after", "", `Command to send before waiting, e.g. "vCont;c"`)

	return cmd
}

func runStopReply(cmd *cobra.Command, flags *connFlags, after string) error {
	client, err := flags.dial(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	if after != "" {
		if err := client.CmdNoReply(after); err != nil {
			return err
		}
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
