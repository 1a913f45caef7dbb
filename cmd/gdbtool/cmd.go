package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-gdbrsp/gdb"
)

func cmdCmd() *cobra.Command {
	flags := &connFlags{}

	var (
		noReply   bool
		hexOutput bool
	)

	cmd := &cobra.Command{
		Use:   "cmd <command>...",
		Short: "Send commands and print their replies",
		Long: `Send one or more protocol commands to the stub and print each reply on
its own line.

Examples:
  gdbtool cmd --addr 127.0.0.1:1234 qSupported
  gdbtool cmd --target qemu 'qRcmd,726573756d65'
  gdbtool cmd --target qemu --hex g
  gdbtool cmd --target qemu --no-reply 'vCont;c'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmd(cmd, flags, args, noReply, hexOutput)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noReply, "no-reply", false, "Send without waiting for a reply")
	cmd.Flags().BoolVarP(&hexOutput, "hex", "x", false, "Print replies as hex instead of text")

	return cmd
}

func runCmd(cmd *cobra.Command, flags *connFlags, cmds []string, noReply, hexOutput bool) error {
	client, err := flags.dial(cmd)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, c := range cmds {
		if err := runOneCmd(client, c, noReply, hexOutput); err != nil {
			return fmt.Errorf("command %q: %w", c, err)
		}
	}

	return nil
}

func runOneCmd(client *gdb.Client, c string, noReply, hexOutput bool) error {
	if noReply {
		return client.CmdNoReply(c)
	}

	if hexOutput {
		reply, err := client.CmdBinary([]byte(c))
		if err != nil {
			return err
		}

		fmt.Printf("%x\n", reply)

		return nil
	}

	reply, err := client.Cmd(c)
	if err != nil {
		return err
	}

	fmt.Println(reply)

	return nil
}
