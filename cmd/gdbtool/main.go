package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gdbtool",
		Short: "Talk to GDB remote stubs from the command line",
		Long: `gdbtool drives a GDB remote stub (gdbserver, OpenOCD, QEMU, ...) over TCP
using the Remote Serial Protocol, without bringing up a full debugger.

Stubs are addressed directly with --addr host:port, or by name with
--target using a TOML targets file. Typical uses:

  gdbtool cmd --addr 127.0.0.1:1234 qSupported
  gdbtool cmd --target qemu 'm1000,4'
  gdbtool stop-reply --target qemu --after 'vCont;c'
  gdbtool interrupt --target qemu`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		cmdCmd(),
		stopReplyCmd(),
		interruptCmd(),
		targetsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
