package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-gdbrsp/rsp"
)

func targetsCmd() *cobra.Command {
	var targetsPath string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the named targets from the targets file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(targetsPath)
		},
	}

	cmd.Flags().StringVar(&targetsPath, "targets-file", "", "Targets file (default: gdbtool/targets.toml under the user config dir)")

	return cmd
}

func runTargets(path string) error {
	if path == "" {
		var err error
		path, err = defaultTargetsPath()
		if err != nil {
			return err
		}
	}

	targets, err := loadTargets(path)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		fmt.Printf("no targets defined in %s\n", path)

		return nil
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-16s %-24s %-10s %s\n", "NAME", "ADDRESS", "TIMEOUT", "NO-ACK")
	for _, name := range names {
		target := targets[name]

		timeout := target.Timeout
		if timeout == 0 {
			timeout = rsp.DefaultRecvTimeout
		}

		fmt.Printf("%-16s %-24s %-10v %v\n", name, fmt.Sprintf("%s:%d", target.Host, target.Port), timeout, target.NoAck)
	}

	return nil
}
