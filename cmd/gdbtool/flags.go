package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/go-gdbrsp/gdb"
	"github.com/arloliu/go-gdbrsp/logger"
	"github.com/arloliu/go-gdbrsp/rsp"
)

// connFlags holds the connection flags shared by every command that talks
// to a stub.
type connFlags struct {
	addr        string
	target      string
	targetsPath string
	timeout     time.Duration
	noAck       bool
	verbose     bool
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.addr, "addr", "a", "", "Stub address as host:port")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "Named target from the targets file")
	cmd.Flags().StringVar(&f.targetsPath, "targets-file", "", "Targets file (default: gdbtool/targets.toml under the user config dir)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", rsp.DefaultRecvTimeout, "Receive timeout per command")
	cmd.Flags().BoolVar(&f.noAck, "no-ack", false, "Negotiate no-ack mode after connecting")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log packet traffic")
}

// endpoint is the resolved form of the --addr/--target flags.
type endpoint struct {
	host    string
	port    int
	timeout time.Duration
	noAck   bool
}

// resolve merges the flags, and the targets file when --target is used,
// into one endpoint. An explicit --timeout wins over the target's timeout.
func (f *connFlags) resolve(cmd *cobra.Command) (endpoint, error) {
	switch {
	case f.addr != "" && f.target != "":
		return endpoint{}, errors.New("--addr and --target are mutually exclusive")
	case f.addr == "" && f.target == "":
		return endpoint{}, errors.New("specify a stub with --addr or --target")
	}

	ep := endpoint{timeout: f.timeout, noAck: f.noAck}

	if f.addr != "" {
		host, portText, err := net.SplitHostPort(f.addr)
		if err != nil {
			return endpoint{}, fmt.Errorf("parse --addr: %w", err)
		}

		port, err := strconv.Atoi(portText)
		if err != nil {
			return endpoint{}, fmt.Errorf("parse --addr port %q: %w", portText, err)
		}

		ep.host = host
		ep.port = port

		return ep, nil
	}

	path := f.targetsPath
	if path == "" {
		var err error
		path, err = defaultTargetsPath()
		if err != nil {
			return endpoint{}, err
		}
	}

	targets, err := loadTargets(path)
	if err != nil {
		return endpoint{}, err
	}

	target, ok := targets[f.target]
	if !ok {
		return endpoint{}, fmt.Errorf("target %q not found in %s", f.target, path)
	}

	ep.host = target.Host
	ep.port = target.Port
	ep.noAck = f.noAck || target.NoAck

	if target.Timeout > 0 && !cmd.Flags().Changed("timeout") {
		ep.timeout = target.Timeout
	}

	return ep, nil
}

// dial connects to the stub selected by the flags, negotiating no-ack mode
// when asked for. The caller owns the returned client and must close it.
func (f *connFlags) dial(cmd *cobra.Command) (*gdb.Client, error) {
	ep, err := f.resolve(cmd)
	if err != nil {
		return nil, err
	}

	opts := []rsp.ConnOption{rsp.WithRecvTimeout(ep.timeout)}
	if f.verbose {
		opts = append(opts, rsp.WithLogger(logger.NewSlog(logger.DebugLevel, false)))
	}

	cfg, err := rsp.NewConnConfig(ep.host, ep.port, opts...)
	if err != nil {
		return nil, err
	}

	client, err := gdb.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(cmd.Context()); err != nil {
		return nil, err
	}

	if ep.noAck {
		if err := client.StartNoAckMode(); err != nil {
			_ = client.Close()

			return nil, err
		}
	}

	return client, nil
}
