package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/go-gdbrsp/rsp"
)

// Target is one named stub endpoint from the targets file.
type Target struct {
	Host    string
	Port    int
	Timeout time.Duration
	NoAck   bool
}

// targetsFile mirrors the on-disk TOML layout:
//
//	[targets.qemu]
//	host = "127.0.0.1"
//	port = 1234
//	timeout = "10s"
//	no_ack = true
type targetsFile struct {
	Targets map[string]targetEntry `toml:"targets"`
}

type targetEntry struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Timeout string `toml:"timeout"`
	NoAck   bool   `toml:"no_ack"`
}

// loadTargets reads and validates the targets file at path.
func loadTargets(path string) (map[string]Target, error) {
	var raw targetsFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load targets file %s: %w", path, err)
	}

	targets := make(map[string]Target, len(raw.Targets))
	for name, entry := range raw.Targets {
		target, err := parseTarget(entry)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}

		targets[name] = target
	}

	return targets, nil
}

func parseTarget(entry targetEntry) (Target, error) {
	if strings.TrimSpace(entry.Host) == "" {
		return Target{}, errors.New("host is required")
	}

	if entry.Port < rsp.MinPort || entry.Port > rsp.MaxPort {
		return Target{}, fmt.Errorf("port %d out of range [%d, %d]", entry.Port, rsp.MinPort, rsp.MaxPort)
	}

	target := Target{Host: entry.Host, Port: entry.Port, NoAck: entry.NoAck}

	if entry.Timeout != "" {
		d, err := time.ParseDuration(entry.Timeout)
		if err != nil {
			return Target{}, fmt.Errorf("parse timeout: %w", err)
		}
		if d <= 0 {
			return Target{}, fmt.Errorf("timeout %v must be positive", d)
		}

		target.Timeout = d
	}

	return target, nil
}

// defaultTargetsPath returns gdbtool/targets.toml under the user config
// directory, e.g. ~/.config/gdbtool/targets.toml on Linux.
func defaultTargetsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}

	return filepath.Join(dir, "gdbtool", "targets.toml"), nil
}
