package rsp

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/arloliu/go-gdbrsp/logger"
)

// Default configuration values.
const (
	// DefaultRecvTimeout is the default per-operation receive timeout.
	// The generous value keeps slow targets (e.g. simulators or gateways
	// forwarding to hardware probes) from tripping spurious timeouts.
	DefaultRecvTimeout = 5 * time.Second

	// DefaultDialTimeout is the default TCP dial timeout.
	DefaultDialTimeout = 3 * time.Second

	// DefaultMaxPacketSize is the default safety ceiling for one received
	// packet, including framing and checksum bytes.
	DefaultMaxPacketSize = 128 * 1024
)

// TCP port range limits.
const (
	MinPort = 1
	MaxPort = 65535
)

// ConnConfig holds all configuration for an RSP connection to a remote stub.
type ConnConfig struct {
	host string
	port int

	// recvTimeout is the initial per-operation receive timeout; the
	// connection can adjust it later via [Conn.SetRecvTimeout].
	recvTimeout time.Duration

	// dialTimeout bounds the TCP connection establishment.
	dialTimeout time.Duration

	// maxPacketSize is the safety ceiling for one received packet.
	maxPacketSize int

	logger logger.Logger
}

// NewConnConfig creates a new RSP connection configuration.
//
// host is the stub address. port is the TCP port the stub listens on.
// opts are functional options applied in order; see With* functions.
func NewConnConfig(host string, port int, opts ...ConnOption) (*ConnConfig, error) {
	cfg := &ConnConfig{
		recvTimeout:   DefaultRecvTimeout,
		dialTimeout:   DefaultDialTimeout,
		maxPacketSize: DefaultMaxPacketSize,
		logger:        logger.GetLogger(),
	}

	if err := cfg.setHost(host); err != nil {
		return nil, err
	}
	if err := cfg.setPort(port); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *ConnConfig) setHost(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		cfg.host = host
		return nil
	}

	host = strings.TrimPrefix(host, ".")
	host = strings.TrimSuffix(host, ".")
	if _, err := net.LookupHost(host); err == nil {
		cfg.host = host
		return nil
	}

	return fmt.Errorf("rsp: invalid host %q", host)
}

func (cfg *ConnConfig) setPort(port int) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("rsp: invalid TCP port %d, expected number in range [%d, %d]", port, MinPort, MaxPort)
	}
	cfg.port = port

	return nil
}

// --- Getters ---

// Host returns the configured stub host address.
func (cfg *ConnConfig) Host() string { return cfg.host }

// Port returns the configured TCP port.
func (cfg *ConnConfig) Port() int { return cfg.port }

// Addr returns "host:port".
func (cfg *ConnConfig) Addr() string { return fmt.Sprintf("%s:%d", cfg.host, cfg.port) }

// RecvTimeout returns the initial per-operation receive timeout.
func (cfg *ConnConfig) RecvTimeout() time.Duration { return cfg.recvTimeout }

// DialTimeout returns the TCP dial timeout.
func (cfg *ConnConfig) DialTimeout() time.Duration { return cfg.dialTimeout }

// MaxPacketSize returns the safety ceiling for one received packet.
func (cfg *ConnConfig) MaxPacketSize() int { return cfg.maxPacketSize }

// GetLogger returns the configured logger.
func (cfg *ConnConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnConfig.
type ConnOption interface {
	apply(*ConnConfig) error
}

type connOptFunc func(*ConnConfig) error

func (f connOptFunc) apply(cfg *ConnConfig) error { return f(cfg) }

// WithRecvTimeout sets the per-operation receive timeout. Must be positive.
func WithRecvTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnConfig) error {
		if d <= 0 {
			return errors.New("rsp: receive timeout must be positive")
		}
		cfg.recvTimeout = d

		return nil
	})
}

// WithDialTimeout sets the TCP dial timeout. Must be positive.
func WithDialTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnConfig) error {
		if d <= 0 {
			return errors.New("rsp: dial timeout must be positive")
		}
		cfg.dialTimeout = d

		return nil
	})
}

// WithMaxPacketSize sets the safety ceiling for one received packet,
// including the '$', '#' and checksum bytes. Must be at least 4, the size
// of an empty packet.
func WithMaxPacketSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnConfig) error {
		if n < minPacketSize {
			return fmt.Errorf("rsp: max packet size %d below minimum %d", n, minPacketSize)
		}
		cfg.maxPacketSize = n

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnConfig) error {
		if l == nil {
			return errors.New("rsp: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
