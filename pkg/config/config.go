package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/jamiealquiza/envy"
)

// EnvPrefix is prepended to every flag name when read from the environment,
// e.g. -grpc-addr becomes LOCKCACHE_GRPC_ADDR.
const EnvPrefix = "LOCKCACHE"

type Config struct {
	NodeID          string        //server id reported by GetStatus, a fresh uuid if empty
	GRPCAddr        string        //lock service listen address
	HTTPAddr        string        //HTTP gateway listen address, empty disables it
	LogLevel        string        //debug, info, warn, error
	LogFile         string        //rotated log file, empty logs to stderr
	CallbackTimeout time.Duration //deadline of a single revoke/retry call
}

func Default() Config {
	return Config{
		GRPCAddr:        ":9000",
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		CallbackTimeout: 5 * time.Second,
	}
}

// registers every field on fs, defaults taken from c
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.NodeID, "node-id", c.NodeID, "Unique node ID (generates UUID if empty)")
	fs.StringVar(&c.GRPCAddr, "grpc-addr", c.GRPCAddr, "gRPC server address")
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP gateway address (empty disables the gateway)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: [debug, info, warn, error]")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Log to this file with rotation instead of stderr")
	fs.DurationVar(&c.CallbackTimeout, "callback-timeout", c.CallbackTimeout, "Deadline for a single revoke/retry callback (0 disables)")
}

// registers on flag.CommandLine, applies the environment (LOCKCACHE_*) and
// then parses args; flags win over env
// envy only walks the global flag set, so this must be called once per process
func Load(args []string) (Config, error) {
	cfg := Default()
	cfg.RegisterFlags(flag.CommandLine)

	envy.Parse(EnvPrefix)
	if err := flag.CommandLine.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("grpc-addr is required")
	}
	if _, _, err := net.SplitHostPort(c.GRPCAddr); err != nil {
		return fmt.Errorf("invalid grpc-addr %q: %w", c.GRPCAddr, err)
	}
	if c.HTTPAddr != "" {
		if _, _, err := net.SplitHostPort(c.HTTPAddr); err != nil {
			return fmt.Errorf("invalid http-addr %q: %w", c.HTTPAddr, err)
		}
	}
	if c.NodeID != "" {
		if _, err := uuid.Parse(c.NodeID); err != nil {
			return fmt.Errorf("invalid node-id: %w", err)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q", c.LogLevel)
	}
	if c.CallbackTimeout < 0 {
		return errors.New("callback-timeout must not be negative")
	}
	return nil
}

// returns the configured node id, generating one if none was set
func (c *Config) ResolveNodeID() uuid.UUID {
	if c.NodeID == "" {
		return uuid.New()
	}
	return uuid.MustParse(c.NodeID)
}
