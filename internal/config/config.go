// Package config parses CLI arguments and environment overrides for the
// server and client binaries, per §6 and §8 of SPEC_FULL.md (additive
// environment overrides on top of the fixed positional CLI contract; there
// are no command-line flags).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultPort is the fixed SDTP server port, per §6.
	DefaultPort = 21020
	// PayloadFile is the fixed payload path both endpoints read, per §6.
	PayloadFile = "./lorem_ipsum.txt"
)

// ServerConfig is the parsed configuration for the server binary.
type ServerConfig struct {
	Seed        int64
	IdleTimeout time.Duration
	LogLevel    string
}

// ParseServer builds a ServerConfig from environment overrides. The server
// CLI takes no positional arguments, per §6.
func ParseServer(args []string) (ServerConfig, error) {
	if len(args) != 0 {
		return ServerConfig{}, fmt.Errorf("usage: server (no arguments)")
	}
	cfg := ServerConfig{
		Seed:     seedFromEnv("SDTP_SEED"),
		LogLevel: envOr("SDTP_LOG_LEVEL", "info"),
	}
	if v := os.Getenv("SDTP_IDLE_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("invalid SDTP_IDLE_TIMEOUT_MS: %w", err)
		}
		cfg.IdleTimeout = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}

// ClientConfig is the parsed configuration for the client binary.
type ClientConfig struct {
	ServerHost string
	ServerPort int
	LogLevel   string
}

// ParseClient validates `client <server_ip> <server_port>`, per §6. It
// returns a usage error (exit code 1 per the CLI contract) on bad argc.
func ParseClient(args []string) (ClientConfig, error) {
	if len(args) != 2 {
		return ClientConfig{}, fmt.Errorf("usage: client <server_ip> <server_port>")
	}
	port, err := strconv.Atoi(args[1])
	if err != nil {
		return ClientConfig{}, fmt.Errorf("invalid port %q: %w", args[1], err)
	}
	return ClientConfig{
		ServerHost: args[0],
		ServerPort: port,
		LogLevel:   envOr("SDTP_LOG_LEVEL", "info"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedFromEnv reads a PRNG seed from the environment, falling back to the
// current time so unseeded runs are still non-degenerate. A seed MAY be
// injected for reproducibility, per §6.
func seedFromEnv(key string) int64 {
	if v := os.Getenv(key); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}
