// Package config provides the configuration loader for a bchain node.
// Values come from CLI flags layered over environment variables; the
// environment names match the ones the original deployment scripts export.
package config

import (
	"github.com/spf13/viper"

	"bchain-network/pkg/utils"
)

// Config carries every setting the node runtime needs.
type Config struct {
	// Listen is the libp2p multiaddress the swarm binds to.
	Listen string
	// Wallet is the path to the PKCS#8 PEM encoded RSA private key.
	Wallet string
	// Database is the chain store path.
	Database string
	// Net is the gossip topic all participating nodes subscribe to.
	Net string
	// Peers are multiaddresses dialed at startup.
	Peers []string
	// Delay is the bootstrap timer in seconds, capped at 10.
	Delay int
	// Init makes this node write a fresh genesis block instead of joining.
	Init bool
	// API, when non-empty, binds the read-only HTTP status server.
	API string
}

// Environment variable names honoured as flag defaults.
const (
	EnvListen   = "LISTEN"
	EnvWallet   = "WALLET"
	EnvDatabase = "DATABASE"
	EnvNet      = "NET"
	EnvDelay    = "DELAY"
)

const maxDelay = 10

// FromEnv returns a Config populated with environment overrides falling back
// to the built-in defaults. CLI flags are bound on top by the caller.
func FromEnv() *Config {
	v := viper.New()
	v.SetDefault(EnvListen, "/ip4/0.0.0.0/tcp/0")
	v.SetDefault(EnvWallet, "pem/rsakey.pem")
	v.SetDefault(EnvDatabase, "chain.sqlite")
	v.SetDefault(EnvNet, "")
	v.AutomaticEnv()

	return &Config{
		Listen:   v.GetString(EnvListen),
		Wallet:   v.GetString(EnvWallet),
		Database: v.GetString(EnvDatabase),
		Net:      v.GetString(EnvNet),
		Delay:    utils.EnvOrDefaultInt(EnvDelay, 1),
	}
}

// BootstrapDelay returns the configured delay clamped to the allowed range.
func (c *Config) BootstrapDelay() int {
	if c.Delay > maxDelay {
		return maxDelay
	}
	if c.Delay < 0 {
		return 0
	}
	return c.Delay
}
