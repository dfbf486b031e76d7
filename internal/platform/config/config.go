// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

Settings come from two layers, applied in order:

 1. Environment variables, mapped onto [Config] by 'caarlos0/env'.
 2. Command-line flags of the selected subcommand ('spf13/pflag'), which
    override the environment.

[Config.Validate] then checks the merged result for the subcommand being run.

Usage:

	cfg, err := config.Load(config.CommandRun, os.Args[2:])
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to components through
their constructors.
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// # Subcommands

// Command names the operator-facing subcommand being configured.
type Command string

const (
	// CommandRun starts the HTTP server.
	CommandRun Command = "run"

	// CommandInit bootstraps the admin principal and the client-id allow-list, then exits.
	CommandInit Command = "init"

	// CommandAdmin updates the admin password, then exits.
	CommandAdmin Command = "admin"
)

// ParseCommand resolves a subcommand name.
func ParseCommand(name string) (Command, error) {
	switch Command(name) {
	case CommandRun, CommandInit, CommandAdmin:
		return Command(name), nil
	default:
		return "", fmt.Errorf("config: unknown command %q (want run, init or admin)", name)
	}
}

// # Configuration Schema

// Config holds all runtime configuration for the yomira-id server.
type Config struct {

	// Server settings
	ListenAddress string `env:"LISTEN_ADDRESS" envDefault:"0.0.0.0"`
	ServerPort    string `env:"SERVER_PORT"    envDefault:"8000"`
	Environment   string `env:"ENVIRONMENT"    envDefault:"development"`
	Debug         bool   `env:"DEBUG"          envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath overrides the embedded SQL migrations with a directory on disk.
	MigrationPath string `env:"MIGRATION_PATH"`

	// Key-Value Cache (Redis). Optional unless a blind-sign quota is set.
	RedisURL string `env:"REDIS_URL"`

	// Identity signing key
	SigningAlgorithm string `env:"SIGNING_ALGORITHM" envDefault:"ES256"`
	SigningKeyPath   string `env:"SIGNING_KEY_PATH"`
	WithKeyID        bool   `env:"WITH_KEY_ID"       envDefault:"false"`
	TokenIssuer      string `env:"TOKEN_ISSUER"`

	// Allow-listed client ids. Empty accepts any client id or none.
	ClientIDs []string `env:"CLIENT_IDS" envSeparator:","`

	// AdminPassword seeds the bootstrap admin; a random one is generated when empty.
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Token lifetimes
	IDTokenTTL      time.Duration `env:"ID_TOKEN_TTL"      envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// Blind-signature keys
	BlindRotationPeriod time.Duration `env:"BLIND_ROTATION_PERIOD" envDefault:"24h"`
	BlindRetiredKeys    int           `env:"BLIND_RETIRED_KEYS"    envDefault:"1"`
	BlindKeyBits        int           `env:"BLIND_KEY_BITS"        envDefault:"4096"`
	BlindSignQuota      int           `env:"BLIND_SIGN_QUOTA"      envDefault:"0"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config], applies the flags of
// command from args, and validates the result for that command.
func Load(command Command, args []string) (*Config, error) {
	cfg := &Config{}

	// Fields are filled from the environment first; defaults come from envDefault.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	flags := cfg.flagSet(command)
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s flags: %w", command, err)
	}

	if err := cfg.Validate(command); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagSet binds the flags of a subcommand directly to the fields of cfg,
// using the environment-derived values as flag defaults.
func (c *Config) flagSet(command Command) *pflag.FlagSet {
	flags := pflag.NewFlagSet(string(command), pflag.ContinueOnError)
	flags.SetOutput(io.Discard)

	flags.StringVarP(&c.DatabaseURL, "database-url", "d", c.DatabaseURL, "PostgreSQL connection URL")

	switch command {
	case CommandRun:
		flags.StringVar(&c.ListenAddress, "listen-address", c.ListenAddress, "address to listen on")
		flags.StringVarP(&c.ServerPort, "port", "p", c.ServerPort, "port to listen on")
		flags.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "Redis connection URL")
		flags.StringVarP(&c.SigningAlgorithm, "signing-algorithm", "a", c.SigningAlgorithm, "ID token signing algorithm (ES256 or EdDSA)")
		flags.StringVarP(&c.SigningKeyPath, "signing-key", "s", c.SigningKeyPath, "path to the PEM signing key")
		flags.BoolVar(&c.WithKeyID, "with-key-id", c.WithKeyID, "embed the key id in ID token headers")
		flags.StringVarP(&c.TokenIssuer, "token-issuer", "i", c.TokenIssuer, "issuer URL placed in ID tokens")
		flags.StringSliceVarP(&c.ClientIDs, "client-ids", "c", c.ClientIDs, "comma separated allow-listed client ids")
		flags.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "bootstrap admin password")

	case CommandInit:
		flags.StringSliceVarP(&c.ClientIDs, "client-ids", "c", c.ClientIDs, "comma separated allow-listed client ids")
		flags.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "bootstrap admin password")

	case CommandAdmin:
		flags.StringVar(&c.AdminPassword, "admin-password", c.AdminPassword, "new admin password")
	}

	return flags
}

// # Validation

// Validate checks that the settings required by command are present and coherent.
func (c *Config) Validate(command Command) error {
	var problems []error

	if c.DatabaseURL == "" {
		problems = append(problems, errors.New("database url is required"))
	}

	switch command {
	case CommandRun:
		if c.SigningKeyPath == "" {
			problems = append(problems, errors.New("signing key path is required"))
		}
		if c.TokenIssuer == "" {
			problems = append(problems, errors.New("token issuer is required"))
		}
		if _, err := sec.ParseAlgorithm(c.SigningAlgorithm); err != nil {
			problems = append(problems, err)
		}
		if c.IDTokenTTL <= 0 || c.RefreshTokenTTL <= c.IDTokenTTL {
			problems = append(problems, errors.New("refresh token ttl must exceed a positive id token ttl"))
		}
		if c.BlindRotationPeriod <= 0 {
			problems = append(problems, errors.New("blind rotation period must be positive"))
		}
		if c.BlindRetiredKeys < 0 {
			problems = append(problems, errors.New("blind retired keys must not be negative"))
		}
		if c.BlindKeyBits < 2048 {
			problems = append(problems, errors.New("blind key size must be at least 2048 bits"))
		}
		if c.BlindSignQuota < 0 {
			problems = append(problems, errors.New("blind sign quota must not be negative"))
		}
		if c.BlindSignQuota > 0 && c.RedisURL == "" {
			problems = append(problems, errors.New("blind sign quota requires a redis url"))
		}

	case CommandAdmin:
		if c.AdminPassword == "" {
			problems = append(problems, errors.New("admin password is required"))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid %s configuration: %w", command, errors.Join(problems...))
	}
	return nil
}

// SigningAlgorithmTag returns the parsed signing algorithm.
func (c *Config) SigningAlgorithmTag() (sec.Algorithm, error) {
	return sec.ParseAlgorithm(c.SigningAlgorithm)
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenAddress, c.ServerPort)
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
