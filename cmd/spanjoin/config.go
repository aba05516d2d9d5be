package main

import (
	"context"
	"fmt"

	"go.llib.dev/frameless/pkg/env"
	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/spanjoin/adapter/bolt"
	"go.llib.dev/spanjoin/adapter/sqlite"
	"go.llib.dev/spanjoin/port/spanstore"
)

// ErrEphemeralStore is returned for the memory store,
// since every spanjoin invocation is its own process and the annotations would not outlive it.
const ErrEphemeralStore errorkit.Error = "the memory store does not persist between spanjoin invocations"

type Config struct {
	Store    string `env:"SPANJOIN_STORE" enum:"sqlite;bolt;" default:"sqlite"`
	DSN      string `env:"SPANJOIN_DSN" default:"spanjoin.db"`
	Strict   bool   `env:"SPANJOIN_STRICT" default:"false"`
	LogLevel string `env:"SPANJOIN_LOG_LEVEL" enum:"debug;info;warn;error;fatal;" default:"info"`
}

func LoadConfig() (Config, error) {
	var c Config
	return c, env.Load(&c)
}

// OpenStore opens the configured store.
// The returned close func releases the store.
func (c Config) OpenStore(ctx context.Context) (spanstore.Store, func() error, error) {
	switch c.Store {
	case "memory":
		return nil, nil, ErrEphemeralStore
	case "sqlite":
		s, err := sqlite.Open(ctx, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "bolt":
		s, err := bolt.Open(c.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind: %q", c.Store)
	}
}
