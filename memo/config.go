package memo

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/on-the-ground/memoize_go/observe"
)

const defaultNumShards = 16

// Config tunes a Memoizer. The zero value is usable once passed through
// NewConfig.
type Config struct {
	Name      string // shows up in every Event
	NumShards int    // default: 16

	// CancelOnLeaderDone runs an asynchronous operation with the context of
	// the caller that started the flight. By default cancellation is
	// stripped so one caller giving up does not fail everyone sharing the flight.
	CancelOnLeaderDone bool

	Observer observe.Observer // default: observe.Noop
}

// NewConfig fills in defaults.
func NewConfig(cfg Config) Config {
	if cfg.NumShards <= 0 {
		cfg.NumShards = defaultNumShards
	}
	if cfg.Observer == nil {
		cfg.Observer = observe.Noop
	}
	return cfg
}

type envConfig struct {
	Name               string `env:"MEMO_NAME"`
	NumShards          int    `env:"MEMO_NUM_SHARDS" envDefault:"16"`
	CancelOnLeaderDone bool   `env:"MEMO_CANCEL_ON_LEADER_DONE" envDefault:"false"`
}

// ConfigFromEnv reads MEMO_NAME, MEMO_NUM_SHARDS and MEMO_CANCEL_ON_LEADER_DONE.
// The observer is left at its default; set it on the returned value.
func ConfigFromEnv() (Config, error) {
	ec, err := env.ParseAs[envConfig]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse memoizer config: %w", err)
	}
	return NewConfig(Config{
		Name:               ec.Name,
		NumShards:          ec.NumShards,
		CancelOnLeaderDone: ec.CancelOnLeaderDone,
	}), nil
}
