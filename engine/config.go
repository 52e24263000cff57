package engine

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the tunable knobs of a Searcher. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	MaxDepth      int           // iterative deepening ceiling
	HashMB        int           // transposition table size
	TimeDivisor   int           // share of the remaining clock spent per move
	TimeBuffer    time.Duration // added on top of remaining/TimeDivisor
	UseQuiescence bool          // false evaluates depth-zero nodes statically
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:      10,
		HashMB:        64,
		TimeDivisor:   30,
		TimeBuffer:    50 * time.Millisecond,
		UseQuiescence: true,
	}
}

var ErrInvalidConfig = errors.New("invalid config")

func (c Config) Validate() error {
	if c.MaxDepth < 1 || c.MaxDepth > MaxPly/2 {
		return fmt.Errorf("%w: MaxDepth %d outside [1, %d]", ErrInvalidConfig, c.MaxDepth, MaxPly/2)
	}
	if c.HashMB < 1 {
		return fmt.Errorf("%w: HashMB must be positive, got %d", ErrInvalidConfig, c.HashMB)
	}
	if c.TimeDivisor < 1 {
		return fmt.Errorf("%w: TimeDivisor must be positive, got %d", ErrInvalidConfig, c.TimeDivisor)
	}
	if c.TimeBuffer < 0 {
		return fmt.Errorf("%w: negative TimeBuffer", ErrInvalidConfig)
	}
	return nil
}
