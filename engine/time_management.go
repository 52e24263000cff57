package engine

import "time"

// Clock is the side to move's game clock for one turn. It starts running
// when created.
type Clock struct {
	start     time.Time
	remaining time.Duration
	increment time.Duration
	now       func() time.Time
}

// NewClock starts a turn with remaining on the clock and increment added
// after each move.
func NewClock(remaining, increment time.Duration) *Clock {
	return &Clock{
		start:     time.Now(),
		remaining: remaining,
		increment: increment,
		now:       time.Now,
	}
}

func (c *Clock) ElapsedThisTurn() time.Duration {
	return c.now().Sub(c.start)
}

func (c *Clock) Remaining() time.Duration {
	if r := c.remaining - c.ElapsedThisTurn(); r > 0 {
		return r
	}
	return 0
}

func (c *Clock) Increment() time.Duration { return c.increment }

// MoveTime is a fixed budget per move, as in UCI "go movetime".
type MoveTime struct {
	start time.Time
	limit time.Duration
}

func NewMoveTime(limit time.Duration) *MoveTime {
	return &MoveTime{start: time.Now(), limit: limit}
}

func (m *MoveTime) ElapsedThisTurn() time.Duration { return time.Since(m.start) }

func (m *MoveTime) Remaining() time.Duration {
	if r := m.limit - m.ElapsedThisTurn(); r > 0 {
		return r
	}
	return 0
}

// Budget overrides the clock-based allotment.
func (m *MoveTime) Budget() time.Duration { return m.limit }

type budgeter interface {
	Budget() time.Duration
}

type incrementer interface {
	Increment() time.Duration
}

// Engine-side safety knobs for the allotment.
const (
	minMoveTime = time.Millisecond
	maxTenths   = 7 // never plan to spend more than this many tenths of the clock
)

// allotTime decides how long this turn may take: remaining/TimeDivisor plus
// TimeBuffer and half the increment, capped to a share of what is left.
func (c Config) allotTime(t Timer) time.Duration {
	if b, ok := t.(budgeter); ok {
		return b.Budget()
	}
	rem := t.Remaining()
	budget := rem/time.Duration(c.TimeDivisor) + c.TimeBuffer
	if inc, ok := t.(incrementer); ok {
		budget += inc.Increment() / 2
	}
	if limit := rem * maxTenths / 10; budget > limit {
		budget = limit
	}
	return Max(budget, minMoveTime)
}
