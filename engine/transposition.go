package engine

import (
	"unsafe"

	"github.com/CoolingAtol/ChessBot/board"
)

// Bound says how a stored value relates to the true value of the position.
// The zero value marks an empty slot.
type Bound uint8

const (
	Exact      Bound = iota + 1
	LowerBound       // failed high: true value >= Value
	UpperBound       // failed low: true value <= Value
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case LowerBound:
		return "lower"
	case UpperBound:
		return "upper"
	}
	return "empty"
}

type TTEntry struct {
	Key      uint64
	Value    Score
	BestMove board.Move
	Depth    int8
	Bound    Bound
}

// TransTable maps position keys to search results. Each key hashes to one
// slot and a store always overwrites that slot: last write wins, with no
// depth preference or aging.
type TransTable struct {
	entries []TTEntry
	mask    uint64

	probes uint64
	hits   uint64
}

// NewTransTable allocates a table of roughly sizeMB megabytes, rounded down
// to a power of two number of entries.
func NewTransTable(sizeMB int) *TransTable {
	entrySize := uint64(unsafe.Sizeof(TTEntry{}))
	count := roundDownToPowerOf2(uint64(Max(sizeMB, 1)) * 1024 * 1024 / entrySize)
	if count == 0 {
		count = 1
	}
	return &TransTable{
		entries: make([]TTEntry, count),
		mask:    count - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Lookup returns the entry stored for key, if the slot holds that key.
func (tt *TransTable) Lookup(key uint64) (TTEntry, bool) {
	tt.probes++
	entry := tt.entries[key&tt.mask]
	if entry.Bound == 0 || entry.Key != key {
		return TTEntry{}, false
	}
	tt.hits++
	return entry, true
}

// Store writes e into the slot for e.Key, replacing whatever was there.
func (tt *TransTable) Store(e TTEntry) {
	tt.entries[e.Key&tt.mask] = e
}

func (tt *TransTable) Clear() {
	clear(tt.entries)
	tt.probes, tt.hits = 0, 0
}

// Len counts occupied slots.
func (tt *TransTable) Len() int {
	n := 0
	for i := range tt.entries {
		if tt.entries[i].Bound != 0 {
			n++
		}
	}
	return n
}

func (tt *TransTable) Capacity() int { return len(tt.entries) }

// HitRate is the share of lookups since the last Clear that found their key.
func (tt *TransTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes)
}

// Hashfull is the per-mille occupancy reported to UCI, sampled from the
// first thousand slots.
func (tt *TransTable) Hashfull() int {
	n := Min(len(tt.entries), 1000)
	used := 0
	for i := 0; i < n; i++ {
		if tt.entries[i].Bound != 0 {
			used++
		}
	}
	return used * 1000 / n
}

// cutoff applies a stored entry at a node searched to depth with window
// (alpha, beta). It reports a usable value only when the entry is at least as
// deep and its bound settles the node.
func (e TTEntry) cutoff(depth int, alpha, beta Score, ply int) (Score, bool) {
	if int(e.Depth) < depth {
		return 0, false
	}
	value := scoreFromTT(e.Value, ply)
	switch e.Bound {
	case Exact:
		return value, true
	case LowerBound:
		if value >= beta {
			return beta, true
		}
	case UpperBound:
		if value <= alpha {
			return alpha, true
		}
	}
	return 0, false
}

// classifyBound picks the bound for a finished node given the window it was
// searched with.
func classifyBound(best, alphaOrig, beta Score) Bound {
	switch {
	case best <= alphaOrig:
		return UpperBound
	case best >= beta:
		return LowerBound
	}
	return Exact
}

// Mate scores are stored relative to the node rather than the root so an
// entry stays valid wherever the position recurs in the tree.
func scoreToTT(s Score, ply int) Score {
	switch {
	case s >= MateThreshold:
		return s + Score(ply)
	case s <= -MateThreshold:
		return s - Score(ply)
	}
	return s
}

func scoreFromTT(s Score, ply int) Score {
	switch {
	case s >= MateThreshold:
		return s - Score(ply)
	case s <= -MateThreshold:
		return s + Score(ply)
	}
	return s
}
