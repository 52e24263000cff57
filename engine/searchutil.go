package engine

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/CoolingAtol/ChessBot/board"
)

// principalVariation follows stored best moves from the root, starting with
// first, for at most depth plies. Every move is checked for legality before
// it is played, since a slot may hold a colliding key.
func principalVariation(pos Position, tt *TransTable, first board.Move, depth int) []board.Move {
	if first.IsNull() {
		return nil
	}
	pv := []board.Move{first}
	pos.MakeMove(first)
	for len(pv) < depth {
		entry, ok := tt.Lookup(pos.Key())
		if !ok || entry.BestMove.IsNull() {
			break
		}
		if !slices.Contains(pos.LegalMoves(false), entry.BestMove) {
			break
		}
		pv = append(pv, entry.BestMove)
		pos.MakeMove(entry.BestMove)
	}
	for i := len(pv) - 1; i >= 0; i-- {
		pos.UnmakeMove(pv[i])
	}
	return pv
}

func pvString(pv []board.Move) string {
	parts := make([]string, len(pv))
	for i, m := range pv {
		parts[i] = m.String()
	}
	return strings.Join(parts, " ")
}

// FormatScore renders a score the way UCI expects it: "cp N" or "mate N",
// where N counts full moves and is negative when we are being mated.
func FormatScore(score Score) string {
	switch {
	case score >= MateThreshold:
		plies := int(MateScore - score)
		return fmt.Sprintf("mate %d", (plies+1)/2)
	case score <= -MateThreshold:
		plies := int(MateScore + score)
		return fmt.Sprintf("mate %d", -(plies+1)/2)
	}
	return fmt.Sprintf("cp %d", score)
}

// IsMateScore reports whether score encodes a forced mate.
func IsMateScore(score Score) bool {
	return Abs(score) >= MateThreshold
}
