package rules

import "github.com/CoolingAtol/ChessBot/board"

// Perft counts leaf nodes of the legal move tree to the given depth. Every
// move goes through MakeMove/UnmakeMove, so it exercises the same path the
// search uses.
func (b *Board) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := b.LegalMoves(false)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		b.MakeMove(m)
		nodes += b.Perft(depth - 1)
		b.UnmakeMove(m)
	}
	return nodes
}

// Divide reports the perft count below each root move.
func (b *Board) Divide(depth int) map[board.Move]uint64 {
	out := make(map[board.Move]uint64)
	if depth <= 0 {
		return out
	}
	for _, m := range b.LegalMoves(false) {
		b.MakeMove(m)
		out[m] = b.Perft(depth - 1)
		b.UnmakeMove(m)
	}
	return out
}
