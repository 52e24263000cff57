package engine

import (
	"time"

	"github.com/CoolingAtol/ChessBot/board"
)

// Position is the rules engine as seen by the search. Implementations hold a
// single mutable position; MakeMove and UnmakeMove must be strictly paired.
type Position interface {
	LegalMoves(capturesOnly bool) []board.Move
	MakeMove(m board.Move)
	UnmakeMove(m board.Move)
	IsCheckmate() bool
	IsDraw() bool
	Key() uint64
	PieceAt(sq board.Square) (board.Piece, bool)
	Pieces(fn func(p board.Piece, sq board.Square))
	SideToMove() board.Color
}

// Timer reports the clock for the side to move.
type Timer interface {
	ElapsedThisTurn() time.Duration
	Remaining() time.Duration
}
