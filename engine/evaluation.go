package engine

import "github.com/CoolingAtol/ChessBot/board"

// PieceValues in centipawns, indexed by board.PieceType. The king value only
// has to dominate everything else; kings are never captured in legal play.
var PieceValues = [7]Score{
	board.Pawn:   100,
	board.Knight: 320,
	board.Bishop: 330,
	board.Rook:   500,
	board.Queen:  900,
	board.King:   20000,
}

// Piece-square tables are written from white's side with a1 first, so the
// first row of each table is the first rank. Black pieces read the table
// through board.Square.Mirror. The king has no table.
var pawnTable = [64]Score{
	0, 5, 5, -10, -10, 5, 10, 0,
	0, 10, -5, 0, 0, -5, 10, 0,
	0, 5, 10, 20, 20, 10, 5, 0,
	5, 5, 5, 15, 15, 5, 5, 5,
	10, 10, 10, 20, 20, 10, 10, 10,
	20, 20, 20, 30, 30, 20, 20, 20,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightTable = [64]Score{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopTable = [64]Score{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookTable = [64]Score{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var queenTable = [64]Score{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var pieceSquareTables = [7]*[64]Score{
	board.Pawn:   &pawnTable,
	board.Knight: &knightTable,
	board.Bishop: &bishopTable,
	board.Rook:   &rookTable,
	board.Queen:  &queenTable,
}

// PositionalValue is the piece-square bonus for p standing on sq.
func PositionalValue(p board.Piece, sq board.Square) Score {
	table := pieceSquareTables[p.Type]
	if table == nil {
		return 0
	}
	if p.Color == board.Black {
		sq = sq.Mirror()
	}
	return table[sq]
}

// Evaluate scores the position statically from the side to move's point of
// view: material plus piece-square bonuses, ours minus theirs.
func Evaluate(pos Position) Score {
	us := pos.SideToMove()
	var score Score
	pos.Pieces(func(p board.Piece, sq board.Square) {
		v := PieceValues[p.Type] + PositionalValue(p, sq)
		if p.Color == us {
			score += v
		} else {
			score -= v
		}
	})
	return score
}
