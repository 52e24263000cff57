package engine

import "github.com/CoolingAtol/ChessBot/board"

type move struct {
	move  board.Move
	score int
}

type moveList struct {
	moves []move
}

// Move ordering offsets. Captures come first, scored most-valuable-victim /
// least-valuable-attacker on top of captureOffset; promotions sit just below
// the captures, castling above quiet moves. Everything else scores zero and
// keeps its generator order.
const (
	captureOffset   = 10000
	promotionOffset = 9000
	castleOffset    = 500
)

// ScoreMove is the ordering heuristic for m in pos. It depends on nothing
// but its arguments.
func ScoreMove(pos Position, m board.Move) int {
	if m.IsCapture() {
		victim := board.Pawn
		if !m.IsEnPassant() {
			if p, ok := pos.PieceAt(m.To); ok {
				victim = p.Type
			} else {
				victim = board.NoPieceType
			}
		}
		attackerValue := Score(1)
		if p, ok := pos.PieceAt(m.From); ok {
			attackerValue = PieceValues[p.Type]
		}
		return captureOffset + int(PieceValues[victim]-attackerValue)
	}
	if m.IsPromotion() {
		return promotionOffset
	}
	if m.IsCastle() {
		return castleOffset
	}
	return 0
}

func scoreMovesList(pos Position, moves []board.Move) (movesList moveList) {
	movesList.moves = make([]move, len(moves))
	for i, m := range moves {
		movesList.moves[i] = move{move: m, score: ScoreMove(pos, m)}
	}
	return movesList
}

// sort orders the list best first, keeping equal scores in generator order.
func (ml *moveList) sort() {
	for i := 1; i < len(ml.moves); i++ {
		curr := ml.moves[i]
		j := i - 1
		for j >= 0 && ml.moves[j].score < curr.score {
			ml.moves[j+1] = ml.moves[j]
			j--
		}
		ml.moves[j+1] = curr
	}
}

// OrderMoves sorts moves in place, best first, and returns the slice. The
// position is only read.
func OrderMoves(pos Position, moves []board.Move) []board.Move {
	list := scoreMovesList(pos, moves)
	list.sort()
	for i, m := range list.moves {
		moves[i] = m.move
	}
	return moves
}
