package engine

import (
	"testing"

	"github.com/CoolingAtol/ChessBot/board"
	"github.com/CoolingAtol/ChessBot/rules"
)

func TestOrderMovesMostValuableVictimFirst(t *testing.T) {
	pos := mustBoard(t, "4k3/8/8/3q4/4P3/8/8/3QK3 w - - 0 1")
	moves := OrderMoves(pos, pos.LegalMoves(false))
	if moves[0].String() != "e4d5" {
		t.Fatalf("first move %s, want e4d5 (pawn takes queen)", moves[0])
	}
	if moves[1].String() != "d1d5" {
		t.Fatalf("second move %s, want d1d5 (queen takes queen)", moves[1])
	}
	for _, m := range moves[2:] {
		if m.IsCapture() {
			t.Fatalf("capture %s ordered after quiet moves", m)
		}
	}
}

func TestOrderMovesFreeQueenFirst(t *testing.T) {
	pos := mustBoard(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	moves := OrderMoves(pos, pos.LegalMoves(false))
	if moves[0].String() != "d2d5" {
		t.Fatalf("first move %s, want d2d5", moves[0])
	}
}

func TestScoreMoveTiers(t *testing.T) {
	pos := mustBoard(t, "r3k3/1P6/8/8/8/8/8/4K2R w K - 0 1")
	tests := []struct {
		move string
		want int
	}{
		{"b7a8q", captureOffset + int(PieceValues[board.Rook]-PieceValues[board.Pawn])},
		{"b7b8q", promotionOffset},
		{"e1g1", castleOffset},
		{"h1h5", 0},
	}
	for _, tc := range tests {
		m, ok := pos.FindMove(tc.move)
		if !ok {
			t.Fatalf("%s not legal", tc.move)
		}
		if got := ScoreMove(pos, m); got != tc.want {
			t.Fatalf("ScoreMove(%s) = %d, want %d", tc.move, got, tc.want)
		}
	}
}

func TestScoreMoveEnPassant(t *testing.T) {
	pos := mustBoard(t, "k7/8/8/3pP3/8/8/8/7K w - d6 0 2")
	m, ok := pos.FindMove("e5d6")
	if !ok {
		t.Fatalf("e5d6 not legal")
	}
	if got := ScoreMove(pos, m); got != captureOffset {
		t.Fatalf("pawn takes pawn en passant = %d, want %d", got, captureOffset)
	}
}

// Equal scores keep generator order and the position is left untouched.
func TestOrderMovesStable(t *testing.T) {
	pos := rules.StartPosition()
	key := pos.Key()
	generated := pos.LegalMoves(false)
	ordered := OrderMoves(pos, pos.LegalMoves(false))
	if len(ordered) != len(generated) {
		t.Fatalf("ordering changed the move count")
	}
	for i := range generated {
		if ordered[i] != generated[i] {
			t.Fatalf("quiet move %d reordered: %s vs %s", i, ordered[i], generated[i])
		}
	}
	if pos.Key() != key {
		t.Fatalf("ordering changed the position")
	}

	again := OrderMoves(pos, pos.LegalMoves(false))
	for i := range ordered {
		if again[i] != ordered[i] {
			t.Fatalf("ordering not reproducible at %d", i)
		}
	}
}
