package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/CoolingAtol/ChessBot/board"
	"github.com/CoolingAtol/ChessBot/rules"
)

func newTestSearcher(t testing.TB, maxDepth int) *Searcher {
	t.Helper()
	return newSearcher(t, maxDepth, true)
}

func newSearcher(t testing.TB, maxDepth int, quiescence bool) *Searcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxDepth = maxDepth
	cfg.HashMB = 4
	cfg.UseQuiescence = quiescence
	s, err := NewSearcher(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	return s
}

// minimax is the unpruned reference the search must agree with. Below the
// horizon it either evaluates statically or, with quiescence, tries every
// capture sequence, so callers keep the material small when quiescence is on.
func minimax(pos Position, depth, ply int, quiescence bool) Score {
	if depth <= 0 {
		if !quiescence {
			return Evaluate(pos)
		}
		return qminimax(pos)
	}
	if pos.IsCheckmate() {
		return -MateScore + Score(ply)
	}
	if pos.IsDraw() {
		return DrawScore
	}
	moves := pos.LegalMoves(false)
	if len(moves) == 0 {
		return Evaluate(pos)
	}
	best := -Infinity
	for _, m := range moves {
		pos.MakeMove(m)
		best = Max(best, -minimax(pos, depth-1, ply+1, quiescence))
		pos.UnmakeMove(m)
	}
	return best
}

func qminimax(pos Position) Score {
	best := Evaluate(pos)
	for _, m := range pos.LegalMoves(true) {
		pos.MakeMove(m)
		best = Max(best, -qminimax(pos))
		pos.UnmakeMove(m)
	}
	return best
}

func TestSearchMatchesMinimax(t *testing.T) {
	tests := []struct {
		name       string
		fen        string
		depth      int
		quiescence bool
	}{
		{"start position", rules.Startpos, 3, false},
		{"italian", "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3", 2, false},
		{"rook against queen", "3k4/8/8/8/8/8/1q6/R3K3 w - - 0 1", 3, false},
		{"queen hangs", "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1", 3, false},
		{"queen hangs with captures", "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1", 2, true},
		{"rook and queen trade", "3k4/8/8/8/8/8/1q6/R3K3 w - - 0 1", 2, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustBoard(t, tc.fen)
			want := -Infinity
			scores := make(map[board.Move]Score)
			for _, m := range pos.LegalMoves(false) {
				pos.MakeMove(m)
				scores[m] = -minimax(pos, tc.depth-1, 1, tc.quiescence)
				pos.UnmakeMove(m)
				want = Max(want, scores[m])
			}

			s := newSearcher(t, tc.depth, tc.quiescence)
			res := s.Search(context.Background(), pos, Limits{})
			if res.Depth != tc.depth {
				t.Fatalf("completed depth %d, want %d", res.Depth, tc.depth)
			}
			if res.Score != want {
				t.Fatalf("score %d, minimax %d", res.Score, want)
			}
			if scores[res.Move] != want {
				t.Fatalf("%s scores %d, best is %d", res.Move, scores[res.Move], want)
			}
		})
	}
}

func TestSearchStartPosition(t *testing.T) {
	pos := rules.StartPosition()
	key := pos.Key()
	s := newTestSearcher(t, 1)
	m, err := s.ChooseMove(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	if !slices.Contains(pos.LegalMoves(false), m) {
		t.Fatalf("%s is not legal", m)
	}
	if pos.Key() != key {
		t.Fatalf("search left the position changed")
	}
}

func TestSearchFindsMateInOne(t *testing.T) {
	pos := mustBoard(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	var iterations int
	s := newTestSearcher(t, 4)
	s.OnIteration = func(Result) { iterations++ }
	res := s.Search(context.Background(), pos, Limits{})
	if res.Move.String() != "a1a8" {
		t.Fatalf("best move %s, want a1a8", res.Move)
	}
	if got := FormatScore(res.Score); got != "mate 1" {
		t.Fatalf("score %s, want mate 1", got)
	}
	// Mate shows up once the reply node is searched at depth one.
	if iterations != 2 || res.Depth != 2 {
		t.Fatalf("deepening continued after a mate was found: %d iterations", iterations)
	}
}

func TestSearchTakesFreeQueen(t *testing.T) {
	pos := mustBoard(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1")
	m, err := newTestSearcher(t, 3).ChooseMove(context.Background(), pos, nil)
	if err != nil {
		t.Fatalf("ChooseMove: %v", err)
	}
	if m.String() != "d2d5" {
		t.Fatalf("best move %s, want d2d5", m)
	}
}

func TestSearchUnderPressureStillMoves(t *testing.T) {
	pos := rules.StartPosition()
	legal := pos.LegalMoves(false)
	s := newTestSearcher(t, 10)

	m, err := s.ChooseMove(context.Background(), pos, NewClock(time.Millisecond, 0))
	if err != nil || !slices.Contains(legal, m) {
		t.Fatalf("tiny clock gave %s, %v", m, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, err = s.ChooseMove(ctx, pos, nil)
	if err != nil || !slices.Contains(legal, m) {
		t.Fatalf("cancelled search gave %s, %v", m, err)
	}
}

// countdown is a Timer whose flag falls on read n+1.
type countdown struct {
	reads, n int
}

func (c *countdown) ElapsedThisTurn() time.Duration {
	c.reads++
	if c.reads > c.n {
		return time.Hour
	}
	return 0
}

func (c *countdown) Remaining() time.Duration { return time.Hour }
func (c *countdown) Budget() time.Duration    { return time.Second }

func TestSearchKeepsLastCompletedDepth(t *testing.T) {
	const maxDepth = 4
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"

	completed := make(map[int]Result)
	for d := 1; d <= maxDepth; d++ {
		completed[d] = newTestSearcher(t, maxDepth).Search(context.Background(), mustBoard(t, fen), Limits{Depth: d})
	}

	for n := 2; n < 400; n += 3 {
		pos := mustBoard(t, fen)
		key, halfmoves := pos.Key(), pos.Halfmoves()
		var iterations int
		s := newTestSearcher(t, maxDepth)
		s.OnIteration = func(Result) { iterations++ }

		res := s.Search(context.Background(), pos, Limits{Timer: &countdown{n: n}})
		if pos.Key() != key || pos.Halfmoves() != halfmoves {
			t.Fatalf("n=%d: stopped search left the position changed", n)
		}
		if iterations != res.Depth {
			t.Fatalf("n=%d: %d iterations reported, result depth %d", n, iterations, res.Depth)
		}
		if res.Depth == 0 {
			if !slices.Contains(pos.LegalMoves(false), res.Move) {
				t.Fatalf("n=%d: no depth completed and %s is not legal", n, res.Move)
			}
			continue
		}
		want := completed[res.Depth]
		if res.Move != want.Move || res.Score != want.Score {
			t.Fatalf("n=%d: depth %d gave %s %d, a plain depth %d search gives %s %d",
				n, res.Depth, res.Move, res.Score, res.Depth, want.Move, want.Score)
		}
	}
}

// cancelling wraps a board and cancels the search after a number of moves.
type cancelling struct {
	*rules.Board
	makes  int
	open   int
	cancel context.CancelFunc
}

func (c *cancelling) MakeMove(m board.Move) {
	c.makes--
	if c.makes == 0 {
		c.cancel()
	}
	c.open++
	c.Board.MakeMove(m)
}

func (c *cancelling) UnmakeMove(m board.Move) {
	c.open--
	c.Board.UnmakeMove(m)
}

func TestSearchCancelRestoresPosition(t *testing.T) {
	fen := "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"
	for makes := 1; makes < 6000; makes += 173 {
		b := mustBoard(t, fen)
		key, halfmoves := b.Key(), b.Halfmoves()
		legal := b.LegalMoves(false)

		ctx, cancel := context.WithCancel(context.Background())
		pos := &cancelling{Board: b, makes: makes, cancel: cancel}
		res := newTestSearcher(t, 4).Search(ctx, pos, Limits{})
		cancel()

		if pos.open != 0 {
			t.Fatalf("makes=%d: %d moves left unmade", makes, pos.open)
		}
		if b.Key() != key || b.Halfmoves() != halfmoves {
			t.Fatalf("makes=%d: cancelled search left the position changed", makes)
		}
		if !slices.Contains(legal, res.Move) {
			t.Fatalf("makes=%d: %s is not legal", makes, res.Move)
		}
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	mated := mustBoard(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	_, err := newTestSearcher(t, 3).ChooseMove(context.Background(), mated, nil)
	if !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err = %v, want ErrNoLegalMoves", err)
	}
}

func TestSearchWarmTableAgrees(t *testing.T) {
	pos := mustBoard(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	s := newTestSearcher(t, 3)
	cold := s.Search(context.Background(), pos, Limits{})
	if s.TT().Len() == 0 {
		t.Fatalf("search stored nothing")
	}
	warm := s.Search(context.Background(), pos, Limits{})
	if warm.Move != cold.Move || warm.Score != cold.Score {
		t.Fatalf("warm %s %d, cold %s %d", warm.Move, warm.Score, cold.Move, cold.Score)
	}

	s.NewGame()
	if s.TT().Len() != 0 {
		t.Fatalf("NewGame kept %d entries", s.TT().Len())
	}
}

func TestSearchPrincipalVariationIsLegal(t *testing.T) {
	pos := mustBoard(t, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	key := pos.Key()
	res := newTestSearcher(t, 3).Search(context.Background(), pos, Limits{})
	if len(res.PV) == 0 || res.PV[0] != res.Move {
		t.Fatalf("pv %v does not start with %s", res.PV, res.Move)
	}
	for _, m := range res.PV {
		if !slices.Contains(pos.LegalMoves(false), m) {
			t.Fatalf("pv move %s illegal", m)
		}
		pos.MakeMove(m)
	}
	for i := len(res.PV) - 1; i >= 0; i-- {
		pos.UnmakeMove(res.PV[i])
	}
	if pos.Key() != key {
		t.Fatalf("pv replay did not restore the position")
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score Score
		want  string
	}{
		{35, "cp 35"},
		{-120, "cp -120"},
		{MateScore - 1, "mate 1"},
		{MateScore - 3, "mate 2"},
		{-MateScore + 2, "mate -1"},
	}
	for _, tc := range tests {
		if got := FormatScore(tc.score); got != tc.want {
			t.Fatalf("FormatScore(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
	if IsMateScore(900) || !IsMateScore(MateScore-10) {
		t.Fatalf("IsMateScore misclassified")
	}
}

func BenchmarkSearchDepth4(b *testing.B) {
	pos := mustBoard(b, "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	s := newTestSearcher(b, 4)
	for i := 0; i < b.N; i++ {
		s.NewGame()
		s.Search(context.Background(), pos, Limits{})
	}
}
