package engine

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/board"
)

// Score is a centipawn value from the side to move's point of view.
type Score int32

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	// Infinity leaves one unit of headroom so -Infinity is representable.
	Infinity  Score = math.MaxInt32 - 1
	MateScore Score = 1_000_000
	DrawScore Score = 0

	// MaxPly bounds recursion, quiescence included.
	MaxPly        = 128
	MateThreshold = MateScore - MaxPly
)

// How many nodes pass between clock checks.
const nodeCheckMask = 1023

var ErrNoLegalMoves = errors.New("no legal moves")

// Result describes the outcome of a search.
type Result struct {
	Move    board.Move
	Score   Score
	Depth   int // last fully completed depth, 0 if none completed
	Nodes   uint64
	Elapsed time.Duration
	PV      []board.Move
	Stats   CutStatistics
}

// Limits bound a single search. A nil Timer searches without a clock.
type Limits struct {
	Timer Timer
	Depth int // 0 uses Config.MaxDepth
}

// Searcher picks moves. It owns the transposition table, which lives until
// NewGame and carries over between moves of the same game. A Searcher runs
// one search at a time.
type Searcher struct {
	cfg Config
	tt  *TransTable
	log zerolog.Logger

	// OnIteration, when set, is called after every completed depth.
	OnIteration func(Result)
}

func NewSearcher(cfg Config, log zerolog.Logger) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Searcher{
		cfg: cfg,
		tt:  NewTransTable(cfg.HashMB),
		log: log,
	}, nil
}

func (s *Searcher) Config() Config { return s.cfg }

func (s *Searcher) TT() *TransTable { return s.tt }

// Resize replaces the transposition table with an empty one of sizeMB.
func (s *Searcher) Resize(sizeMB int) error {
	cfg := s.cfg
	cfg.HashMB = sizeMB
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	s.tt = NewTransTable(sizeMB)
	return nil
}

// SetMaxDepth changes the iterative deepening ceiling.
func (s *Searcher) SetMaxDepth(depth int) error {
	cfg := s.cfg
	cfg.MaxDepth = depth
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

// NewGame forgets everything learned about earlier positions.
func (s *Searcher) NewGame() {
	s.tt.Clear()
}

// ChooseMove returns the move to play. It fails only when the side to move
// has no legal move at all.
func (s *Searcher) ChooseMove(ctx context.Context, pos Position, timer Timer) (board.Move, error) {
	res := s.Think(ctx, pos, timer)
	if res.Move.IsNull() {
		return board.NullMove, ErrNoLegalMoves
	}
	return res.Move, nil
}

func (s *Searcher) Think(ctx context.Context, pos Position, timer Timer) Result {
	return s.Search(ctx, pos, Limits{Timer: timer})
}

// Search deepens iteratively until the depth ceiling, the time budget or ctx
// stops it, and reports the best move of the last completed depth.
func (s *Searcher) Search(ctx context.Context, pos Position, lim Limits) Result {
	maxDepth := s.cfg.MaxDepth
	if lim.Depth > 0 {
		maxDepth = Min(lim.Depth, MaxPly/2)
	}
	sc := &searchContext{
		ctx:        ctx,
		pos:        pos,
		tt:         s.tt,
		timer:      lim.Timer,
		quiescence: s.cfg.UseQuiescence,
	}
	if sc.timer != nil {
		sc.startedAt = sc.timer.ElapsedThisTurn()
		sc.budget = s.cfg.allotTime(sc.timer)
	}
	res := s.rootsearch(sc, maxDepth)

	s.log.Info().
		Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Str("score", FormatScore(res.Score)).
		Str("bestmove", res.Move.String()).
		Dur("elapsed", res.Elapsed).
		Dur("budget", sc.budget).
		Object("cuts", res.Stats).
		Int("hashfull", s.tt.Hashfull()).
		Float64("tt_hits", s.tt.HitRate()).
		Msg("search finished")
	return res
}

// searchContext is the state of one search call tree.
type searchContext struct {
	ctx        context.Context
	pos        Position
	tt         *TransTable
	timer      Timer
	startedAt  time.Duration
	budget     time.Duration
	quiescence bool

	nodes   uint64
	stopped bool
	stats   CutStatistics
}

func (sc *searchContext) elapsed() time.Duration {
	if sc.timer == nil {
		return 0
	}
	return sc.timer.ElapsedThisTurn() - sc.startedAt
}

// outOfTime reports whether the search has to stop now.
func (sc *searchContext) outOfTime() bool {
	if sc.ctx.Err() != nil {
		return true
	}
	return sc.timer != nil && sc.elapsed() >= sc.budget
}

func (sc *searchContext) poll() {
	if sc.nodes&nodeCheckMask == 0 && sc.outOfTime() {
		sc.stopped = true
	}
}

func (s *Searcher) rootsearch(sc *searchContext, maxDepth int) Result {
	pos := sc.pos
	rootMoves := OrderMoves(pos, pos.LegalMoves(false))
	if len(rootMoves) == 0 {
		score := DrawScore
		if pos.IsCheckmate() {
			score = -MateScore
		}
		return Result{Score: score, Elapsed: sc.elapsed()}
	}

	// Until a depth completes, the first ordered move is the answer.
	best := Result{Move: rootMoves[0], Score: -Infinity}

	for depth := 1; depth <= maxDepth; depth++ {
		iterBest, iterScore := board.NullMove, -Infinity
		for i, m := range rootMoves {
			pos.MakeMove(m)
			score := -sc.alphabeta(depth-1, -Infinity, Infinity, 1)
			pos.UnmakeMove(m)
			if sc.stopped {
				break
			}
			if score > iterScore {
				iterScore, iterBest = score, m
			}
			if i < len(rootMoves)-1 && sc.outOfTime() {
				sc.stopped = true
				break
			}
		}

		if sc.stopped {
			// A partial depth never replaces a completed one. With nothing
			// completed, a fully searched root move still beats a blind pick.
			if best.Depth == 0 && !iterBest.IsNull() {
				best.Move, best.Score = iterBest, iterScore
			}
			s.log.Debug().Int("depth", depth).Msg("depth abandoned")
			break
		}

		best = Result{
			Move:  iterBest,
			Score: iterScore,
			Depth: depth,
			Nodes: sc.nodes,
			PV:    principalVariation(pos, sc.tt, iterBest, depth),
		}
		best.Elapsed = sc.elapsed()
		best.Stats = sc.stats

		s.log.Debug().
			Int("depth", depth).
			Str("score", FormatScore(iterScore)).
			Uint64("nodes", sc.nodes).
			Str("pv", pvString(best.PV)).
			Msg("depth complete")
		if s.OnIteration != nil {
			s.OnIteration(best)
		}

		if iterScore >= MateThreshold {
			break
		}
		if sc.outOfTime() {
			break
		}
	}

	best.Nodes = sc.nodes
	best.Elapsed = sc.elapsed()
	best.Stats = sc.stats
	return best
}

// alphabeta is a negamax search of the current position to depth with window
// (alpha, beta); ply is the distance from the root.
func (sc *searchContext) alphabeta(depth int, alpha, beta Score, ply int) Score {
	sc.nodes++
	sc.poll()

	pos := sc.pos
	if sc.stopped || ply >= MaxPly {
		return Evaluate(pos)
	}
	if depth <= 0 {
		if !sc.quiescence {
			return Evaluate(pos)
		}
		return sc.quiesce(alpha, beta, ply)
	}

	if pos.IsCheckmate() {
		// Nearer mates score higher.
		return -MateScore + Score(ply)
	}
	if pos.IsDraw() {
		return DrawScore
	}

	/*
		TRANSPOSITION TABLE LOOKUP
	*/
	key := pos.Key()
	if entry, ok := sc.tt.Lookup(key); ok {
		if score, usable := entry.cutoff(depth, alpha, beta, ply); usable {
			sc.stats.TTCutoffs++
			return score
		}
	}

	moves := OrderMoves(pos, pos.LegalMoves(false))
	if len(moves) == 0 {
		// The rules engine reported neither mate nor draw yet has no moves.
		return Evaluate(pos)
	}

	alphaOrig := alpha
	bestScore := -Infinity
	bestMove := board.NullMove
	for _, m := range moves {
		pos.MakeMove(m)
		score := -sc.alphabeta(depth-1, -beta, -alpha, ply+1)
		pos.UnmakeMove(m)
		if sc.stopped {
			return bestScore
		}

		if score > bestScore {
			bestScore, bestMove = score, m
		}
		alpha = Max(alpha, bestScore)
		if alpha >= beta {
			sc.stats.BetaCutoffs++
			break
		}
	}

	sc.tt.Store(TTEntry{
		Key:      key,
		Value:    scoreToTT(bestScore, ply),
		BestMove: bestMove,
		Depth:    int8(depth),
		Bound:    classifyBound(bestScore, alphaOrig, beta),
	})
	return bestScore
}

// quiesce resolves captures below the horizon. The side to move may stand
// pat on the static evaluation; the result is clamped to [alpha, beta].
func (sc *searchContext) quiesce(alpha, beta Score, ply int) Score {
	sc.nodes++
	sc.stats.QNodes++
	sc.poll()

	pos := sc.pos
	standPat := Evaluate(pos)
	if sc.stopped || ply >= MaxPly {
		return standPat
	}
	if standPat >= beta {
		sc.stats.QStandPatCutoffs++
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	for _, m := range OrderMoves(pos, pos.LegalMoves(true)) {
		pos.MakeMove(m)
		score := -sc.quiesce(-beta, -alpha, ply+1)
		pos.UnmakeMove(m)
		if sc.stopped {
			return alpha
		}
		if score >= beta {
			sc.stats.QBetaCutoffs++
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
