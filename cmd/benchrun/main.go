package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/engine"
	"github.com/CoolingAtol/ChessBot/logx"
	"github.com/CoolingAtol/ChessBot/rules"
)

// Published perft counts, indexed by depth-1.
var perftSuite = []struct {
	name  string
	fen   string
	nodes []uint64
}{
	{"initial", rules.Startpos, []uint64{20, 400, 8902, 197281, 4865609}},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", []uint64{48, 2039, 97862, 4085603}},
	{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812, 43238, 674624}},
	{"promotions", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467, 422333}},
	{"castling", "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379, 2103487}},
}

var searchSuite = []struct {
	name string
	fen  string
}{
	{"initial", rules.Startpos},
	{"italian", "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3"},
	{"kiwipete", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"},
	{"endgame", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"},
	{"rook against queen", "3k4/8/8/8/8/8/1q6/R3K3 w - - 0 1"},
}

func main() {
	// Usage: go run ./cmd/benchrun [-perft 4] [-search 5]
	perftDepth := flag.Int("perft", 4, "deepest perft level to check (0 skips)")
	searchDepth := flag.Int("search", 5, "search depth for the search suite (0 skips)")
	hash := flag.Int("hash", 64, "transposition table size in MB")
	flag.Parse()

	log := logx.New(os.Stderr, zerolog.WarnLevel)

	failures := 0
	if *perftDepth > 0 {
		fmt.Println("Perft:")
		fmt.Printf("%-12s %5s %10s %10s %12s %s\n", "POSITION", "DEPTH", "NODES", "TIME", "NPS", "RESULT")
		failures = checkPerft(log, *perftDepth)
	}

	if *searchDepth > 0 {
		fmt.Println("\nSearch:")
		fmt.Printf("%-20s %5s %8s %10s %10s %10s %12s\n", "POSITION", "DEPTH", "MOVE", "SCORE", "NODES", "TIME", "NPS")
		if err := runSearches(log, *searchDepth, *hash); err != nil {
			log.Fatal().Err(err).Msg("search suite")
		}
	}

	if failures > 0 {
		fmt.Printf("\n%d perft mismatches\n", failures)
		os.Exit(1)
	}
}

// checkPerft compares move generation against the published counts and
// returns the number of mismatches.
func checkPerft(log zerolog.Logger, maxDepth int) int {
	failures := 0
	for _, p := range perftSuite {
		b, err := rules.NewBoard(p.fen)
		if err != nil {
			log.Error().Err(err).Str("position", p.name).Msg("bad perft position")
			failures++
			continue
		}
		for d := 1; d <= maxDepth && d <= len(p.nodes); d++ {
			start := time.Now()
			got := b.Perft(d)
			took := time.Since(start)

			verdict := "ok"
			if want := p.nodes[d-1]; got != want {
				verdict = fmt.Sprintf("FAIL want %d", want)
				failures++
			}
			fmt.Printf("%-12s %5d %10d %10v %12.0f %s\n",
				p.name, d, got, took.Round(time.Microsecond), float64(got)/took.Seconds(), verdict)
		}
	}
	return failures
}

func runSearches(log zerolog.Logger, depth, hashMB int) error {
	cfg := engine.DefaultConfig()
	cfg.MaxDepth = depth
	cfg.HashMB = hashMB
	searcher, err := engine.NewSearcher(cfg, log)
	if err != nil {
		return err
	}

	var totalNodes uint64
	var totalTime time.Duration
	for _, p := range searchSuite {
		pos, err := rules.NewBoard(p.fen)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		searcher.NewGame()

		start := time.Now()
		res := searcher.Search(context.Background(), pos, engine.Limits{})
		took := time.Since(start)
		totalNodes += res.Nodes
		totalTime += took

		fmt.Printf("%-20s %5d %8s %10s %10d %10v %12.0f\n",
			p.name, res.Depth, res.Move, engine.FormatScore(res.Score), res.Nodes,
			took.Round(time.Millisecond), float64(res.Nodes)/took.Seconds())
	}
	fmt.Printf("total: %d nodes in %v, %.0f nps\n", totalNodes, totalTime.Round(time.Millisecond), float64(totalNodes)/totalTime.Seconds())
	return nil
}
