// Command evalcheck samples positions from a PGN file, searches each one and,
// when a reference UCI engine is given, reports how far our scores drift from
// its scores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/freeeve/pgn/v3"
	"github.com/freeeve/uci"
	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/engine"
	"github.com/CoolingAtol/ChessBot/logx"
	"github.com/CoolingAtol/ChessBot/rules"
)

type options struct {
	pgnPath  string
	every    int
	limit    int
	depth    int
	refPath  string
	refDepth int
}

// sample is one searched position.
type sample struct {
	fen      string
	ours     engine.Result
	refScore int
	refMate  bool
	hasRef   bool
}

func main() {
	var opt options
	flag.StringVar(&opt.pgnPath, "pgn", "", "PGN file to sample (.pgn or .pgn.zst)")
	flag.IntVar(&opt.every, "every", 8, "sample one position every N plies")
	flag.IntVar(&opt.limit, "n", 100, "stop after this many positions")
	flag.IntVar(&opt.depth, "depth", 4, "search depth in plies")
	flag.StringVar(&opt.refPath, "ref", "", "optional reference UCI engine binary")
	flag.IntVar(&opt.refDepth, "refdepth", 12, "reference engine depth")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := logx.New(os.Stderr, level)

	if opt.pgnPath == "" || opt.every < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opt, log); err != nil {
		log.Fatal().Err(err).Msg("evalcheck")
	}
}

func run(ctx context.Context, opt options, log zerolog.Logger) error {
	cfg := engine.DefaultConfig()
	cfg.MaxDepth = opt.depth
	searcher, err := engine.NewSearcher(cfg, zerolog.Nop())
	if err != nil {
		return err
	}

	var ref *uci.Engine
	if opt.refPath != "" {
		ref, err = uci.NewEngine(opt.refPath)
		if err != nil {
			return fmt.Errorf("start reference engine: %w", err)
		}
		defer ref.Close()
		if err := ref.SetOptions(uci.Options{Hash: 64, Threads: 1, MultiPV: 1}); err != nil {
			return fmt.Errorf("reference options: %w", err)
		}
	}

	var samples []sample
	parser := pgn.Games(opt.pgnPath)

gameLoop:
	for game := range parser.Games {
		pos := pgn.NewStartingPosition()
		for ply, mv := range game.Moves {
			if ctx.Err() != nil || len(samples) >= opt.limit {
				parser.Stop()
				break gameLoop
			}
			if ply > 0 && ply%opt.every == 0 {
				s, err := evaluate(ctx, searcher, ref, opt.refDepth, pos.ToFEN())
				if err != nil {
					log.Warn().Err(err).Msg("position skipped")
				} else {
					samples = append(samples, s)
					log.Debug().
						Str("fen", s.fen).
						Str("bestmove", s.ours.Move.String()).
						Str("score", engine.FormatScore(s.ours.Score)).
						Int("ref", s.refScore).
						Msg("sampled")
				}
			}
			if err := pgn.ApplyMove(pos, mv); err != nil {
				break
			}
		}
	}

	report(samples)
	return nil
}

func evaluate(ctx context.Context, searcher *engine.Searcher, ref *uci.Engine, refDepth int, fen string) (sample, error) {
	b, err := rules.NewBoard(fen)
	if err != nil {
		return sample{}, err
	}
	searcher.NewGame()
	s := sample{fen: fen, ours: searcher.Search(ctx, b, engine.Limits{})}
	if s.ours.Move.IsNull() {
		return sample{}, fmt.Errorf("%s: game already over", fen)
	}
	if ref == nil {
		return s, nil
	}

	if err := ref.SetFEN(fen); err != nil {
		return sample{}, fmt.Errorf("set FEN: %w", err)
	}
	results, err := ref.GoDepth(refDepth, uci.HighestDepthOnly)
	if err != nil {
		return sample{}, fmt.Errorf("reference search: %w", err)
	}
	if len(results.Results) == 0 {
		return sample{}, fmt.Errorf("no results from reference engine")
	}
	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}
	// Both engines score from the side to move.
	s.refScore, s.refMate, s.hasRef = best.Score, best.Mate, true
	return s, nil
}

func report(samples []sample) {
	var compared, sumDiff, mates int
	for _, s := range samples {
		fmt.Printf("%-90s %-6s %-10s", s.fen, s.ours.Move, engine.FormatScore(s.ours.Score))
		if s.hasRef {
			kind := "cp"
			if s.refMate {
				kind = "mate"
			}
			fmt.Printf(" ref %s %d", kind, s.refScore)
		}
		fmt.Println()

		if !s.hasRef {
			continue
		}
		if s.refMate || engine.IsMateScore(s.ours.Score) {
			mates++
			continue
		}
		compared++
		sumDiff += engine.Abs(int(s.ours.Score) - s.refScore)
	}
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("positions: %d\n", len(samples))
	if compared > 0 {
		fmt.Printf("compared: %d  mean |diff|: %d cp  mate positions: %d\n", compared, sumDiff/compared, mates)
	}
}
