package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/engine"
	"github.com/CoolingAtol/ChessBot/logx"
	"github.com/CoolingAtol/ChessBot/rules"
)

func main() {
	// --- Flags ---
	depthFlag := flag.Int("depth", 6, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", rules.Startpos, "FEN to search")
	hashFlag := flag.Int("hash", 64, "transposition table size in MB")
	noQuiesce := flag.Bool("noquiesce", false, "evaluate horizon nodes statically")
	verbose := flag.Bool("v", false, "log every completed depth to stderr")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := logx.New(os.Stderr, level)

	cfg := engine.DefaultConfig()
	cfg.MaxDepth = *depthFlag
	cfg.HashMB = *hashFlag
	cfg.UseQuiescence = !*noQuiesce
	searcher, err := engine.NewSearcher(cfg, logger)
	if err != nil {
		log.Fatalf("searcher: %v", err)
	}

	// --- Optional CPU profiling setup ---
	if *cpuProfile != "" {
		cpuFile, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}()
	}

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d\n", *fenFlag, cfg.MaxDepth, *repeatFlag)

	startAll := time.Now()
	var totalNodes uint64
	for i := 0; i < *repeatFlag; i++ {
		// Fresh position and table for each run
		pos, err := rules.NewBoard(*fenFlag)
		if err != nil {
			log.Fatalf("%v", err)
		}
		searcher.NewGame()

		res := searcher.Search(context.Background(), pos, engine.Limits{})
		totalNodes += res.Nodes
		fmt.Printf("iteration %d: bestmove %v score %s nodes=%d time=%v\n",
			i+1, res.Move, engine.FormatScore(res.Score), res.Nodes, res.Elapsed)
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total time: %v  nps: %.0f\n", totalElapsed, float64(totalNodes)/totalElapsed.Seconds())

	// --- Optional heap profile at the end ---
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()

		runtime.GC() // get up-to-date heap info
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}
}
