package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/CoolingAtol/ChessBot/board"
	"github.com/CoolingAtol/ChessBot/engine"
	"github.com/CoolingAtol/ChessBot/logx"
	"github.com/CoolingAtol/ChessBot/rules"
)

// Used when "go" carries no clock, depth or movetime.
const defaultThinkTime = 5 * time.Minute

const maxHashMB = 4096

func main() {
	log := logx.New(os.Stderr, logx.ParseLevel(os.Getenv("CHESSBOT_LOG")))
	if err := uciLoop(os.Stdin, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("uci loop")
	}
}

// lockedWriter serialises protocol lines from the reader loop and the search
// goroutine.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) println(a ...any) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintln(lw.w, a...)
}

func (lw *lockedWriter) printf(format string, a ...any) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintf(lw.w, format, a...)
}

type session struct {
	out      *lockedWriter
	log      zerolog.Logger
	searcher *engine.Searcher
	board    *rules.Board

	hashFile   string
	hashLoaded bool

	cancel   context.CancelFunc
	done     chan struct{}
	infinite bool
}

func uciLoop(in io.Reader, out io.Writer, log zerolog.Logger) error {
	searcher, err := engine.NewSearcher(engine.DefaultConfig(), log)
	if err != nil {
		return err
	}
	s := &session{
		out:      &lockedWriter{w: out},
		log:      log,
		searcher: searcher,
		board:    rules.StartPosition(),
	}
	searcher.OnIteration = s.info

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 { // ignore blank lines
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "uci":
			s.out.println("id name ChessBot")
			s.out.println("id author CoolingAtol")
			cfg := searcher.Config()
			s.out.printf("option name Hash type spin default %d min 1 max %d\n", cfg.HashMB, maxHashMB)
			s.out.printf("option name MaxDepth type spin default %d min 1 max %d\n", cfg.MaxDepth, engine.MaxPly/2)
			s.out.println("option name HashFile type string default <empty>")
			s.out.println("uciok")
		case "isready":
			if !s.searching() {
				s.loadHash()
			}
			s.out.println("readyok")
		case "ucinewgame":
			s.wait()
			s.board = rules.StartPosition()
			s.searcher.NewGame()
		case "position":
			s.wait()
			s.position(tokens[1:])
		case "go":
			s.wait()
			s.goCommand(tokens[1:])
		case "stop":
			s.stop()
		case "setoption":
			s.wait()
			s.setOption(tokens[1:])
		case "eval":
			s.wait()
			s.out.printf("info string eval %s\n", engine.FormatScore(engine.Evaluate(s.board)))
		case "quit":
			s.stop()
			s.saveHash()
			return nil
		default:
			s.out.println("info string Unknown command:", line)
		}
	}
	s.wait()
	return scanner.Err()
}

func (s *session) searching() bool {
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// wait blocks until the running search, if any, has printed its bestmove.
// An infinite search is stopped first since it would never report on its own.
func (s *session) wait() {
	if s.done == nil {
		return
	}
	if s.infinite {
		s.cancel()
	}
	<-s.done
	s.done = nil
}

func (s *session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wait()
}

func (s *session) position(args []string) {
	if len(args) == 0 {
		s.out.println("info string Malformed position command")
		return
	}
	var (
		b    *rules.Board
		err  error
		rest []string
	)
	switch strings.ToLower(args[0]) {
	case "startpos":
		b, rest = rules.StartPosition(), args[1:]
	case "fen":
		i := 1
		for i < len(args) && strings.ToLower(args[i]) != "moves" {
			i++
		}
		b, err = rules.NewBoard(strings.Join(args[1:i], " "))
		if err != nil {
			s.out.println("info string", err)
			return
		}
		rest = args[i:]
	default:
		s.out.println("info string Invalid position subcommand")
		return
	}

	if len(rest) > 0 && strings.ToLower(rest[0]) == "moves" {
		for _, str := range rest[1:] {
			m, ok := b.FindMove(str)
			if !ok {
				s.out.println("info string Move", str, "is not legal here")
				break
			}
			b.MakeMove(m)
		}
		b.Commit()
	}
	s.board = b
}

type goParams struct {
	wtime, btime, winc, binc, movetime time.Duration
	depth                              int
	infinite                           bool
}

func parseGo(args []string) (goParams, error) {
	var p goParams
	for i := 0; i < len(args); i++ {
		token := strings.ToLower(args[i])
		if token == "infinite" {
			p.infinite = true
			continue
		}
		if i+1 >= len(args) {
			return p, fmt.Errorf("go option %s has no value", token)
		}
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return p, fmt.Errorf("go option %s: %w", token, err)
		}
		i++
		ms := time.Duration(n) * time.Millisecond
		switch token {
		case "wtime":
			p.wtime = ms
		case "btime":
			p.btime = ms
		case "winc":
			p.winc = ms
		case "binc":
			p.binc = ms
		case "movetime":
			p.movetime = ms
		case "depth":
			p.depth = n
		default:
			// movestogo, nodes and friends are accepted and ignored.
		}
	}
	return p, nil
}

// limits turns the go parameters into search limits for the side to move.
func (p goParams) limits(white bool) engine.Limits {
	lim := engine.Limits{Depth: p.depth}
	remaining, inc := p.btime, p.binc
	if white {
		remaining, inc = p.wtime, p.winc
	}
	switch {
	case p.infinite:
	case p.movetime > 0:
		lim.Timer = engine.NewMoveTime(p.movetime)
	case remaining > 0:
		lim.Timer = engine.NewClock(remaining, inc)
	case p.depth == 0:
		lim.Timer = engine.NewClock(defaultThinkTime, 0)
	}
	return lim
}

func (s *session) goCommand(args []string) {
	p, err := parseGo(args)
	if err != nil {
		s.out.println("info string Malformed go command:", err)
		return
	}
	s.loadHash()
	lim := p.limits(s.board.SideToMove() == board.White)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.infinite = p.infinite
	go func(done chan struct{}, infinite bool) {
		defer close(done)
		defer cancel()
		res := s.searcher.Search(ctx, s.board, lim)
		if infinite {
			// bestmove waits for stop even when the depth ceiling is reached.
			<-ctx.Done()
		}
		s.out.println("bestmove", res.Move)
	}(s.done, p.infinite)
}

func (s *session) info(r engine.Result) {
	pv := make([]string, len(r.PV))
	for i, m := range r.PV {
		pv[i] = m.String()
	}
	s.out.printf("info depth %d score %s nodes %d time %d hashfull %d pv %s\n",
		r.Depth, engine.FormatScore(r.Score), r.Nodes, r.Elapsed.Milliseconds(),
		s.searcher.TT().Hashfull(), strings.Join(pv, " "))
}

// setOption handles "name <id> value <x>".
func (s *session) setOption(args []string) {
	var name, value []string
	target := &name
	for _, a := range args {
		switch strings.ToLower(a) {
		case "name":
			target = &name
		case "value":
			target = &value
		default:
			*target = append(*target, a)
		}
	}
	id := strings.ToLower(strings.Join(name, " "))
	val := strings.Join(value, " ")

	var err error
	switch id {
	case "hash":
		var mb int
		if mb, err = strconv.Atoi(val); err == nil {
			err = s.searcher.Resize(engine.Clamp(mb, 1, maxHashMB))
			s.hashLoaded = false
		}
	case "maxdepth":
		var depth int
		if depth, err = strconv.Atoi(val); err == nil {
			err = s.searcher.SetMaxDepth(depth)
		}
	case "hashfile":
		if val == "<empty>" {
			val = ""
		}
		s.hashFile, s.hashLoaded = val, false
	default:
		s.out.println("info string Unknown option", id)
		return
	}
	if err != nil {
		s.out.println("info string setoption", id+":", err)
	}
}

// loadHash restores a persisted table once per HashFile setting.
func (s *session) loadHash() {
	if s.hashFile == "" || s.hashLoaded {
		return
	}
	s.hashLoaded = true
	n, err := s.searcher.TT().LoadFile(s.hashFile)
	if err != nil {
		s.log.Warn().Err(err).Str("file", s.hashFile).Msg("hash file not loaded")
		return
	}
	s.log.Info().Int("entries", n).Str("file", s.hashFile).Msg("hash file loaded")
}

func (s *session) saveHash() {
	if s.hashFile == "" {
		return
	}
	if err := s.searcher.TT().SaveFile(s.hashFile); err != nil {
		s.log.Warn().Err(err).Str("file", s.hashFile).Msg("hash file not saved")
	}
}
