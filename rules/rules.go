// Package rules adapts dragontoothmg to the position interface the search
// consumes: legal moves, paired make/unmake, draw and mate detection and
// the zobrist key.
package rules

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"github.com/CoolingAtol/ChessBot/board"
)

const (
	Startpos       = dragontoothmg.Startpos
	fiftyMoveLimit = 100
)

var ErrInvalidFEN = errors.New("invalid FEN")

// generated caches the legal moves of the position at one stack height.
type generated struct {
	valid bool
	key   uint64
	raw   []dragontoothmg.Move
	moves []board.Move
}

type undo struct {
	move    board.Move
	unapply func()
}

// Board is a single mutable position. It is not safe for concurrent use; the
// search materialises exactly one line of play at a time on it.
type Board struct {
	inner   dragontoothmg.Board
	stack   []undo
	history []uint64
	cache   []generated
}

// NewBoard parses a FEN. Four-field FENs get default move counters.
func NewBoard(fen string) (b *Board, err error) {
	fen, err = normaliseFEN(fen)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	b = &Board{inner: dragontoothmg.ParseFen(fen)}
	b.history = append(b.history, b.inner.Hash())
	return b, nil
}

// StartPosition returns the standard initial position.
func StartPosition() *Board {
	b, err := NewBoard(Startpos)
	if err != nil {
		panic(err)
	}
	return b
}

func normaliseFEN(fen string) (string, error) {
	fields := strings.Fields(fen)
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	}
	if len(fields) != 6 {
		return "", fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := map[rune]int{}
	for _, rank := range ranks {
		width := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				width++
				if c == 'k' || c == 'K' {
					kings[c]++
				}
			default:
				return "", fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, c)
			}
		}
		if width != 8 {
			return "", fmt.Errorf("%w: rank %q has %d squares", ErrInvalidFEN, rank, width)
		}
	}
	if kings['k'] != 1 || kings['K'] != 1 {
		return "", fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return "", fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}
	return strings.Join(fields, " "), nil
}

func (b *Board) SideToMove() board.Color {
	if b.inner.Wtomove {
		return board.White
	}
	return board.Black
}

// Key is the zobrist hash of the position.
func (b *Board) Key() uint64 { return b.inner.Hash() }

func (b *Board) Halfmoves() int { return int(b.inner.Halfmoveclock) }

func (b *Board) InCheck() bool { return b.inner.OurKingInCheck() }

func (b *Board) ours() *dragontoothmg.Bitboards {
	if b.inner.Wtomove {
		return &b.inner.White
	}
	return &b.inner.Black
}

func (b *Board) theirs() *dragontoothmg.Bitboards {
	if b.inner.Wtomove {
		return &b.inner.Black
	}
	return &b.inner.White
}

func pieceTypeAt(sq uint8, bbs *dragontoothmg.Bitboards) board.PieceType {
	mask := uint64(1) << sq
	switch {
	case bbs.All&mask == 0:
		return board.NoPieceType
	case bbs.Pawns&mask != 0:
		return board.Pawn
	case bbs.Knights&mask != 0:
		return board.Knight
	case bbs.Bishops&mask != 0:
		return board.Bishop
	case bbs.Rooks&mask != 0:
		return board.Rook
	case bbs.Queens&mask != 0:
		return board.Queen
	case bbs.Kings&mask != 0:
		return board.King
	}
	return board.NoPieceType
}

// PieceAt reports the piece standing on sq, if any.
func (b *Board) PieceAt(sq board.Square) (board.Piece, bool) {
	if pt := pieceTypeAt(uint8(sq), &b.inner.White); pt != board.NoPieceType {
		return board.Piece{Type: pt, Color: board.White}, true
	}
	if pt := pieceTypeAt(uint8(sq), &b.inner.Black); pt != board.NoPieceType {
		return board.Piece{Type: pt, Color: board.Black}, true
	}
	return board.Piece{}, false
}

// Pieces calls fn for every piece on the board.
func (b *Board) Pieces(fn func(p board.Piece, sq board.Square)) {
	each := func(bb uint64, p board.Piece) {
		for bb != 0 {
			sq := bits.TrailingZeros64(bb)
			bb &= bb - 1
			fn(p, board.Square(sq))
		}
	}
	sides := [2]*dragontoothmg.Bitboards{&b.inner.White, &b.inner.Black}
	for c, bbs := range sides {
		color := board.Color(c)
		each(bbs.Pawns, board.Piece{Type: board.Pawn, Color: color})
		each(bbs.Knights, board.Piece{Type: board.Knight, Color: color})
		each(bbs.Bishops, board.Piece{Type: board.Bishop, Color: color})
		each(bbs.Rooks, board.Piece{Type: board.Rook, Color: color})
		each(bbs.Queens, board.Piece{Type: board.Queen, Color: color})
		each(bbs.Kings, board.Piece{Type: board.King, Color: color})
	}
}

func (b *Board) convert(raw dragontoothmg.Move) board.Move {
	from, to := raw.From(), raw.To()
	m := board.Move{From: board.Square(from), To: board.Square(to)}
	mover := pieceTypeAt(from, b.ours())
	if pieceTypeAt(to, b.theirs()) != board.NoPieceType {
		m.Flags |= board.FlagCapture
	} else if mover == board.Pawn && from&7 != to&7 {
		m.Flags |= board.FlagCapture | board.FlagEnPassant
	}
	if promote := board.PieceType(raw.Promote()); promote != board.NoPieceType {
		m.Promotion = promote
		m.Flags |= board.FlagPromotion
	}
	if mover == board.King && (int(from&7)-int(to&7) == 2 || int(to&7)-int(from&7) == 2) {
		m.Flags |= board.FlagCastle
	}
	return m
}

// legal returns the cached generation for the current position.
func (b *Board) legal() *generated {
	height := len(b.stack)
	for len(b.cache) <= height {
		b.cache = append(b.cache, generated{})
	}
	g := &b.cache[height]
	key := b.inner.Hash()
	if g.valid && g.key == key {
		return g
	}
	g.raw = b.inner.GenerateLegalMoves()
	g.moves = g.moves[:0]
	for _, raw := range g.raw {
		g.moves = append(g.moves, b.convert(raw))
	}
	g.key = key
	g.valid = true
	return g
}

// LegalMoves enumerates legal moves in generator order. The returned slice is
// owned by the caller.
func (b *Board) LegalMoves(capturesOnly bool) []board.Move {
	g := b.legal()
	out := make([]board.Move, 0, len(g.moves))
	for _, m := range g.moves {
		if capturesOnly && !m.IsCapture() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// FindMove resolves a UCI move string against the legal moves.
func (b *Board) FindMove(uci string) (board.Move, bool) {
	uci = strings.ToLower(strings.TrimSpace(uci))
	for _, m := range b.legal().moves {
		if m.String() == uci {
			return m, true
		}
	}
	return board.NullMove, false
}

// MakeMove plays m, which must be legal in the current position.
func (b *Board) MakeMove(m board.Move) {
	g := b.legal()
	for i, cand := range g.moves {
		if cand == m {
			unapply := b.inner.Apply(g.raw[i])
			b.stack = append(b.stack, undo{move: m, unapply: unapply})
			b.history = append(b.history, b.inner.Hash())
			return
		}
	}
	panic(fmt.Sprintf("rules: illegal move %s", m))
}

// UnmakeMove takes back m, which must be the most recent move made.
func (b *Board) UnmakeMove(m board.Move) {
	n := len(b.stack)
	if n == 0 || b.stack[n-1].move != m {
		panic(fmt.Sprintf("rules: unmake %s does not match the last move made", m))
	}
	b.stack[n-1].unapply()
	b.stack = b.stack[:n-1]
	b.history = b.history[:len(b.history)-1]
}

// Commit forgets the undo information so far; used when moves arrive from a
// game record and will never be taken back.
func (b *Board) Commit() {
	b.stack = b.stack[:0]
	for i := range b.cache {
		b.cache[i].valid = false
	}
}

func (b *Board) IsCheckmate() bool {
	return len(b.legal().moves) == 0 && b.InCheck()
}

// IsDraw covers stalemate, the fifty-move rule, threefold repetition and bare
// material that cannot mate.
func (b *Board) IsDraw() bool {
	if len(b.legal().moves) == 0 {
		return !b.InCheck()
	}
	if b.Halfmoves() >= fiftyMoveLimit {
		return true
	}
	return b.repetitions() >= 2 || b.insufficientMaterial()
}

// repetitions counts earlier occurrences of the current position since the
// last irreversible move.
func (b *Board) repetitions() int {
	n := len(b.history) - 1
	curr := b.history[n]
	start := n - b.Halfmoves()
	if start < 0 {
		start = 0
	}
	count := 0
	for i := n - 2; i >= start; i -= 2 {
		if b.history[i] == curr {
			count++
		}
	}
	return count
}

func (b *Board) insufficientMaterial() bool {
	w, bl := &b.inner.White, &b.inner.Black
	if w.Pawns|bl.Pawns|w.Rooks|bl.Rooks|w.Queens|bl.Queens != 0 {
		return false
	}
	minors := bits.OnesCount64(w.Knights | w.Bishops | bl.Knights | bl.Bishops)
	return minors <= 1
}
