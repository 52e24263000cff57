package board

import "fmt"

// Square indexes the board from a1 (0) to h8 (63), rank-major.
type Square uint8

const NoSquare Square = 64

func (sq Square) File() int { return int(sq) & 7 }
func (sq Square) Rank() int { return int(sq) >> 3 }

// Mirror flips the square vertically, so a white table can be read for black.
func (sq Square) Mirror() Square { return sq ^ 56 }

func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// ParseSquare reads a coordinate such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", s)
	}
	return Square(int(s[1]-'1')*8 + int(s[0]-'a')), nil
}

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType ordering matches dragontoothmg's piece constants.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceLetters = [...]byte{' ', 'p', 'n', 'b', 'r', 'q', 'k'}

func (pt PieceType) String() string {
	if int(pt) >= len(pieceLetters) || pt == NoPieceType {
		return ""
	}
	return string(pieceLetters[pt])
}

type Piece struct {
	Type  PieceType
	Color Color
}
