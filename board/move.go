package board

type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagCastle
	FlagPromotion
	FlagEnPassant
)

// Move is produced by the rules engine and never mutated afterwards.
// Two moves are the same move when they compare equal with ==.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Flags     MoveFlag
}

var NullMove Move

func (m Move) IsNull() bool      { return m == NullMove }
func (m Move) IsCapture() bool   { return m.Flags&FlagCapture != 0 }
func (m Move) IsCastle() bool    { return m.Flags&FlagCastle != 0 }
func (m Move) IsPromotion() bool { return m.Flags&FlagPromotion != 0 }
func (m Move) IsEnPassant() bool { return m.Flags&FlagEnPassant != 0 }

// String renders long algebraic notation as used by UCI.
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	return m.From.String() + m.To.String() + m.Promotion.String()
}
