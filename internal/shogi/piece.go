package shogi

// Color identifies a side: Black moves first in Shogi (not White, unlike
// chess), matching USI's "b"/"w" SFEN side-to-move letters.
type Color int8

const (
	Black Color = iota
	White
	NoColor
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == Black {
		return "b"
	}
	return "w"
}

// PieceType enumerates the 8 base Shogi piece types plus their 6
// promoted forms (King and Gold never promote).
type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Bishop
	Rook
	Gold
	King
	ProPawn   // Tokin
	ProLance
	ProKnight
	ProSilver
	Horse // promoted Bishop
	Dragon // promoted Rook
	numPieceTypes
)

// Promote returns the promoted form of pt, or NoPieceType if pt cannot
// promote (Gold, King, or an already-promoted piece).
func (pt PieceType) Promote() PieceType {
	switch pt {
	case Pawn:
		return ProPawn
	case Lance:
		return ProLance
	case Knight:
		return ProKnight
	case Silver:
		return ProSilver
	case Bishop:
		return Horse
	case Rook:
		return Dragon
	default:
		return NoPieceType
	}
}

// Demote returns the unpromoted form of pt. For an already-unpromoted
// (or unpromotable) type it returns pt unchanged, which is the form a
// captured piece reverts to when it joins the capturing side's hand.
func (pt PieceType) Demote() PieceType {
	switch pt {
	case ProPawn:
		return Pawn
	case ProLance:
		return Lance
	case ProKnight:
		return Knight
	case ProSilver:
		return Silver
	case Horse:
		return Bishop
	case Dragon:
		return Rook
	default:
		return pt
	}
}

// IsPromoted reports whether pt is one of the 6 promoted forms.
func (pt PieceType) IsPromoted() bool {
	return pt >= ProPawn && pt <= Dragon
}

// CanDrop reports whether pt is a type that exists in hand and can be
// dropped (every base type except King).
func (pt PieceType) CanDrop() bool {
	return pt >= Pawn && pt <= Gold
}

var pieceTypeLetters = map[PieceType]byte{
	Pawn: 'P', Lance: 'L', Knight: 'N', Silver: 'S',
	Bishop: 'B', Rook: 'R', Gold: 'G', King: 'K',
}

// Letter returns the SFEN letter for pt's unpromoted base form; promoted
// forms are rendered by the caller as "+" followed by the base letter.
func (pt PieceType) Letter() byte {
	return pieceTypeLetters[pt.Demote()]
}

func (pt PieceType) String() string {
	names := map[PieceType]string{
		Pawn: "P", Lance: "L", Knight: "N", Silver: "S", Bishop: "B",
		Rook: "R", Gold: "G", King: "K", ProPawn: "+P", ProLance: "+L",
		ProKnight: "+N", ProSilver: "+S", Horse: "+B", Dragon: "+R",
	}
	return names[pt]
}

// Piece packs a Color and PieceType into one value: color*numPieceTypes+type.
type Piece int16

// NoPiece marks an empty square.
const NoPiece Piece = Piece(int16(NoColor) * int16(numPieceTypes))

// NewPiece builds a Piece from a color and type.
func NewPiece(c Color, pt PieceType) Piece {
	return Piece(int16(c)*int16(numPieceTypes) + int16(pt))
}

// Type returns p's piece type.
func (p Piece) Type() PieceType { return PieceType(int16(p) % int16(numPieceTypes)) }

// Color returns p's color.
func (p Piece) Color() Color { return Color(int16(p) / int16(numPieceTypes)) }

func (p Piece) String() string {
	if p == NoPiece {
		return "."
	}
	return p.Type().String()
}

// handOrder is the canonical SFEN hand ordering (spec.md/SPEC_FULL §5):
// Rook, Bishop, Gold, Silver, Knight, Lance, Pawn.
var handOrder = [7]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

// Hand holds the count of each droppable piece type a side has captured.
type Hand [numPieceTypes]uint8

// Count returns how many of pt are in the hand.
func (h Hand) Count(pt PieceType) uint8 { return h[pt] }

// Add increments the count of pt (always stored as its unpromoted form).
func (h *Hand) Add(pt PieceType) { h[pt.Demote()]++ }

// Remove decrements the count of pt. The caller must ensure the count is
// positive; it is a programming error to drop a piece type absent from
// the hand.
func (h *Hand) Remove(pt PieceType) { h[pt.Demote()]-- }

// Empty reports whether the hand holds no pieces.
func (h Hand) Empty() bool {
	for _, pt := range handOrder {
		if h[pt] != 0 {
			return false
		}
	}
	return true
}
