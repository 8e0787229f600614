package shogi

import (
	"fmt"
	"strconv"
	"strings"
)

// StartSFEN is the standard Shogi starting position in SFEN notation
// (spec.md §6.3).
const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenBoardLetters = map[byte]PieceType{
	'p': Pawn, 'l': Lance, 'n': Knight, 's': Silver, 'g': Gold,
	'b': Bishop, 'r': Rook, 'k': King,
}

// SetSFEN parses a full SFEN record (board, side to move, hands, move
// number) and replaces p's contents with it.
func (p *Position) SetSFEN(sfen string) error {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return fmt.Errorf("shogi: malformed sfen %q: need at least 3 fields", sfen)
	}
	p.Reset()

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 9 {
		return fmt.Errorf("shogi: malformed sfen board %q: want 9 ranks, got %d", fields[0], len(ranks))
	}
	for r, row := range ranks {
		file := 8
		promote := false
		for i := 0; i < len(row); i++ {
			ch := row[i]
			switch {
			case ch == '+':
				promote = true
			case ch >= '1' && ch <= '9':
				file -= int(ch - '0')
			default:
				lower := ch | 0x20
				pt, ok := sfenBoardLetters[lower]
				if !ok {
					return fmt.Errorf("shogi: bad board letter %q in sfen", string(ch))
				}
				if promote {
					pt = pt.Promote()
					promote = false
				}
				c := Black
				if ch >= 'a' && ch <= 'z' {
					c = White
				}
				if file < 0 || file > 8 {
					return fmt.Errorf("shogi: sfen rank %q overflows board width", row)
				}
				p.putPiece(NewPiece(c, pt), NewSquare(File(file), Rank(r)))
				file--
			}
		}
	}

	switch fields[1] {
	case "b":
		p.sideToMove = Black
	case "w":
		p.sideToMove = White
	default:
		return fmt.Errorf("shogi: bad side-to-move field %q", fields[1])
	}

	if fields[2] != "-" {
		count := 0
		for i := 0; i < len(fields[2]); i++ {
			ch := fields[2][i]
			if ch >= '0' && ch <= '9' {
				count = count*10 + int(ch-'0')
				continue
			}
			lower := ch | 0x20
			pt, ok := sfenBoardLetters[lower]
			if !ok || pt == King {
				return fmt.Errorf("shogi: bad hand letter %q in sfen", string(ch))
			}
			if count == 0 {
				count = 1
			}
			c := Black
			if ch >= 'a' && ch <= 'z' {
				c = White
			}
			p.hands[c][pt] = uint8(count)
			count = 0
		}
	}

	p.moveNumber = 1
	if len(fields) >= 4 {
		if n, err := strconv.Atoi(fields[3]); err == nil {
			p.moveNumber = n
		}
	}

	p.st.Hash = p.computeHashFromScratch()
	p.st.Checkers = p.computeCheckers()
	return nil
}

func (p *Position) computeHashFromScratch() uint64 {
	var h uint64
	for sq := Square(0); sq < 81; sq++ {
		if pc := p.board[sq]; pc != NoPiece {
			h ^= pieceKey(pc.Color(), pc.Type(), sq)
		}
	}
	for _, c := range [2]Color{Black, White} {
		for _, pt := range handOrder {
			h ^= handKey(c, pt, p.hands[c][pt])
		}
	}
	if p.sideToMove == White {
		h ^= zobristSide
	}
	return h
}

// SFEN serializes p's current state back to an SFEN record.
func (p *Position) SFEN() string {
	var b strings.Builder
	for r := Rank(0); r < 9; r++ {
		empty := 0
		for f := File(8); f >= 0; f-- {
			pc := p.board[NewSquare(f, r)]
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&b, "%d", empty)
				empty = 0
			}
			letter := pc.Type().Letter()
			if pc.Type().IsPromoted() {
				b.WriteByte('+')
			}
			if pc.Color() == White {
				letter |= 0x20
			}
			b.WriteByte(letter)
		}
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
		}
		if r < 8 {
			b.WriteByte('/')
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.sideToMove.String())
	b.WriteByte(' ')

	handStr := ""
	for _, c := range [2]Color{Black, White} {
		for _, pt := range handOrder {
			n := p.hands[c][pt]
			if n == 0 {
				continue
			}
			letter := pt.Letter()
			if c == White {
				letter |= 0x20
			}
			if n > 1 {
				handStr += strconv.Itoa(int(n))
			}
			handStr += string(letter)
		}
	}
	if handStr == "" {
		handStr = "-"
	}
	b.WriteString(handStr)
	fmt.Fprintf(&b, " %d", p.moveNumber)
	return b.String()
}
