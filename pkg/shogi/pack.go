package shogi

import "fmt"

// Packed256 is a fixed 256-bit encoding of a position (board, hands,
// side to move). Move numbers are not encoded, so it doubles as a
// transposition-friendly cache key. Packing requires exactly one king
// per side; arbitrary editing positions should key on SFEN instead.
type Packed256 struct {
	Words [4]uint64
}

type packCode struct {
	kind    Kind
	bits    uint64
	bitLen  int
	isEmpty bool
}

var boardPackCodes = []packCode{
	{bits: 0b0, bitLen: 1, isEmpty: true},
	{kind: Pawn, bits: 0b01, bitLen: 2},
	{kind: Lance, bits: 0b0011, bitLen: 4},
	{kind: Knight, bits: 0b1011, bitLen: 4},
	{kind: Silver, bits: 0b0111, bitLen: 4},
	{kind: Gold, bits: 0b01111, bitLen: 5},
	{kind: Bishop, bits: 0b011111, bitLen: 6},
	{kind: Rook, bits: 0b111111, bitLen: 6},
}

var handPackCodes = []packCode{
	{kind: Pawn, bits: 0b0, bitLen: 1},
	{kind: Lance, bits: 0b001, bitLen: 3},
	{kind: Knight, bits: 0b101, bitLen: 3},
	{kind: Silver, bits: 0b011, bitLen: 3},
	{kind: Gold, bits: 0b0111, bitLen: 4},
	{kind: Bishop, bits: 0b01111, bitLen: 5},
	{kind: Rook, bits: 0b11111, bitLen: 5},
}

// Pack encodes the position into 256 bits.
func (p *Position) Pack() (Packed256, error) {
	w := &bitWriter{}
	turnBit := uint64(0)
	if p.turn == White {
		turnBit = 1
	}
	if err := w.writeBits(turnBit, 1); err != nil {
		return Packed256{}, err
	}

	blackKing := findKing(Black, &p.board)
	whiteKing := findKing(White, &p.board)
	if blackKing < 0 || whiteKing < 0 {
		return Packed256{}, fmt.Errorf("position is missing a king")
	}
	if err := w.writeBits(uint64(blackKing), 7); err != nil {
		return Packed256{}, err
	}
	if err := w.writeBits(uint64(whiteKing), 7); err != nil {
		return Packed256{}, err
	}

	for sq := 0; sq < 81; sq++ {
		if sq == blackKing || sq == whiteKing {
			continue
		}
		piece := p.board[sq]
		if piece == nil {
			if err := w.writeCode(boardPackCodes, 0, true); err != nil {
				return Packed256{}, err
			}
			continue
		}
		if piece.Kind == King {
			return Packed256{}, fmt.Errorf("extra king at %s", SquareString(sq))
		}
		if err := w.writeCode(boardPackCodes, piece.Kind, false); err != nil {
			return Packed256{}, err
		}
		if err := w.writeColor(piece.Color); err != nil {
			return Packed256{}, err
		}
		if CanPromote(piece.Kind) {
			bit := uint64(0)
			if piece.Promoted {
				bit = 1
			}
			if err := w.writeBits(bit, 1); err != nil {
				return Packed256{}, err
			}
		}
	}

	p.ensureHands()
	for _, color := range []Color{Black, White} {
		for _, kind := range []Kind{Pawn, Lance, Knight, Silver, Gold, Bishop, Rook} {
			for i := 0; i < p.hands[color][kind]; i++ {
				if err := w.writeCode(handPackCodes, kind, false); err != nil {
					return Packed256{}, err
				}
				if err := w.writeColor(color); err != nil {
					return Packed256{}, err
				}
				if CanPromote(kind) {
					if err := w.writeBits(0, 1); err != nil {
						return Packed256{}, err
					}
				}
			}
		}
	}

	if w.pos != 256 {
		return Packed256{}, fmt.Errorf("packed length is %d bits, expected 256", w.pos)
	}
	return Packed256{Words: w.words}, nil
}

// UnpackPosition decodes a 256-bit packed position. The move number of
// the result is always 1.
func UnpackPosition(packed Packed256) (*Position, error) {
	r := &bitReader{words: packed.Words}
	turnBit, err := r.readBits(1)
	if err != nil {
		return nil, err
	}
	blackKing, err := r.readBits(7)
	if err != nil {
		return nil, err
	}
	whiteKing, err := r.readBits(7)
	if err != nil {
		return nil, err
	}
	if blackKing == whiteKing || blackKing >= 81 || whiteKing >= 81 {
		return nil, fmt.Errorf("invalid king squares %d/%d", blackKing, whiteKing)
	}

	pos := NewPosition()
	if turnBit == 1 {
		pos.turn = White
	}
	pos.board[blackKing] = &Piece{Kind: King, Color: Black}
	pos.board[whiteKing] = &Piece{Kind: King, Color: White}

	for sq := 0; sq < 81; sq++ {
		if sq == int(blackKing) || sq == int(whiteKing) {
			continue
		}
		code, err := r.readCode(boardPackCodes)
		if err != nil {
			return nil, err
		}
		if code.isEmpty {
			continue
		}
		color, err := r.readColor()
		if err != nil {
			return nil, err
		}
		promoted := false
		if CanPromote(code.kind) {
			bit, err := r.readBits(1)
			if err != nil {
				return nil, err
			}
			promoted = bit == 1
		}
		pos.board[sq] = &Piece{Kind: code.kind, Color: color, Promoted: promoted}
	}

	for r.pos < 256 {
		code, err := r.readCode(handPackCodes)
		if err != nil {
			return nil, err
		}
		color, err := r.readColor()
		if err != nil {
			return nil, err
		}
		if CanPromote(code.kind) {
			bit, err := r.readBits(1)
			if err != nil {
				return nil, err
			}
			if bit != 0 {
				return nil, fmt.Errorf("promoted %c in hand", code.kind.Letter())
			}
		}
		pos.hands[color][code.kind]++
	}
	return pos, nil
}

type bitWriter struct {
	words [4]uint64
	pos   int
}

func (w *bitWriter) writeBits(value uint64, bitLen int) error {
	for i := 0; i < bitLen; i++ {
		if w.pos >= 256 {
			return fmt.Errorf("bitstream overflow")
		}
		if (value>>i)&1 != 0 {
			w.words[w.pos/64] |= 1 << uint(w.pos%64)
		}
		w.pos++
	}
	return nil
}

func (w *bitWriter) writeCode(codes []packCode, kind Kind, empty bool) error {
	for _, code := range codes {
		if code.isEmpty == empty && (empty || code.kind == kind) {
			return w.writeBits(code.bits, code.bitLen)
		}
	}
	return fmt.Errorf("no pack code for %c", kind.Letter())
}

func (w *bitWriter) writeColor(color Color) error {
	bit := uint64(0)
	if color == White {
		bit = 1
	}
	return w.writeBits(bit, 1)
}

type bitReader struct {
	words [4]uint64
	pos   int
}

func (r *bitReader) readBits(bitLen int) (uint64, error) {
	var value uint64
	for i := 0; i < bitLen; i++ {
		if r.pos >= 256 {
			return 0, fmt.Errorf("bitstream underflow")
		}
		bit := (r.words[r.pos/64] >> uint(r.pos%64)) & 1
		value |= bit << i
		r.pos++
	}
	return value, nil
}

func (r *bitReader) readCode(codes []packCode) (packCode, error) {
	maxLen := 0
	for _, code := range codes {
		if code.bitLen > maxLen {
			maxLen = code.bitLen
		}
	}
	var value uint64
	for length := 1; length <= maxLen; length++ {
		bit, err := r.readBits(1)
		if err != nil {
			return packCode{}, err
		}
		value |= bit << (length - 1)
		for _, code := range codes {
			if code.bitLen == length && code.bits == value {
				return code, nil
			}
		}
	}
	return packCode{}, fmt.Errorf("invalid pack code")
}

func (r *bitReader) readColor() (Color, error) {
	bit, err := r.readBits(1)
	if err != nil {
		return Black, err
	}
	if bit == 1 {
		return White, nil
	}
	return Black, nil
}
