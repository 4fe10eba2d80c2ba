package shogi

import (
	"errors"
	"fmt"
)

// Board is the 9x9 grid, row-major: index = row*9 + col. Row 0 is the
// far rank from Black's side (SFEN rank "a"), column 0 is file 9.
type Board [81]*Piece

// SquareIndex converts shogi coordinates (file 1..9, rank 1..9) to a
// board index. Out-of-range coordinates return -1.
func SquareIndex(file, rank int) int {
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return -1
	}
	return (rank-1)*9 + (9 - file)
}

// FileRank converts a board index back to shogi coordinates.
func FileRank(idx int) (file, rank int) {
	return 9 - idx%9, idx/9 + 1
}

// SquareString renders a board index in USI notation, e.g. "7g".
func SquareString(idx int) string {
	if idx < 0 || idx >= 81 {
		return "??"
	}
	file, rank := FileRank(idx)
	return fmt.Sprintf("%d%c", file, 'a'+rank-1)
}

// At returns the piece at the index, or nil when the index is off-board
// or the square is empty.
func (b *Board) At(idx int) *Piece {
	if idx < 0 || idx >= 81 {
		return nil
	}
	return b[idx]
}

// Clone deep-copies the board so simulations never touch the original.
func (b *Board) Clone() Board {
	var out Board
	for i, piece := range b {
		if piece == nil {
			continue
		}
		copied := *piece
		out[i] = &copied
	}
	return out
}

// Hand is a side's inventory of captured pieces. Captured pieces always
// revert to unpromoted; kinds with count zero are removed from the map.
type Hand map[Kind]int

func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	for kind, count := range h {
		out[kind] = count
	}
	return out
}

func (h Hand) add(kind Kind) {
	h[kind]++
}

func (h Hand) remove(kind Kind) error {
	if h[kind] <= 0 {
		return fmt.Errorf("no %c in hand", kind.Letter())
	}
	h[kind]--
	if h[kind] == 0 {
		delete(h, kind)
	}
	return nil
}

// Hands maps each side to its hand.
type Hands map[Color]Hand

func NewHands() Hands {
	return Hands{Black: Hand{}, White: Hand{}}
}

func (hs Hands) Clone() Hands {
	out := make(Hands, len(hs))
	for color, hand := range hs {
		out[color] = hand.Clone()
	}
	return out
}

// Position is a full in-memory snapshot: board, hands, side to move,
// and move number. It carries no history.
type Position struct {
	board      Board
	hands      Hands
	turn       Color
	moveNumber int
}

// NewPosition returns an empty board with empty hands, Black to move,
// move number 1.
func NewPosition() *Position {
	return &Position{hands: NewHands(), turn: Black, moveNumber: 1}
}

// InitialSFEN is the standard even-game starting position.
const InitialSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// NewInitialPosition returns the standard starting position.
func NewInitialPosition() *Position {
	pos, err := ParseSFEN(InitialSFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// SetPiece places a piece at shogi coordinates, replacing any occupant.
// Out-of-range coordinates are ignored.
func (p *Position) SetPiece(file, rank int, kind Kind, color Color, promoted bool) {
	idx := SquareIndex(file, rank)
	if idx < 0 {
		return
	}
	p.board[idx] = &Piece{Kind: kind, Color: color, Promoted: promoted}
}

// RemovePiece clears the square at shogi coordinates.
func (p *Position) RemovePiece(file, rank int) {
	idx := SquareIndex(file, rank)
	if idx < 0 {
		return
	}
	p.board[idx] = nil
}

// PieceAt returns a copy of the piece at shogi coordinates, or nil.
func (p *Position) PieceAt(file, rank int) *Piece {
	piece := p.board.At(SquareIndex(file, rank))
	if piece == nil {
		return nil
	}
	copied := *piece
	return &copied
}

// Board returns a deep copy of the board. Rules queries operate on such
// snapshots so a legality probe can never mutate the live position.
func (p *Position) Board() Board {
	return p.board.Clone()
}

// Hand returns a copy of the given side's hand.
func (p *Position) Hand(color Color) Hand {
	p.ensureHands()
	return p.hands[color].Clone()
}

// Hands returns a deep copy of both hands.
func (p *Position) Hands() Hands {
	p.ensureHands()
	return p.hands.Clone()
}

// AddToHand puts an unpromoted piece of the kind into the side's hand.
// Kings are never held in hand; the call is ignored for King.
func (p *Position) AddToHand(color Color, kind Kind) {
	if kind == King {
		return
	}
	p.ensureHands()
	p.hands[color].add(kind)
}

func (p *Position) Turn() Color        { return p.turn }
func (p *Position) SetTurn(c Color)    { p.turn = c }
func (p *Position) MoveNumber() int    { return p.moveNumber }
func (p *Position) SetMoveNumber(n int) {
	if n < 1 {
		n = 1
	}
	p.moveNumber = n
}

func (p *Position) ensureHands() {
	if p.hands == nil {
		p.hands = NewHands()
	}
	if p.hands[Black] == nil {
		p.hands[Black] = Hand{}
	}
	if p.hands[White] == nil {
		p.hands[White] = Hand{}
	}
}

// Clone deep-copies the position.
func (p *Position) Clone() *Position {
	p.ensureHands()
	return &Position{
		board:      p.board.Clone(),
		hands:      p.hands.Clone(),
		turn:       p.turn,
		moveNumber: p.moveNumber,
	}
}

// ApplyMove applies a USI-format move ("7g7f", "2b3c+", "P*5e") for the
// side to move, with capture bookkeeping: captured pieces revert to
// their unpromoted kind and join the mover's hand.
func (p *Position) ApplyMove(text string) error {
	move, err := ParseMove(text)
	if err != nil {
		return err
	}
	p.ensureHands()
	if move.IsDrop {
		return p.applyDrop(move)
	}
	return p.applyBoardMove(move)
}

func (p *Position) applyDrop(move Move) error {
	if p.board.At(move.To) != nil {
		return errors.New("drop destination occupied")
	}
	if err := p.hands[p.turn].remove(move.Drop); err != nil {
		return err
	}
	p.board[move.To] = &Piece{Kind: move.Drop, Color: p.turn}
	p.finishMove()
	return nil
}

func (p *Position) applyBoardMove(move Move) error {
	piece := p.board.At(move.From)
	if piece == nil {
		return fmt.Errorf("no piece at %s", SquareString(move.From))
	}
	if piece.Color != p.turn {
		return errors.New("moving opponent piece")
	}
	captured := p.board.At(move.To)
	if captured != nil {
		if captured.Color == p.turn {
			return errors.New("capturing own piece")
		}
		p.hands[p.turn].add(captured.Kind)
	}
	moved := *piece
	if move.Promote {
		if !CanPromote(moved.Kind) {
			return fmt.Errorf("cannot promote %c", moved.Kind.Letter())
		}
		moved.Promote()
	}
	p.board[move.From] = nil
	p.board[move.To] = &moved
	p.finishMove()
	return nil
}

func (p *Position) finishMove() {
	p.turn = p.turn.Opponent()
	p.moveNumber++
}
