package shogi

import "fmt"

// HangingPiece describes a piece that an opponent can capture with no
// safe recapture, annotated for commentary ranking.
type HangingPiece struct {
	Kind         Kind
	Promoted     bool
	Index        int
	Square       string
	Value        int
	KingDistance int
}

// Label renders the commentary hint form "<piece-letter>@<square>".
func (h HangingPiece) Label() string {
	letter := string(h.Kind.Letter())
	if h.Promoted {
		letter = "+" + letter
	}
	return fmt.Sprintf("%s@%s", letter, h.Square)
}

// FindHangingPieces scans every non-king piece of the owner. A piece is
// hanging when some opposing piece can legally capture it and, after
// simulating that capture, the owner has no legal recapture of the
// capturing piece's new square. Each hit is annotated with material
// value, square notation, and Manhattan distance to the opponent's
// king. Result order follows board index order; use PickMostUrgent for
// a deterministic selection.
func FindHangingPieces(b *Board, owner Color) []HangingPiece {
	enemyKing := findKing(owner.Opponent(), b)
	var hanging []HangingPiece
	for idx, piece := range b {
		if piece == nil || piece.Color != owner || piece.Kind == King {
			continue
		}
		if !isHanging(b, owner, idx) {
			continue
		}
		hanging = append(hanging, HangingPiece{
			Kind:         piece.Kind,
			Promoted:     piece.Promoted,
			Index:        idx,
			Square:       SquareString(idx),
			Value:        Value(piece.Kind, piece.Promoted),
			KingDistance: manhattan(idx, enemyKing),
		})
	}
	return hanging
}

func isHanging(b *Board, owner Color, target int) bool {
	for idx, attacker := range b {
		if attacker == nil || attacker.Color == owner {
			continue
		}
		if !containsSquare(LegalMoves(*attacker, idx, b), target) {
			continue
		}
		sim := b.Clone()
		moved := *attacker
		sim[idx] = nil
		sim[target] = &moved
		if !hasRecapture(&sim, owner, target) {
			return true
		}
	}
	return false
}

func hasRecapture(b *Board, owner Color, square int) bool {
	for idx, piece := range b {
		if piece == nil || piece.Color != owner {
			continue
		}
		if containsSquare(LegalMoves(*piece, idx, b), square) {
			return true
		}
	}
	return false
}

func containsSquare(squares []int, want int) bool {
	for _, sq := range squares {
		if sq == want {
			return true
		}
	}
	return false
}

// manhattan returns the Manhattan distance between two board indices.
// A missing king (-1) yields a distance larger than any on-board pair
// so king proximity never breaks ties in its favor.
func manhattan(a, bIdx int) int {
	if a < 0 || bIdx < 0 {
		return 99
	}
	dr := a/9 - bIdx/9
	dc := a%9 - bIdx%9
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// PickMostUrgent selects the highest-value hanging piece, breaking ties
// by smaller distance to the opponent's king.
func PickMostUrgent(pieces []HangingPiece) (HangingPiece, bool) {
	if len(pieces) == 0 {
		return HangingPiece{}, false
	}
	best := pieces[0]
	for _, candidate := range pieces[1:] {
		if candidate.Value > best.Value ||
			(candidate.Value == best.Value && candidate.KingDistance < best.KingDistance) {
			best = candidate
		}
	}
	return best, true
}
