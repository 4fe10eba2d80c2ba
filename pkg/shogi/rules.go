package shogi

import "sort"

// PseudoLegalMoves returns every destination consistent with the
// piece's movement template and board occupancy, ignoring check. Step
// cells yield a single destination unless it is off-board or held by a
// same-color piece. Slide cells are normalized to unit directions
// (duplicate rays collapse) and walked until the edge, a friendly
// piece, or just past the first enemy piece.
func PseudoLegalMoves(piece Piece, from int, b *Board) []int {
	if from < 0 || from >= 81 {
		return nil
	}
	template := MovementTemplate(piece.Kind, piece.Promoted, piece.Color)
	row, col := from/9, from%9

	var dests []int
	var rays [][2]int
	seen := map[[2]int]bool{}
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			dr, dc := r-2, c-2
			switch template[r][c] {
			case 1:
				tr, tc := row+dr, col+dc
				if tr < 0 || tr > 8 || tc < 0 || tc > 8 {
					continue
				}
				to := tr*9 + tc
				if target := b[to]; target != nil && target.Color == piece.Color {
					continue
				}
				dests = append(dests, to)
			case 2:
				dir := [2]int{sign(dr), sign(dc)}
				if dir == [2]int{0, 0} || seen[dir] {
					continue
				}
				seen[dir] = true
				rays = append(rays, dir)
			}
		}
	}

	for _, dir := range rays {
		tr, tc := row+dir[0], col+dir[1]
		for tr >= 0 && tr <= 8 && tc >= 0 && tc <= 8 {
			to := tr*9 + tc
			target := b[to]
			if target == nil {
				dests = append(dests, to)
				tr += dir[0]
				tc += dir[1]
				continue
			}
			if target.Color != piece.Color {
				dests = append(dests, to)
			}
			break
		}
	}

	sort.Ints(dests)
	return dests
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// LegalMoves filters PseudoLegalMoves to destinations that do not leave
// the mover's own king in check. Every candidate is simulated on a
// board copy; the caller's board is never touched.
func LegalMoves(piece Piece, from int, b *Board) []int {
	var legal []int
	for _, to := range PseudoLegalMoves(piece, from, b) {
		sim := b.Clone()
		moved := piece
		sim[from] = nil
		sim[to] = &moved
		if !IsInCheck(piece.Color, &sim) {
			legal = append(legal, to)
		}
	}
	return legal
}

// LegalDrops returns every empty square where a hand piece of the kind
// may be dropped. Excluded are dead-end ranks (pawn and lance on the
// farthest rank, knight on the two farthest), files already holding an
// unpromoted same-color pawn (nifu; promoted pawns do not block), drops
// that leave the dropper's own king in check, and pawn drops that
// deliver immediate checkmate (uchifuzume). The uchifuzume test runs
// only when hands is non-nil; a nil hands skips that test alone.
func LegalDrops(kind Kind, color Color, b *Board, hands Hands) []int {
	var legal []int
	for idx := 0; idx < 81; idx++ {
		if b[idx] != nil {
			continue
		}
		if dropDeadEnd(kind, color, idx/9) {
			continue
		}
		if kind == Pawn && pawnOnFile(b, color, idx%9) {
			continue
		}
		sim := b.Clone()
		sim[idx] = &Piece{Kind: kind, Color: color}
		if IsInCheck(color, &sim) {
			continue
		}
		if hands != nil && kind == Pawn && dropMates(color, &sim, hands) {
			continue
		}
		legal = append(legal, idx)
	}
	return legal
}

func dropDeadEnd(kind Kind, color Color, row int) bool {
	last := 0
	secondLast := 1
	if color == White {
		last = 8
		secondLast = 7
	}
	switch kind {
	case Pawn, Lance:
		return row == last
	case Knight:
		return row == last || row == secondLast
	default:
		return false
	}
}

func pawnOnFile(b *Board, color Color, col int) bool {
	for row := 0; row < 9; row++ {
		piece := b[row*9+col]
		if piece != nil && piece.Color == color && piece.Kind == Pawn && !piece.Promoted {
			return true
		}
	}
	return false
}

// dropMates reports whether the already-simulated pawn drop checkmates
// the opponent. The dropped pawn is deducted from the dropper's hand
// before the checkmate scan.
func dropMates(color Color, sim *Board, hands Hands) bool {
	opponent := color.Opponent()
	if !IsInCheck(opponent, sim) {
		return false
	}
	after := hands.Clone()
	if after[color] == nil {
		after[color] = Hand{}
	}
	_ = after[color].remove(Pawn)
	return IsCheckmate(opponent, sim, after)
}

// IsInCheck reports whether the side's king is attacked. A board with
// no king of that side is tolerated and reported as not in check.
func IsInCheck(color Color, b *Board) bool {
	kingIdx := findKing(color, b)
	if kingIdx < 0 {
		return false
	}
	for idx, piece := range b {
		if piece == nil || piece.Color == color {
			continue
		}
		for _, to := range PseudoLegalMoves(*piece, idx, b) {
			if to == kingIdx {
				return true
			}
		}
	}
	return false
}

func findKing(color Color, b *Board) int {
	for idx, piece := range b {
		if piece != nil && piece.Kind == King && piece.Color == color {
			return idx
		}
	}
	return -1
}

// IsCheckmate reports whether the side is in check with no legal move
// and, when hands is supplied, no legal drop either. The drop scan
// passes nil hands so the uchifuzume test cannot recurse: a drop that
// escapes check is never itself a pawn-drop-mate question.
func IsCheckmate(color Color, b *Board, hands Hands) bool {
	if !IsInCheck(color, b) {
		return false
	}
	for idx, piece := range b {
		if piece == nil || piece.Color != color {
			continue
		}
		if len(LegalMoves(*piece, idx, b)) > 0 {
			return false
		}
	}
	if hands != nil {
		for kind, count := range hands[color] {
			if count <= 0 {
				continue
			}
			if len(LegalDrops(kind, color, b, nil)) > 0 {
				return false
			}
		}
	}
	return true
}

// InPromotionZone reports whether the row lies in the side's promotion
// zone: the three rows nearest the opponent.
func InPromotionZone(color Color, row int) bool {
	if color == Black {
		return row <= 2
	}
	return row >= 6
}

// CanPromoteMove reports whether the move from one square to another
// may promote: the kind must have a promoted form, the piece must not
// already be promoted, and the move must start or end in the zone.
func CanPromoteMove(piece Piece, from, to int) bool {
	if !CanPromote(piece.Kind) || piece.Promoted {
		return false
	}
	return InPromotionZone(piece.Color, from/9) || InPromotionZone(piece.Color, to/9)
}

// IsPromotionMandatory reports whether the piece would have no further
// moves at the destination without promoting: pawn and lance on the
// farthest rank, knight on the two farthest.
func IsPromotionMandatory(piece Piece, to int) bool {
	if piece.Promoted {
		return false
	}
	return dropDeadEnd(piece.Kind, piece.Color, to/9)
}

// CountLegalActions counts every legal move and drop available to the
// side to move, uchifuzume included. Commentary uses this for the
// "only one legal move" flag.
func CountLegalActions(pos *Position) int {
	board := pos.Board()
	hands := pos.Hands()
	turn := pos.Turn()
	total := 0
	for idx, piece := range board {
		if piece == nil || piece.Color != turn {
			continue
		}
		total += len(LegalMoves(*piece, idx, &board))
	}
	for kind, count := range hands[turn] {
		if count <= 0 {
			continue
		}
		total += len(LegalDrops(kind, turn, &board, hands))
	}
	return total
}
