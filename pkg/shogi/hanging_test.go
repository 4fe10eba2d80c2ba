package shogi_test

import (
	"testing"

	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
)

// TestFindHangingPieces_UndefendedGold verifies the basic case: a gold
// attacked by a silver with no recapture available.
func TestFindHangingPieces_UndefendedGold(t *testing.T) {
	pos := shogi.NewPosition()
	pos.SetPiece(9, 9, shogi.King, shogi.Black, false)
	pos.SetPiece(1, 1, shogi.King, shogi.White, false)
	pos.SetPiece(5, 5, shogi.Gold, shogi.Black, false)
	pos.SetPiece(4, 4, shogi.Silver, shogi.White, false)
	board := pos.Board()

	hanging := shogi.FindHangingPieces(&board, shogi.Black)
	if len(hanging) != 1 {
		t.Fatalf("hanging = %v, want exactly the gold", hanging)
	}
	piece := hanging[0]
	if piece.Kind != shogi.Gold || piece.Square != "5e" || piece.Value != 6 {
		t.Fatalf("hanging piece = %+v", piece)
	}
	if piece.Label() != "G@5e" {
		t.Fatalf("label = %q, want G@5e", piece.Label())
	}
}

// TestFindHangingPieces_DefendedGoldIsSafe verifies that an available
// recapture clears the hanging flag.
func TestFindHangingPieces_DefendedGoldIsSafe(t *testing.T) {
	pos := shogi.NewPosition()
	pos.SetPiece(9, 9, shogi.King, shogi.Black, false)
	pos.SetPiece(1, 1, shogi.King, shogi.White, false)
	pos.SetPiece(5, 5, shogi.Gold, shogi.Black, false)
	pos.SetPiece(4, 4, shogi.Silver, shogi.White, false)
	pos.SetPiece(5, 6, shogi.Pawn, shogi.Black, false) // recaptures on 5e
	board := pos.Board()

	if hanging := shogi.FindHangingPieces(&board, shogi.Black); len(hanging) != 0 {
		t.Fatalf("defended gold reported hanging: %v", hanging)
	}
}

// TestFindHangingPieces_PinnedAttackerDoesNotCount verifies that the
// attacker's capture must itself be legal.
func TestFindHangingPieces_PinnedAttackerDoesNotCount(t *testing.T) {
	// The white silver sits between its king and a black lance, so its
	// diagonal capture would expose the white king.
	pos := shogi.NewPosition()
	pos.SetPiece(9, 9, shogi.King, shogi.Black, false)
	pos.SetPiece(4, 1, shogi.King, shogi.White, false)
	pos.SetPiece(5, 5, shogi.Gold, shogi.Black, false)
	pos.SetPiece(4, 4, shogi.Silver, shogi.White, false)
	pos.SetPiece(4, 9, shogi.Lance, shogi.Black, false)
	board := pos.Board()

	if hanging := shogi.FindHangingPieces(&board, shogi.Black); len(hanging) != 0 {
		t.Fatalf("gold attacked only by a pinned silver reported hanging: %v", hanging)
	}
}

// TestFindHangingPieces_KingNeverListed verifies the king exclusion.
func TestFindHangingPieces_KingNeverListed(t *testing.T) {
	pos := shogi.NewPosition()
	pos.SetPiece(5, 5, shogi.King, shogi.Black, false)
	pos.SetPiece(5, 1, shogi.Rook, shogi.White, false)
	pos.SetPiece(1, 1, shogi.King, shogi.White, false)
	board := pos.Board()

	if hanging := shogi.FindHangingPieces(&board, shogi.Black); len(hanging) != 0 {
		t.Fatalf("king listed as hanging: %v", hanging)
	}
}

// TestPickMostUrgent verifies value ordering with the king-distance
// tie-break.
func TestPickMostUrgent(t *testing.T) {
	if _, ok := shogi.PickMostUrgent(nil); ok {
		t.Fatal("empty input should report no selection")
	}

	gold := shogi.HangingPiece{Kind: shogi.Gold, Value: 6, KingDistance: 9, Square: "5e"}
	silver := shogi.HangingPiece{Kind: shogi.Silver, Value: 5, KingDistance: 2, Square: "3c"}
	got, ok := shogi.PickMostUrgent([]shogi.HangingPiece{silver, gold})
	if !ok || got.Kind != shogi.Gold {
		t.Fatalf("picked %+v, want the gold despite its distance", got)
	}

	near := shogi.HangingPiece{Kind: shogi.Pawn, Value: 1, KingDistance: 2, Square: "2b"}
	far := shogi.HangingPiece{Kind: shogi.Pawn, Value: 1, KingDistance: 8, Square: "8h"}
	got, ok = shogi.PickMostUrgent([]shogi.HangingPiece{far, near})
	if !ok || got.Square != "2b" {
		t.Fatalf("picked %+v, want the pawn nearer the king", got)
	}
}

// TestHangingPieces_InitialPositionClean verifies that the starting
// position reports nothing for either side.
func TestHangingPieces_InitialPositionClean(t *testing.T) {
	board := shogi.NewInitialPosition().Board()
	if hanging := shogi.FindHangingPieces(&board, shogi.Black); len(hanging) != 0 {
		t.Fatalf("black hanging in initial position: %v", hanging)
	}
	if hanging := shogi.FindHangingPieces(&board, shogi.White); len(hanging) != 0 {
		t.Fatalf("white hanging in initial position: %v", hanging)
	}
}
