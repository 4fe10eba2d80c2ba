package shogi_test

import (
	"testing"

	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
)

// TestPromote_Idempotent verifies that promoting twice is the same as
// promoting once and that nothing clears the flag.
func TestPromote_Idempotent(t *testing.T) {
	piece := shogi.Piece{Kind: shogi.Pawn, Color: shogi.Black}
	piece.Promote()
	if !piece.Promoted {
		t.Fatal("pawn should be promoted after Promote")
	}
	piece.Promote()
	if !piece.Promoted {
		t.Fatal("second Promote must not clear the promotion flag")
	}
}

// TestCanPromote_KingAndGold verifies the two kinds without a promoted form.
func TestCanPromote_KingAndGold(t *testing.T) {
	if shogi.CanPromote(shogi.King) {
		t.Fatal("king must not promote")
	}
	if shogi.CanPromote(shogi.Gold) {
		t.Fatal("gold must not promote")
	}
	for _, kind := range []shogi.Kind{shogi.Rook, shogi.Bishop, shogi.Silver, shogi.Knight, shogi.Lance, shogi.Pawn} {
		if !shogi.CanPromote(kind) {
			t.Fatalf("%c should promote", kind.Letter())
		}
	}
}

// TestPieceLetter verifies SFEN token rendering for both colors and
// promotion states.
func TestPieceLetter(t *testing.T) {
	cases := []struct {
		piece shogi.Piece
		want  string
	}{
		{shogi.Piece{Kind: shogi.Pawn, Color: shogi.Black}, "P"},
		{shogi.Piece{Kind: shogi.Pawn, Color: shogi.White}, "p"},
		{shogi.Piece{Kind: shogi.Rook, Color: shogi.Black, Promoted: true}, "+R"},
		{shogi.Piece{Kind: shogi.Silver, Color: shogi.White, Promoted: true}, "+s"},
		{shogi.Piece{Kind: shogi.King, Color: shogi.White}, "k"},
	}
	for _, tc := range cases {
		if got := tc.piece.Letter(); got != tc.want {
			t.Fatalf("Letter() = %q, want %q", got, tc.want)
		}
	}
}

// TestDisplayName verifies Japanese piece names, promoted included.
func TestDisplayName(t *testing.T) {
	cases := []struct {
		kind     shogi.Kind
		promoted bool
		want     string
	}{
		{shogi.King, false, "玉"},
		{shogi.Rook, false, "飛"},
		{shogi.Rook, true, "龍"},
		{shogi.Bishop, true, "馬"},
		{shogi.Pawn, true, "と"},
		{shogi.Silver, true, "成銀"},
		{shogi.Gold, true, "金"},
	}
	for _, tc := range cases {
		if got := shogi.DisplayName(tc.kind, tc.promoted); got != tc.want {
			t.Fatalf("DisplayName(%c, %v) = %q, want %q", tc.kind.Letter(), tc.promoted, got, tc.want)
		}
	}
}

// TestValue verifies the material values used for hanging-piece ranking.
func TestValue(t *testing.T) {
	cases := []struct {
		kind     shogi.Kind
		promoted bool
		want     int
	}{
		{shogi.Pawn, false, 1},
		{shogi.Lance, false, 3},
		{shogi.Knight, false, 4},
		{shogi.Silver, false, 5},
		{shogi.Gold, false, 6},
		{shogi.Bishop, false, 8},
		{shogi.Rook, false, 10},
		{shogi.King, false, 0},
		{shogi.Rook, true, 12},
		{shogi.Bishop, true, 10},
		{shogi.Pawn, true, 7},
		{shogi.Silver, true, 6},
	}
	for _, tc := range cases {
		if got := shogi.Value(tc.kind, tc.promoted); got != tc.want {
			t.Fatalf("Value(%c, %v) = %d, want %d", tc.kind.Letter(), tc.promoted, got, tc.want)
		}
	}
}

// TestMovementTemplate_WhiteIsRotatedBlack verifies that the White
// template of every kind is the 180-degree rotation of the Black one.
func TestMovementTemplate_WhiteIsRotatedBlack(t *testing.T) {
	kinds := []shogi.Kind{
		shogi.King, shogi.Rook, shogi.Bishop, shogi.Gold,
		shogi.Silver, shogi.Knight, shogi.Lance, shogi.Pawn,
	}
	for _, kind := range kinds {
		for _, promoted := range []bool{false, true} {
			black := shogi.MovementTemplate(kind, promoted, shogi.Black)
			white := shogi.MovementTemplate(kind, promoted, shogi.White)
			for r := 0; r < 5; r++ {
				for c := 0; c < 5; c++ {
					if white[r][c] != black[4-r][4-c] {
						t.Fatalf("%c promoted=%v: white[%d][%d]=%d, want black[%d][%d]=%d",
							kind.Letter(), promoted, r, c, white[r][c], 4-r, 4-c, black[4-r][4-c])
					}
				}
			}
		}
	}
}

// TestMovementTemplate_PromotedGoldMovers verifies that promoted silver,
// knight, lance, and pawn all share the gold pattern.
func TestMovementTemplate_PromotedGoldMovers(t *testing.T) {
	gold := shogi.MovementTemplate(shogi.Gold, false, shogi.Black)
	for _, kind := range []shogi.Kind{shogi.Silver, shogi.Knight, shogi.Lance, shogi.Pawn} {
		if got := shogi.MovementTemplate(kind, true, shogi.Black); got != gold {
			t.Fatalf("promoted %c should move as gold", kind.Letter())
		}
	}
}

// TestKindFromLetter verifies the round trip with Letter.
func TestKindFromLetter(t *testing.T) {
	for _, kind := range []shogi.Kind{
		shogi.King, shogi.Rook, shogi.Bishop, shogi.Gold,
		shogi.Silver, shogi.Knight, shogi.Lance, shogi.Pawn,
	} {
		got, ok := shogi.KindFromLetter(kind.Letter())
		if !ok || got != kind {
			t.Fatalf("KindFromLetter(%c) = %v, %v", kind.Letter(), got, ok)
		}
	}
	if _, ok := shogi.KindFromLetter('X'); ok {
		t.Fatal("X is not a piece letter")
	}
}
