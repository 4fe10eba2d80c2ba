package shogi_test

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
)

var sampleKIF = []string{
	"手合割：平手",
	"先手：Alice(1820)",
	"後手：Bob",
	"手数----指手---------消費時間--",
	"   1 ７六歩(77)   ( 0:01/00:00:01)",
	"   2 ３四歩(33)   ( 0:01/00:00:01)",
	"   3 ２二角成(88) ( 0:02/00:00:03)",
	"   4 同　銀(31)   ( 0:01/00:00:02)",
	"   5 ４五角打     ( 0:03/00:00:06)",
	"   6 投了",
}

// TestGameFromLines_MovesAndResult verifies move conversion to USI and
// resignation attribution.
func TestGameFromLines_MovesAndResult(t *testing.T) {
	game, err := shogi.GameFromLines(sampleKIF)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantMoves := []string{"7g7f", "3c3d", "8h2b+", "3a2b", "B*4e"}
	got := game.Moves()
	if len(got) != len(wantMoves) {
		t.Fatalf("moves = %v, want %v", got, wantMoves)
	}
	for i := range wantMoves {
		if got[i] != wantMoves[i] {
			t.Fatalf("move %d = %q, want %q", i+1, got[i], wantMoves[i])
		}
	}
	result, reason := game.Result()
	if result != "sente_win" || reason != "投了" {
		t.Fatalf("result = %q/%q, want sente_win by resignation", result, reason)
	}
	if game.IsFoulEnd() {
		t.Fatal("resignation is not a foul end")
	}
}

// TestGameFromLines_PositionReplay verifies the SFEN after replaying the
// parsed moves.
func TestGameFromLines_PositionReplay(t *testing.T) {
	game, err := shogi.GameFromLines(sampleKIF)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := game.InitialPosition().ToSFEN(); got != shogi.InitialSFEN {
		t.Fatalf("initial position = %q", got)
	}
	pos, err := game.PositionAt(5)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	want := "lnsgkg1nl/1r5s1/pppppp1pp/6p2/5B3/2P6/PP1PPPPPP/7R1/LNSGKGSNL w b 6"
	if got := pos.ToSFEN(); got != want {
		t.Fatalf("position after 5 moves = %q, want %q", got, want)
	}
	if _, err := game.PositionAt(6); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

// TestPlayersFromLines verifies name and optional rating extraction.
func TestPlayersFromLines(t *testing.T) {
	players := shogi.PlayersFromLines(sampleKIF)
	if players.SenteName != "Alice" || players.SenteRating != 1820 {
		t.Fatalf("sente = %q(%d)", players.SenteName, players.SenteRating)
	}
	if players.GoteName != "Bob" || players.GoteRating != 0 {
		t.Fatalf("gote = %q(%d)", players.GoteName, players.GoteRating)
	}
}

// TestGameFromLines_FoulEndDropsLastMove verifies that a foul
// termination removes the final (illegal) move from the replay.
func TestGameFromLines_FoulEndDropsLastMove(t *testing.T) {
	lines := []string{
		"手合割：平手",
		"   1 ７六歩(77)   ( 0:01/00:00:01)",
		"   2 ３四歩(33)   ( 0:01/00:00:01)",
		"   3 反則負け",
	}
	game, err := shogi.GameFromLines(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !game.IsFoulEnd() {
		t.Fatal("expected foul end")
	}
	if game.MoveCount() != 1 {
		t.Fatalf("move count = %d, want 1 after dropping the foul move", game.MoveCount())
	}
	result, reason := game.Result()
	if result != "gote_win" || reason != "反則負け" {
		t.Fatalf("result = %q/%q", result, reason)
	}
}

// TestGameFromLines_DrawAndAbort verifies the remaining terminal
// classifications.
func TestGameFromLines_DrawAndAbort(t *testing.T) {
	cases := []struct {
		terminal   string
		wantResult string
	}{
		{"千日手", "draw"},
		{"持将棋", "draw"},
		{"中断", "abort"},
	}
	for _, tc := range cases {
		lines := []string{
			"手合割：平手",
			"   1 ７六歩(77)   ( 0:01/00:00:01)",
			"   2 " + tc.terminal,
		}
		game, err := shogi.GameFromLines(lines)
		if err != nil {
			t.Fatalf("parse %s: %v", tc.terminal, err)
		}
		result, _ := game.Result()
		if result != tc.wantResult {
			t.Fatalf("%s classified as %q, want %q", tc.terminal, result, tc.wantResult)
		}
	}
}

// TestGameFromLines_BoardDiagram verifies a handicap-style explicit
// board with hands and side to move.
func TestGameFromLines_BoardDiagram(t *testing.T) {
	lines := []string{
		"後手の持駒：なし",
		"  ９ ８ ７ ６ ５ ４ ３ ２ １",
		"+---------------------------+",
		"|・ ・ ・ ・ ・ ・ ・ ・v玉|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ ・ ・ ・ ・ ・|",
		"|・ ・ ・ ・ 玉 ・ ・ ・ ・|",
		"+---------------------------+",
		"先手の持駒：金 歩二",
		"手番：後手",
	}
	game, err := shogi.GameFromLines(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "8k/9/9/9/9/9/9/9/4K4 w G2P 1"
	if got := game.InitialPosition().ToSFEN(); got != want {
		t.Fatalf("diagram position = %q, want %q", got, want)
	}
}

// TestGameFromLines_NoPromoteSuffix verifies 不成 yields a move without
// the promotion marker.
func TestGameFromLines_NoPromoteSuffix(t *testing.T) {
	lines := []string{
		"手合割：平手",
		"   1 ７六歩(77)   ( 0:01/00:00:01)",
		"   2 ３四歩(33)   ( 0:01/00:00:01)",
		"   3 ２二角不成(88) ( 0:02/00:00:03)",
	}
	game, err := shogi.GameFromLines(lines)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	moves := game.Moves()
	if len(moves) != 3 || moves[2] != "8h2b" {
		t.Fatalf("moves = %v, want 8h2b without promotion", moves)
	}
}

// TestLoadGame_ShiftJIS verifies transparent Shift-JIS transcoding.
func TestLoadGame_ShiftJIS(t *testing.T) {
	var text string
	for _, line := range sampleKIF {
		text += line + "\r\n"
	}
	encoded, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte(text))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "game.kif")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	game, err := shogi.LoadGame(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if game.MoveCount() != 5 {
		t.Fatalf("move count = %d, want 5", game.MoveCount())
	}
	players, err := shogi.LoadPlayers(path)
	if err != nil {
		t.Fatalf("players: %v", err)
	}
	if players.SenteName != "Alice" {
		t.Fatalf("sente = %q", players.SenteName)
	}
}

// TestCollectKIFFiles verifies recursive discovery sorted by path.
func TestCollectKIFFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2024")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{
		filepath.Join(root, "b.kif"),
		filepath.Join(root, "a.KIF"),
		filepath.Join(root, "notes.txt"),
		filepath.Join(sub, "c.kif"),
	} {
		if err := os.WriteFile(name, []byte("手合割：平手\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files, err := shogi.CollectKIFFiles(root)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("found %d files, want 3: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] > files[i] {
			t.Fatalf("files not sorted: %v", files)
		}
	}
}
