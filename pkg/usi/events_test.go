package usi

import "testing"

// TestParseLine verifies classification of the protocol lines the
// session reacts to.
func TestParseLine(t *testing.T) {
	cases := []struct {
		line string
		want EventType
	}{
		{"usiok", EventUSIOK},
		{"readyok", EventReadyOK},
		{"id name Suisho5", EventID},
		{"id author someone", EventID},
		{"info depth 10 score cp 52 pv 7g7f 3c3d", EventInfo},
		{"bestmove 7g7f", EventBestMove},
		{"bestmove 7g7f ponder 3c3d", EventBestMove},
		{"option name USI_Hash type spin", EventUnknown},
	}
	for _, tc := range cases {
		event, err := ParseLine(tc.line)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.line, err)
		}
		if event.Type != tc.want {
			t.Fatalf("%q classified as %v, want %v", tc.line, event.Type, tc.want)
		}
	}
}

// TestParseLine_BestMoveFields verifies move and ponder extraction.
func TestParseLine_BestMoveFields(t *testing.T) {
	event, err := ParseLine("bestmove 2b3c+ ponder P*5e")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Move != "2b3c+" || event.Ponder != "P*5e" {
		t.Fatalf("bestmove fields = %q/%q", event.Move, event.Ponder)
	}

	event, err = ParseLine("bestmove resign")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Move != "resign" || event.Ponder != "" {
		t.Fatalf("resign fields = %q/%q", event.Move, event.Ponder)
	}
}

// TestParseLine_IDFields verifies key/value splitting for id lines.
func TestParseLine_IDFields(t *testing.T) {
	event, err := ParseLine("id name YaneuraOu NNUE 7.00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Key != "name" || event.Value != "YaneuraOu NNUE 7.00" {
		t.Fatalf("id fields = %q/%q", event.Key, event.Value)
	}
}

// TestParseLine_Errors verifies rejection of malformed lines.
func TestParseLine_Errors(t *testing.T) {
	for _, line := range []string{"", "   ", "id name", "bestmove"} {
		if _, err := ParseLine(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
}

// TestParseInfoScore verifies cp and mate extraction.
func TestParseInfoScore(t *testing.T) {
	score, ok := parseInfoScore("info depth 12 seldepth 20 score cp -134 nodes 99")
	if !ok || score.Kind != "cp" || score.Value != -134 {
		t.Fatalf("score = %+v, ok=%v", score, ok)
	}
	score, ok = parseInfoScore("info score mate 5 pv G*5b")
	if !ok || score.Kind != "mate" || score.Value != 5 {
		t.Fatalf("score = %+v, ok=%v", score, ok)
	}
	if _, ok := parseInfoScore("info depth 3 nodes 1000"); ok {
		t.Fatal("score reported for a line without one")
	}
	if _, ok := parseInfoScore("info score lowerbound 5"); ok {
		t.Fatal("unknown score kind accepted")
	}
}

// TestParseInfoPV verifies principal-variation extraction.
func TestParseInfoPV(t *testing.T) {
	pv := parseInfoPV("info depth 8 score cp 31 pv 7g7f 3c3d 2g2f")
	if len(pv) != 3 || pv[0] != "7g7f" || pv[2] != "2g2f" {
		t.Fatalf("pv = %v", pv)
	}
	if pv := parseInfoPV("info depth 8 score cp 31"); pv != nil {
		t.Fatalf("pv = %v, want nil", pv)
	}
}

// TestScoreStringAndFlip verifies log rendering and perspective flip.
func TestScoreStringAndFlip(t *testing.T) {
	cp := Score{Kind: "cp", Value: 52}
	if cp.String() != "cp 52" {
		t.Fatalf("String() = %q", cp.String())
	}
	if flipped := cp.Flip(); flipped.Value != -52 || flipped.Kind != "cp" {
		t.Fatalf("Flip() = %+v", flipped)
	}
	mate := Score{Kind: "mate", Value: -3}
	if mate.String() != "mate -3" {
		t.Fatalf("String() = %q", mate.String())
	}
	if (Score{}).String() != "unknown" {
		t.Fatal("zero score should render unknown")
	}
}
