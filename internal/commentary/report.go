// Package commentary assembles the per-position report handed to the
// external commentary consumer. Prompt construction happens outside
// this repository; the Report struct is the boundary.
package commentary

import (
	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
	"github.com/MagicaScript/Shogi-Instructor/pkg/usi"
)

// Report carries one analyzed position and its derived commentary
// inputs.
type Report struct {
	SFEN        string   `json:"sfen"`
	BestMove    string   `json:"best_move"`
	FullMove    string   `json:"full_move"`
	PV          []string `json:"pv,omitempty"`
	ScoreType   string   `json:"score_type"`
	ScoreValue  int      `json:"score_value"`
	OnlyMove    bool     `json:"only_move"`
	HangingHint string   `json:"hanging_hint,omitempty"`
}

// Build derives a Report from a position and its engine analysis. The
// hanging hint names the most urgent hanging piece of the side to move
// (the side about to lose material); OnlyMove is set when that side
// has exactly one legal move or drop.
func Build(pos *shogi.Position, analysis usi.Result) Report {
	report := Report{
		SFEN:       pos.ToSFEN(),
		BestMove:   analysis.BestMove,
		PV:         analysis.PV,
		ScoreType:  analysis.Score.Kind,
		ScoreValue: analysis.Score.Value,
	}
	report.FullMove = shogi.ToFullMove(analysis.BestMove, report.SFEN)
	report.OnlyMove = shogi.CountLegalActions(pos) == 1

	board := pos.Board()
	hanging := shogi.FindHangingPieces(&board, pos.Turn())
	if urgent, ok := shogi.PickMostUrgent(hanging); ok {
		report.HangingHint = urgent.Label()
	}
	return report
}
