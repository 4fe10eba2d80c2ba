// Package instructor runs the analysis loop: game states arrive from
// the bridge, the current position is analyzed by the engine, and a
// commentary report is published.
package instructor

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MagicaScript/Shogi-Instructor/internal/commentary"
	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
	"github.com/MagicaScript/Shogi-Instructor/pkg/usi"
)

// GameState is the shape of the browser-captured payload the bridge
// assembles. Only the fields the instructor needs are decoded.
type GameState struct {
	GameID string `json:"gameId"`
	Player string `json:"player"`
	Steps  []Step `json:"steps"`
}

// Step is one ply of the captured game.
type Step struct {
	Ply  int    `json:"ply"`
	SFEN string `json:"sfen"`
	USI  string `json:"usi"`
}

// Instructor serializes analysis requests: one in flight, latest wins.
type Instructor struct {
	session    *usi.Session
	moveTimeMs int
	log        *zap.Logger

	pending  chan string
	onReport []func(commentary.Report)
}

func New(session *usi.Session, moveTimeMs int, log *zap.Logger) *Instructor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Instructor{
		session:    session,
		moveTimeMs: moveTimeMs,
		log:        log,
		pending:    make(chan string, 1),
	}
}

// OnReport registers a consumer of finished reports. Must be called
// before Run.
func (ins *Instructor) OnReport(fn func(commentary.Report)) {
	ins.onReport = append(ins.onReport, fn)
}

// Submit queues the latest game state for analysis. An older queued
// position that has not started analyzing yet is discarded.
func (ins *Instructor) Submit(raw json.RawMessage) {
	var state GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		ins.log.Warn("undecodable game state", zap.Error(err))
		return
	}
	if len(state.Steps) == 0 {
		return
	}
	sfen := state.Steps[len(state.Steps)-1].SFEN
	if sfen == "" {
		return
	}
	if _, err := shogi.ParseSFEN(sfen); err != nil {
		ins.log.Warn("invalid sfen from bridge", zap.String("sfen", sfen), zap.Error(err))
		return
	}
	select {
	case ins.pending <- sfen:
	default:
		select {
		case <-ins.pending:
		default:
		}
		select {
		case ins.pending <- sfen:
		default:
		}
	}
}

// Run processes queued positions until the context ends.
func (ins *Instructor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sfen := <-ins.pending:
			if err := ins.analyze(ctx, sfen); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				ins.log.Error("analysis failed", zap.String("sfen", sfen), zap.Error(err))
			}
		}
	}
}

func (ins *Instructor) analyze(ctx context.Context, sfen string) error {
	requestID := uuid.NewString()
	pos, err := shogi.ParseSFEN(sfen)
	if err != nil {
		return err
	}
	result, err := ins.session.Analyze(ctx, sfen, ins.moveTimeMs)
	if err != nil {
		return err
	}
	report := commentary.Build(pos, result)
	ins.log.Info("position analyzed",
		zap.String("request_id", requestID),
		zap.String("sfen", report.SFEN),
		zap.String("best_move", report.BestMove),
		zap.String("localized", shogi.ToLocalizedMove(report.FullMove, "")),
		zap.String("score", result.Score.String()),
		zap.Bool("only_move", report.OnlyMove),
		zap.String("hanging", report.HangingHint),
	)
	for _, fn := range ins.onReport {
		fn(report)
	}
	return nil
}
