package usi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of one bounded analysis: the engine's best
// move, optional ponder move, the last reported score (always from
// Black's perspective), and the principal variation.
type Result struct {
	BestMove string
	Ponder   string
	Score    Score
	PV       []string
}

// Session manages a USI engine session and its event stream. At most
// one analysis is in flight at a time; Analyze callers are expected to
// serialize (the instructor loop does).
type Session struct {
	engine *Engine
	events chan Event
	errCh  chan error

	searching bool
}

// StartSession launches a USI engine and starts a reader goroutine.
func StartSession(ctx context.Context, path string, args ...string) (*Session, error) {
	engine, err := StartEngine(ctx, path, args...)
	if err != nil {
		return nil, err
	}
	reader := engine.Reader()
	events := make(chan Event, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			event, err := reader.Next()
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			events <- event
		}
	}()
	return &Session{engine: engine, events: events, errCh: errCh}, nil
}

// Close terminates the engine process.
func (s *Session) Close() error {
	if s == nil || s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

// Stderr returns the engine's stderr reader for diagnostics.
func (s *Session) Stderr() io.Reader {
	if s == nil || s.engine == nil {
		return nil
	}
	return s.engine.Stderr()
}

// Handshake runs the USI handshake and applies engine options.
func (s *Session) Handshake(ctx context.Context, options map[string]string) error {
	if err := s.engine.Send("usi"); err != nil {
		return err
	}
	if _, err := s.waitForEvent(ctx, EventUSIOK); err != nil {
		return err
	}
	for name, value := range options {
		if err := s.engine.Send(fmt.Sprintf("setoption name %s value %s", name, value)); err != nil {
			return err
		}
	}
	if err := s.engine.Send("isready"); err != nil {
		return err
	}
	_, err := s.waitForEvent(ctx, EventReadyOK)
	return err
}

// Stop cancels an in-flight search and drains its bestmove so the next
// Analyze starts from a clean stream.
func (s *Session) Stop(ctx context.Context) error {
	if !s.searching {
		return nil
	}
	if err := s.engine.Send("stop"); err != nil {
		return err
	}
	_, err := s.waitForEvent(ctx, EventBestMove)
	s.searching = false
	return err
}

// Analyze runs a bounded search for the SFEN position. The returned
// score is from Black's perspective: scores reported while White is to
// move are flipped.
func (s *Session) Analyze(ctx context.Context, sfen string, moveTimeMs int) (Result, error) {
	if s.searching {
		if err := s.Stop(ctx); err != nil {
			return Result{}, err
		}
	}
	if err := s.engine.Send("position sfen " + sfen); err != nil {
		return Result{}, err
	}
	if moveTimeMs <= 0 {
		moveTimeMs = 1
	}
	if err := s.engine.Send(fmt.Sprintf("go movetime %d", moveTimeMs)); err != nil {
		return Result{}, err
	}
	s.searching = true

	turn := "b"
	if fields := strings.Fields(sfen); len(fields) >= 2 {
		turn = fields[1]
	}

	var result Result
	haveScore := false
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Result{}, err
		}
		switch event.Type {
		case EventInfo:
			if score, ok := parseInfoScore(event.Raw); ok {
				result.Score = score
				haveScore = true
			}
			if pv := parseInfoPV(event.Raw); pv != nil {
				result.PV = pv
			}
		case EventBestMove:
			s.searching = false
			result.BestMove = event.Move
			result.Ponder = event.Ponder
			if !haveScore {
				return result, errors.New("no score in engine output")
			}
			if turn == "w" {
				result.Score = result.Score.Flip()
			}
			return result, nil
		}
	}
}

func (s *Session) waitForEvent(ctx context.Context, want EventType) (Event, error) {
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Event{}, err
		}
		if event.Type == want {
			return event, nil
		}
	}
}

func (s *Session) nextEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case err := <-s.errCh:
		if err == nil {
			return Event{}, errors.New("engine stdout closed")
		}
		return Event{}, err
	case event, ok := <-s.events:
		if !ok {
			return Event{}, errors.New("engine stdout closed")
		}
		return event, nil
	}
}
