// annotate walks a directory of KIF files, evaluates every position
// with a USI engine, counts hanging pieces per ply, and writes the
// per-game records to a parquet file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MagicaScript/Shogi-Instructor/internal/config"
	"github.com/MagicaScript/Shogi-Instructor/internal/record"
	"github.com/MagicaScript/Shogi-Instructor/pkg/shogi"
	"github.com/MagicaScript/Shogi-Instructor/pkg/usi"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upward)")
	inputDir := flag.String("input", "kif", "input directory for KIF files")
	outputPath := flag.String("output", "output.parquet", "output parquet file")
	workerCount := flag.Int("workers", 1, "number of parallel engine sessions")
	perEvalTimeout := flag.Duration("timeout", 10*time.Second, "timeout per evaluation")
	flag.Parse()

	cfgPath, root, err := resolveConfigPath(*configPath)
	if err != nil {
		fatal(err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(err)
	}
	enginePath, err := config.ResolveEnginePath(cfg.Engine, root)
	if err != nil {
		fatal(err)
	}
	if _, err := os.Stat(enginePath); err != nil {
		fatal(fmt.Errorf("engine binary not found at %s: %w", enginePath, err))
	}

	files, err := shogi.CollectKIFFiles(*inputDir)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}

	workers := *workerCount
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	jobs := make(chan string)
	results := make(chan record.GameRecord, workers)
	writeErr := make(chan error, 1)
	var writeWg sync.WaitGroup
	writeWg.Add(1)
	go func() {
		defer writeWg.Done()
		writeErr <- record.Write(*outputPath, results, int64(workers))
	}()

	sessions := make([]*usi.Session, 0, workers)
	for i := 0; i < workers; i++ {
		session, err := usi.StartSession(context.Background(), enginePath)
		if err != nil {
			fatal(err)
		}
		if err := session.Handshake(context.Background(), cfg.Options); err != nil {
			session.Close()
			fatal(err)
		}
		sessions = append(sessions, session)
	}
	for _, session := range sessions {
		defer session.Close()
	}

	var wg sync.WaitGroup
	for _, session := range sessions {
		session := session
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache := make(map[shogi.Packed256]usi.Score)
			for path := range jobs {
				rec, err := annotateGame(path, session, cfg.MoveTimeMs, *perEvalTimeout, cache)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to process %s: %v\n", path, err)
					continue
				}
				results <- rec
			}
		}()
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()
	close(results)
	writeWg.Wait()
	if err := <-writeErr; err != nil {
		fatal(err)
	}
}

// annotateGame replays one KIF game, evaluating each position and
// counting the mover's hanging pieces. Evaluations for positions seen
// earlier in this session are served from the packed-position cache.
func annotateGame(path string, session *usi.Session, moveTimeMs int, timeout time.Duration, cache map[shogi.Packed256]usi.Score) (record.GameRecord, error) {
	game, err := shogi.LoadGame(path)
	if err != nil {
		return record.GameRecord{}, err
	}
	moves := game.Moves()
	if len(moves) == 0 {
		return record.GameRecord{}, errors.New("no moves found")
	}

	pos := game.InitialPosition()
	evals := make([]record.MoveEval, 0, len(moves))
	for i, move := range moves {
		if err := pos.ApplyMove(move); err != nil {
			return record.GameRecord{}, fmt.Errorf("move %d: %w", i+1, err)
		}
		sfen := pos.ToSFEN()

		board := pos.Board()
		hangingCount := len(shogi.FindHangingPieces(&board, pos.Turn()))

		score, best, err := evaluate(session, pos, sfen, moveTimeMs, timeout, cache)
		if err != nil {
			return record.GameRecord{}, fmt.Errorf("move %d: %w", i+1, err)
		}
		evals = append(evals, record.MoveEval{
			Ply:        int32(i + 1),
			ScoreType:  score.Kind,
			ScoreValue: int32(score.Value),
			BestMove:   best,
			Hanging:    int32(hangingCount),
		})
	}

	players, _ := shogi.LoadPlayers(path)
	result, reason := game.Result()
	return record.GameRecord{
		GameID:      filepath.Base(path),
		SenteName:   players.SenteName,
		SenteRating: players.SenteRating,
		GoteName:    players.GoteName,
		GoteRating:  players.GoteRating,
		Result:      result,
		WinReason:   reason,
		MoveCount:   int32(len(moves)),
		MoveEvals:   evals,
	}, nil
}

func evaluate(session *usi.Session, pos *shogi.Position, sfen string, moveTimeMs int, timeout time.Duration, cache map[shogi.Packed256]usi.Score) (usi.Score, string, error) {
	key, packErr := pos.Pack()
	if packErr == nil {
		if cached, ok := cache[key]; ok {
			return cached, "", nil
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	result, err := session.Analyze(ctx, sfen, moveTimeMs)
	if err != nil {
		return usi.Score{}, "", err
	}
	// Cache only early positions to bound memory; openings repeat,
	// middlegames rarely do.
	if packErr == nil && pos.MoveNumber() <= 30 {
		cache[key] = result.Score
	}
	return result.Score, result.BestMove, nil
}

func resolveConfigPath(arg string) (string, string, error) {
	if arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", "", err
		}
		return abs, filepath.Dir(abs), nil
	}
	return config.FindConfigPath()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
