package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/MagicaScript/Shogi-Instructor/internal/bridge"
	"github.com/MagicaScript/Shogi-Instructor/internal/config"
	"github.com/MagicaScript/Shogi-Instructor/internal/instructor"
	"github.com/MagicaScript/Shogi-Instructor/pkg/usi"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (default: search upward)")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fatal(err)
	}
	defer log.Sync()

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := usi.StartSession(ctx, enginePath)
	if err != nil {
		fatal(err)
	}
	defer session.Close()
	if err := session.Handshake(ctx, cfg.Options); err != nil {
		fatal(err)
	}
	log.Info("engine ready", zap.String("path", enginePath))

	store := bridge.NewStore()
	server := bridge.NewServer(store, log)

	ins := instructor.New(session, cfg.MoveTimeMs, log)
	store.OnState(ins.Submit)

	app := server.App()
	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()
	go func() {
		if err := ins.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("instructor loop stopped", zap.Error(err))
		}
	}()

	log.Info("bridge listening", zap.String("addr", cfg.Listen))
	if err := app.Listen(cfg.Listen); err != nil {
		fatal(err)
	}
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
