// Package config loads the application's config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Engine     string            `json:"engine"`
	MoveTimeMs int               `json:"move_time_ms"`
	Listen     string            `json:"listen"`
	Options    map[string]string `json:"engine_options"`
}

// FindConfigPath walks up from the working directory until it finds a
// config.json, returning the path and its directory.
func FindConfigPath() (string, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	dir := cwd
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", cwd)
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Listen == "" {
		cfg.Listen = "0.0.0.0:3080"
	}
	if cfg.MoveTimeMs <= 0 {
		cfg.MoveTimeMs = 1000
	}
	return cfg, nil
}

// ResolveEnginePath makes a relative engine path absolute against the
// config file's directory.
func ResolveEnginePath(engine, root string) (string, error) {
	if engine == "" {
		return "", fmt.Errorf("engine path is required")
	}
	if filepath.IsAbs(engine) {
		return engine, nil
	}
	return filepath.Join(root, engine), nil
}
