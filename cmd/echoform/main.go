package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/echoform/echoform/pkg/config"
	"github.com/echoform/echoform/pkg/engine"
	"github.com/echoform/echoform/pkg/memory"
	"github.com/echoform/echoform/pkg/providers"
)

var (
	version   = "dev"
	gitCommit string
)

const (
	appName    = "echoform"
	appTagline = "A self-reflecting conversational agent with evolving cognitive traits"
)

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".echoform", "config.json")
}

// runtime bundles everything a command needs to run turns.
type runtime struct {
	cfg    *config.Config
	store  *memory.SQLiteStore
	engine *engine.Engine
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.StateDirPath(), 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	store, err := memory.NewSQLiteStore(cfg.DBPath(), cfg.EvalWeights())
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	return &runtime{
		cfg:    cfg,
		store:  store,
		engine: engine.New(store, providers.NewGenerator(cfg), cfg),
	}, nil
}

func (r *runtime) Close() {
	_ = r.store.Close()
}
