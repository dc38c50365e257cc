package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/config"
	"github.com/robalobadob/codebreaker/internal/game"
	"github.com/robalobadob/codebreaker/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/codebreaker/config.toml)")
	seed := flag.Int64("seed", 0, "fixed secret seed (0 = random)")
	logPath := flag.String("log", "", "write debug log to this file")
	flag.Parse()

	_ = godotenv.Load()

	path := *configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		// If using default path and file doesn't exist, use defaults
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg, err = config.Load("")
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// the alt screen owns stdout; logs go to a file or nowhere
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var gen game.Generator
	if *seed != 0 {
		gen = game.NewGenerator(*seed)
	}

	tui.InitStyles(cfg.Theme)
	m, err := tui.New(cfg.Game, gen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
