package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/amaumene/gotpb/internal/config"
	"github.com/amaumene/gotpb/internal/constants"
	"github.com/amaumene/gotpb/pkg/logger"
	"github.com/amaumene/gotpb/pkg/tpb"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger logger.Logger
	client *tpb.Client
	out    io.Writer
	errOut io.Writer
}

func newApp(cfg *config.Config, log logger.Logger, out, errOut io.Writer) *app {
	return &app{
		cfg:    cfg,
		logger: log,
		client: tpb.New(cfg.ClientOptions(log)...),
		out:    out,
		errOut: errOut,
	}
}

// initializeApp loads .env, then the configuration, then builds the logger.
// Logs go to stderr so that command output stays parseable.
func initializeApp() (*app, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logOut, err := logOutput(cfg.LogFile, os.Stderr)
	if err != nil {
		return nil, err
	}
	log := logger.NewWithLevel(cfg.LogLevel, logOut, logOut)
	return newApp(cfg, log, os.Stdout, os.Stderr), nil
}

// logOutput adds a rotated log file next to console when file is set.
func logOutput(file string, console io.Writer) (io.Writer, error) {
	if file == "" {
		return console, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(console, rotated), nil
}
