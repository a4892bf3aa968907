package cmd

import (
	"log"
	"os"

	"github.com/buttonpad/buttonpad/internal/config"
	"github.com/buttonpad/buttonpad/pkg/logger"
)

// newLogger builds the console logger for cfg, fanned out to the Windows
// Event Log when enabled.
func newLogger(cfg *config.Config) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	var l logger.Logger = logger.NewStandardLogger(log.New(os.Stderr, "", log.LstdFlags))
	l = withEventLog(l, cfg.Log.EventLog)
	return logger.NewLeveledLogger(l, level), nil
}
