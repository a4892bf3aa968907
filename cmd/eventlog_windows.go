//go:build windows

package cmd

import "github.com/buttonpad/buttonpad/pkg/logger"

// eventSource must be registered with eventlog.InstallAsEventCreate.
const eventSource = "buttonpad"

func withEventLog(l logger.Logger, enabled bool) logger.Logger {
	if !enabled {
		return l
	}
	el, err := logger.NewEventLogger(eventSource)
	if err != nil {
		// Event Log unavailable (source not registered, permissions)
		l.Warning("logging to console only: %v", err)
		return l
	}
	return logger.NewMultiLogger(l, el)
}
