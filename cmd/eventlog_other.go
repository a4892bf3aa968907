//go:build !windows

package cmd

import "github.com/buttonpad/buttonpad/pkg/logger"

func withEventLog(l logger.Logger, enabled bool) logger.Logger {
	if enabled {
		l.Warning("the event log is only available on windows, logging to console only")
	}
	return l
}
