package tools

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Record anything we log to stdout and the log file, as JSON
func SetupLogging(path string, level string) (*os.File, error) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(LogLevel(level))
	if path == "" {
		logrus.SetOutput(os.Stdout)
		return nil, nil
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	logrus.SetOutput(io.MultiWriter(logFile, os.Stdout))
	return logFile, nil
}

func LogLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
