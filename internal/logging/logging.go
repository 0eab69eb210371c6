// Package logging installs the go-logging backends shared by the server and the terminal client.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

var stdoutLogFormat = logging.MustStringFormatter(
	`%{color:reset}%{color}%{time:15:04:05.000} [%{module}] [%{shortfunc}] [%{level}] %{message}`,
)

var fileLogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} [%{module}] [%{shortfunc}] [%{level}] %{message}`,
)

// SetupStdout sends every module's log lines to stdout at the given level.
func SetupStdout(level string) {
	backend := logging.NewLogBackend(os.Stdout, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, stdoutLogFormat))
	leveled.SetLevel(parseLevel(level), "")
	logging.SetBackend(leveled)
}

// SetupFile logs to a rotating file under dir. Used when stdout belongs to the terminal UI.
func SetupFile(dir, level string) io.Closer {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "logs", "chat.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
	backend := logging.NewLogBackend(w, "", 0)
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, fileLogFormat))
	leveled.SetLevel(parseLevel(level), "")
	logging.SetBackend(leveled)
	return w
}

func parseLevel(level string) logging.Level {
	l, err := logging.LogLevel(level)
	if err != nil {
		return logging.INFO
	}
	return l
}
