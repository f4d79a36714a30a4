package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// Logger is the logging surface used across the client.
// args are alternating key/value pairs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

type LogBuild struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *LogBuild {
	return &LogBuild{level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level accepts zerolog level names ("debug", "info", "warn", "error").
func (build *LogBuild) Level(level string) *LogBuild {
	if l, err := zerolog.ParseLevel(level); err == nil && level != "" {
		build.level = l
	}
	return build
}

// Console switches to human readable output.
func (build *LogBuild) Console(on bool) *LogBuild {
	build.console = on
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	var w io.Writer = os.Stderr
	if build.writer != nil {
		w = build.writer
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		w = zerolog.SyncWriter(logData.LogFile)
	}
	if build.console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	logData.Logger = zerolog.New(w).Level(build.level).With().Timestamp().Logger()
	return
}

// Close releases the log file, if one was opened.
func (logData *LogData) Close() error {
	if logData.LogFile == nil {
		return nil
	}
	return logData.LogFile.Close()
}

// Handler returns the zerolog logger wrapped as a Logger.
func (logData *LogData) Handler() Logger {
	return FromZerolog(logData.Logger)
}

type zerologHandler struct {
	logger zerolog.Logger
}

// FromZerolog adapts a zerolog.Logger to Logger.
func FromZerolog(l zerolog.Logger) Logger {
	return &zerologHandler{logger: l}
}

// Nop discards everything.
func Nop() Logger {
	return &zerologHandler{logger: zerolog.Nop()}
}

func (h *zerologHandler) Error(msg string, args ...any) {
	h.write(h.logger.Error(), msg, args)
}

func (h *zerologHandler) Warn(msg string, args ...any) {
	h.write(h.logger.Warn(), msg, args)
}

func (h *zerologHandler) Info(msg string, args ...any) {
	h.write(h.logger.Info(), msg, args)
}

func (h *zerologHandler) Debug(msg string, args ...any) {
	h.write(h.logger.Debug(), msg, args)
}

func (h *zerologHandler) write(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			e = e.Interface("!BADKEY", args[i])
			break
		}
		if err, ok := args[i+1].(error); ok {
			e = e.AnErr(key, err)
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
