package engine

import (
	"bytes"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ha1tch/gotex/mem"
)

// Logger drives the `.log` transcript and terminal echo (spec.md §6.2,
// §7's "the log always receives the full message; the terminal
// receives it unless in batch mode"). It wraps a zap.SugaredLogger
// writing through two cores: one always appending to an in-memory
// transcript buffer, one to stdout that batch mode disables.
type Logger struct {
	sugar      *zap.SugaredLogger
	transcript *bytes.Buffer
}

// lineWrapSyncer inserts a newline every mem.MaxPrintLine columns, the
// way spec.md §6.2 bounds every .log transcript line, wrapping whatever
// WriteSyncer actually receives the bytes (the in-memory transcript
// buffer, or stdout).
type lineWrapSyncer struct {
	zapcore.WriteSyncer
	col   int
	width int
}

func (w *lineWrapSyncer) Write(p []byte) (int, error) {
	written := 0
	for _, b := range p {
		if b == '\n' {
			w.col = 0
		} else if w.col >= w.width {
			if _, err := w.WriteSyncer.Write([]byte{'\n'}); err != nil {
				return written, err
			}
			w.col = 0
		}
		n, err := w.WriteSyncer.Write([]byte{b})
		written += n
		if err != nil {
			return written, err
		}
		if b != '\n' {
			w.col++
		}
	}
	return written, nil
}

func newLineWrapSyncer(ws zapcore.WriteSyncer) *lineWrapSyncer {
	return &lineWrapSyncer{WriteSyncer: ws, width: int(mem.MaxPrintLine)}
}

// NewLogger builds a Logger; when batch is true, stdout echo is
// suppressed and only the transcript buffer is written, per spec.md
// §7's batch-mode rule.
func NewLogger(batch bool) *Logger {
	transcript := &bytes.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	enc := zapcore.NewConsoleEncoder(encCfg)

	transcriptCore := zapcore.NewCore(enc, newLineWrapSyncer(zapcore.AddSync(transcript)), zapcore.DebugLevel)
	cores := []zapcore.Core{transcriptCore}
	if !batch {
		stdoutCore := zapcore.NewCore(enc, zapcore.Lock(newLineWrapSyncer(zapcore.AddSync(os.Stdout))), zapcore.DebugLevel)
		cores = append(cores, stdoutCore)
	}
	core := zapcore.NewTee(cores...)
	logger := zap.New(core)
	return &Logger{sugar: logger.Sugar(), transcript: transcript}
}

// Message writes a §7 diagnostic-free informational line (\message,
// \immediate\write16 and the like).
func (l *Logger) Message(format string, args ...any) { l.sugar.Infof(format, args...) }

// Diagnostic writes a "! "-prefixed error line per spec.md §7's
// user-visible-behavior rule, with indented help text following.
func (l *Logger) Diagnostic(message string, help []string) {
	l.sugar.Errorf("! %s", message)
	for _, h := range help {
		l.sugar.Infof("  %s", h)
	}
}

// Warning writes a non-fatal diagnostic (overfull/underfull box, etc).
func (l *Logger) Warning(format string, args ...any) { l.sugar.Warnf(format, args...) }

// Transcript returns everything written to the .log file so far.
func (l *Logger) Transcript() string { return l.transcript.String() }

// Sync flushes both underlying cores.
func (l *Logger) Sync() error { return l.sugar.Sync() }

var _ io.Writer = (*lineWrapSyncer)(nil)
