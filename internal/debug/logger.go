package debug

import (
	"io"
	"log"
	"os"
)

// Logger writes developer diagnostics to debug.log when enabled. A nil
// Logger is silent.
type Logger struct {
	enabled bool
	out     *log.Logger
}

func NewLogger(enabled bool) *Logger {
	if !enabled {
		return &Logger{}
	}
	var w io.Writer = os.Stderr
	logFile, err := os.OpenFile("debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		w = logFile
	}
	l := NewWriterLogger(w)
	l.Printf("=== DEBUG MODE ENABLED ===")
	return l
}

// NewWriterLogger logs everything to w.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{enabled: true, out: log.New(w, "", log.LstdFlags)}
}

func (d *Logger) Enabled() bool {
	return d != nil && d.enabled
}

func (d *Logger) Printf(format string, args ...interface{}) {
	if d.Enabled() {
		d.out.Printf(format, args...)
	}
}

func (d *Logger) Println(args ...interface{}) {
	if d.Enabled() {
		d.out.Println(args...)
	}
}
