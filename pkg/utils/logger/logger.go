// The package logger defines a simple logger with INFO, WARN and ERROR prints.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

type Aggregate struct {
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger
}

// New() returns an initialized Logger
func New(out io.Writer) *Aggregate {
	return &Aggregate{
		InfoLogger:  log.New(out, "INFO: ", log.LstdFlags),
		WarnLogger:  log.New(out, "WARN: ", log.LstdFlags),
		ErrorLogger: log.New(out, "ERROR: ", log.LstdFlags),
	}
}

// Discard() returns a Logger that prints nothing. Used when no logger is provided.
func Discard() *Aggregate {
	return New(io.Discard)
}

// Info() prints an INFO log
func (l *Aggregate) Info(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.InfoLogger.Printf(s, v...)
}

// Warn() prints an WARN log
func (l *Aggregate) Warn(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.WarnLogger.Printf(s, v...)
}

// Error() prints an ERROR log
func (l *Aggregate) Error(s string, v ...interface{}) {
	if l == nil {
		return
	}
	l.ErrorLogger.Printf(s, v...)
}

// Open() returns the writer the logs should go to: os.Stderr when path is empty,
// os.Stdout only if asked explicitly, otherwise the file at path opened in append mode.
func Open(path string) (io.Writer, error) {
	switch path {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening file \"%v\": %w", path, err)
	}
	return file, nil
}

// Close() closes w if it's a file other than os.Stdout and os.Stderr.
func Close(w io.Writer) {
	if file, ok := w.(*os.File); ok && file != os.Stdout && file != os.Stderr {
		file.Close()
	}
}
