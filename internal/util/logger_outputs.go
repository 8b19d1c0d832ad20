package util

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleOutput writes logs to a console stream
type ConsoleOutput struct {
	writer io.Writer
	format LogFormat
	mu     sync.Mutex
}

// NewConsoleOutput creates a console output; a nil writer means stderr.
func NewConsoleOutput(writer io.Writer, format LogFormat) Output {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleOutput{
		writer: writer,
		format: format,
	}
}

func (c *ConsoleOutput) Write(entry LogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeEntry(c.writer, entry, c.format)
}

func (c *ConsoleOutput) Close() error {
	return nil
}

// LevelFilterOutput forwards only entries at or above a minimum level
type LevelFilterOutput struct {
	next Output
	min  LogLevel
}

// NewLevelFilterOutput wraps next so it only sees entries at min or above.
func NewLevelFilterOutput(next Output, min LogLevel) Output {
	return &LevelFilterOutput{next: next, min: min}
}

func (o *LevelFilterOutput) Write(entry LogEntry) error {
	if ParseLogLevel(entry.Level) < o.min {
		return nil
	}
	return o.next.Write(entry)
}

func (o *LevelFilterOutput) Close() error {
	return o.next.Close()
}

// RotatingFileOutput writes logs to a size-rotated file
type RotatingFileOutput struct {
	file   *lumberjack.Logger
	format LogFormat
	mu     sync.Mutex
}

// NewRotatingFileOutput creates a file output that rotates at maxSizeMB,
// keeping maxBackups old files.
func NewRotatingFileOutput(path string, maxSizeMB, maxBackups int, format LogFormat) Output {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &RotatingFileOutput{
		file: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
		format: format,
	}
}

func (f *RotatingFileOutput) Write(entry LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeEntry(f.file, entry, f.format)
}

func (f *RotatingFileOutput) Close() error {
	return f.file.Close()
}

func writeEntry(w io.Writer, entry LogEntry, format LogFormat) error {
	var output string
	if format == FormatJSON {
		data, err := sonic.Marshal(entry)
		if err != nil {
			return err
		}
		output = string(data)
	} else {
		output = formatText(entry)
	}

	_, err := fmt.Fprintln(w, output)
	return err
}
