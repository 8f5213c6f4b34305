package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerationLogger writes leveled lines for one sitemap generation run to
// stdout and, when a log directory is configured, to a per-run file.
type GenerationLogger struct {
	RunID      uuid.UUID
	file       *os.File
	logger     *log.Logger
	multiWrite io.Writer
}

func NewGenerationLogger(name, logsDir string) (*GenerationLogger, error) {
	return NewGenerationLoggerTo(name, logsDir, os.Stdout)
}

// NewGenerationLoggerTo is NewGenerationLogger with stdout replaced by w.
func NewGenerationLoggerTo(name, logsDir string, stdout io.Writer) (*GenerationLogger, error) {
	runID := uuid.New()
	gl := &GenerationLogger{RunID: runID, multiWrite: stdout}

	if logsDir != "" {
		// Sanitize name for file system
		sanitized := strings.ReplaceAll(strings.ToLower(name), " ", "_")

		dir := filepath.Join(logsDir, sanitized)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logPath := filepath.Join(dir, fmt.Sprintf("sitemap_%s_%s.log", timestamp, runID.String()[:8]))

		file, err := os.Create(logPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}

		gl.file = file
		gl.multiWrite = io.MultiWriter(stdout, file)
	}

	gl.logger = log.New(gl.multiWrite, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	return gl, nil
}

func (gl *GenerationLogger) LogInfo(format string, v ...interface{}) {
	gl.log("INFO", format, v...)
}

func (gl *GenerationLogger) LogError(format string, v ...interface{}) {
	gl.log("ERROR", format, v...)
}

func (gl *GenerationLogger) LogDebug(format string, v ...interface{}) {
	gl.log("DEBUG", format, v...)
}

func (gl *GenerationLogger) log(level string, format string, v ...interface{}) {
	message := fmt.Sprintf(format, v...)
	gl.logger.Printf("[%s] [%s] %s", level, gl.RunID.String()[:8], message)
}

// Path returns the log file path, or "" when logging to stdout only.
func (gl *GenerationLogger) Path() string {
	if gl.file == nil {
		return ""
	}
	return gl.file.Name()
}

func (gl *GenerationLogger) Close() error {
	if gl.file == nil {
		return nil
	}
	return gl.file.Close()
}
