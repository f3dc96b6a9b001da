package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure FailureLog implements the interface.
var _ driven.FailureLog = (*FailureLog)(nil)

// maxLineSize bounds one failure-log entry when reading back.
const maxLineSize = 1 << 20

// FailureLog appends one JSON object per line to a file.
// The directory and file are created on first Record.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog creates a failure log at logDir/failures.jsonl.
// If logDir is empty, defaults to ~/.archaeologist/logs.
func NewFailureLog(logDir string) (*FailureLog, error) {
	if logDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		logDir = filepath.Join(dir, "logs")
	}
	return &FailureLog{path: filepath.Join(logDir, "failures.jsonl")}, nil
}

// Record appends a failure.
func (l *FailureLog) Record(_ context.Context, failure domain.Failure) error {
	line, err := json.Marshal(failure)
	if err != nil {
		return fmt.Errorf("encode failure: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write failure log: %w", err)
	}
	return f.Close()
}

// Recent returns up to limit failures, newest first. A limit <= 0 returns all.
// Lines that do not decode are skipped.
func (l *FailureLog) Recent(_ context.Context, limit int) ([]domain.Failure, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Failure{}, nil
		}
		return nil, fmt.Errorf("read failure log: %w", err)
	}

	var all []domain.Failure
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var f domain.Failure
		if err := json.Unmarshal(line, &f); err != nil {
			logger.Debug("failure log: skipping malformed line: %v", err)
			continue
		}
		all = append(all, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan failure log: %w", err)
	}

	n := len(all)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Failure, 0, n)
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Path returns where the log is persisted.
func (l *FailureLog) Path() string {
	return l.path
}
