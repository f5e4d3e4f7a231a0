// Package auditlog keeps a per-user log of placed orders, one JSON line per
// order, with periodic gzip rotation. It is an append-only diagnostic trail
// next to the entity store, never read back by the workflows.
package auditlog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Logger appends and rotates audit log files under baseDir.
type Logger struct {
	fs      afero.Fs
	baseDir string
	log     zerolog.Logger

	mu sync.Mutex
}

// New creates the audit logger and its directory.
func New(fs afero.Fs, baseDir string, logger zerolog.Logger) (*Logger, error) {
	if err := fs.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("auditlog: create dir: %w", err)
	}
	return &Logger{fs: fs, baseDir: baseDir, log: logger}, nil
}

// Append writes entry as one JSON line to <name>.log, creating the file if
// needed.
func (l *Logger) Append(name string, entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("auditlog: marshal: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.fs.OpenFile(filepath.Join(l.baseDir, name+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("auditlog: open %s: %w", name, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("auditlog: append %s: %w", name, err)
	}
	return f.Close()
}

// Rotate compresses every non-empty .log file into a timestamped .gz and
// truncates the original.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := afero.ReadDir(l.fs, l.baseDir)
	if err != nil {
		return fmt.Errorf("auditlog: list: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") || entry.Size() == 0 {
			continue
		}
		if err := l.rotateOne(strings.TrimSuffix(name, ".log")); err != nil {
			return err
		}
	}
	return nil
}

func (l *Logger) rotateOne(id string) error {
	src := filepath.Join(l.baseDir, id+".log")
	data, err := afero.ReadFile(l.fs, src)
	if err != nil {
		return fmt.Errorf("auditlog: read %s: %w", id, err)
	}

	dst := filepath.Join(l.baseDir, fmt.Sprintf("%s-%d.log.gz", id, time.Now().UnixMilli()))
	f, err := l.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("auditlog: create %s: %w", dst, err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("auditlog: compress %s: %w", id, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("auditlog: compress %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("auditlog: close %s: %w", dst, err)
	}

	if err := afero.WriteFile(l.fs, src, nil, 0o644); err != nil {
		return fmt.Errorf("auditlog: truncate %s: %w", id, err)
	}
	return nil
}

// RotationLoop rotates on every tick of interval until ctx is done.
func (l *Logger) RotationLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Rotate(); err != nil {
				l.log.Warn().Err(err).Msg("audit log rotation failed")
			}
		}
	}
}
