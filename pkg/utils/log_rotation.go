package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Rotation limits applied to log files. A mounted filesystem can run for
// months; without a ceiling a chatty debug session fills the disk.
const (
	logMaxBytes   = 10 * 1024 * 1024
	logMaxBackups = 3
)

// RotatingWriter is an io.WriteCloser that rotates its file when it
// grows past maxBytes, keeping a bounded number of timestamped backups.
type RotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
	keep     int
	file     *os.File
	size     int64
}

// NewRotatingWriter opens path for appending, rotating at maxBytes and
// retaining keep backups. Zero maxBytes disables rotation; zero keep
// retains every backup.
func NewRotatingWriter(path string, maxBytes int64, keep int) (*RotatingWriter, error) {
	if path == "" {
		return nil, fmt.Errorf("log path is required")
	}

	w := &RotatingWriter{path: path, maxBytes: maxBytes, keep: keep}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.maxBytes > 0 && w.size+int64(len(p)) >= w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("log rotation failed: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the current log file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Rotate forces an immediate rotation.
func (w *RotatingWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rotate()
}

func (w *RotatingWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = file
	w.size = info.Size()
	return nil
}

func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}

	backup := w.backupName(time.Now().UTC())
	if err := os.Rename(w.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}

	w.pruneBackups()
	return w.open()
}

// backupName derives the rotated filename: jsonfs.log becomes
// jsonfs-2025-03-14T09-26-53.log.
func (w *RotatingWriter) backupName(ts time.Time) string {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, ts.Format("2006-01-02T15-04-05"), ext))
}

// pruneBackups deletes the oldest backups beyond the retention count.
// Pruning is best effort; rotation proceeds even if it fails.
func (w *RotatingWriter) pruneBackups() {
	if w.keep <= 0 {
		return
	}

	backups := w.backupFiles()
	if len(backups) <= w.keep {
		return
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime().Before(backups[j].ModTime())
	})
	for _, info := range backups[:len(backups)-w.keep] {
		path := filepath.Join(filepath.Dir(w.path), info.Name())
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to remove old log backup %s: %v\n", path, err)
		}
	}
}

func (w *RotatingWriter) backupFiles() []os.FileInfo {
	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var backups []os.FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if name == base || !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, info)
	}
	return backups
}
