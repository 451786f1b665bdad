// Package audit keeps the append-only daily log of automated activity reports.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yukikurage/worktime-api/internal/models"
)

const suspectMarker = "ВОЗМОЖНО РУЧНОЙ ВВОД"

// Entry is one accepted automated report.
type Entry struct {
	At       models.Timestamp
	Username string
	Date     models.Date
	Seconds  int64
	Suspect  bool
}

// Line renders the entry the way it is written to disk, without the newline.
func (e Entry) Line() string {
	line := fmt.Sprintf("%s | %s | %d секунд", e.At, e.Username, e.Seconds)
	if e.Suspect {
		line += " | " + suspectMarker
	}
	return line
}

// Recorder appends audit lines.
type Recorder interface {
	Record(entry Entry)
}

// DailyLog writes one file per reported date under dir.
type DailyLog struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewDailyLog creates a DailyLog rooted at dir.
func NewDailyLog(dir string, logger *zap.Logger) *DailyLog {
	return &DailyLog{dir: dir, logger: logger}
}

// Record appends the entry to {dir}/{date}.log. Failures are logged, never returned.
func (l *DailyLog) Record(entry Entry) {
	if err := l.append(entry); err != nil {
		l.logger.Error("Failed to write activity audit log",
			zap.String("username", entry.Username),
			zap.String("date", entry.Date.String()),
			zap.Error(err),
		)
	}
}

// Path returns the file that holds entries for date.
func (l *DailyLog) Path(date models.Date) string {
	return filepath.Join(l.dir, date.String()+".log")
}

func (l *DailyLog) append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.Path(entry.Date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(entry.Line() + "\n"); err != nil {
		return fmt.Errorf("failed to append audit line: %w", err)
	}
	return nil
}
