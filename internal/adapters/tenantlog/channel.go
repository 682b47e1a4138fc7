// Package tenantlog provides each tenant's daily-rotating log channel.
// Files are written as <logRoot>/tenants/<slug>/<slug>-YYYY-MM-DD.log and
// pruned after the retention window.
package tenantlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/trinavo/tenancy/internal/core/domain"
	"github.com/trinavo/tenancy/internal/core/ports"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const dateLayout = "2006-01-02"

// Registry opens one channel per slug and reuses it for the life of the
// process.
type Registry struct {
	level zapcore.Level

	mu       sync.Mutex
	channels map[string]*zap.Logger
	writers  []io.Closer
}

var (
	_ ports.TenantLoggers = (*Registry)(nil)
	_ io.Closer           = (*Registry)(nil)
)

func NewRegistry(level zapcore.Level) *Registry {
	return &Registry{level: level, channels: map[string]*zap.Logger{}}
}

func (r *Registry) For(res domain.RuntimeResourceSet) (*zap.Logger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if logger, ok := r.channels[res.Slug]; ok {
		return logger, nil
	}

	w := &dailyWriter{
		basePath:      res.LogPath,
		retentionDays: res.LogRetentionDays,
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), r.level)
	logger := zap.New(core).With(zap.String("tenant", res.Slug))

	r.channels[res.Slug] = logger
	r.writers = append(r.writers, w)
	return logger, nil
}

func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, w := range r.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.writers = nil
	r.channels = map[string]*zap.Logger{}
	return firstErr
}

// dailyWriter appends to a dated file derived from basePath, switching
// files when the day changes and pruning dated files older than the
// retention window on each switch.
type dailyWriter struct {
	basePath      string
	retentionDays int

	mu   sync.Mutex
	day  string
	file *os.File
}

func (w *dailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := time.Now().Format(dateLayout)
	if w.file == nil || w.day != today {
		if err := w.rotate(today); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *dailyWriter) rotate(day string) error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	if err := os.MkdirAll(filepath.Dir(w.basePath), 0o755); err != nil {
		return fmt.Errorf("mkdir log dir: %w", err)
	}

	f, err := os.OpenFile(w.datedPath(day), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	w.file = f
	w.day = day

	w.prune(day)
	return nil
}

// prune removes dated siblings older than the retention window. Best
// effort: a failed removal only means the file survives one more rotation.
func (w *dailyWriter) prune(day string) {
	today, err := time.Parse(dateLayout, day)
	if err != nil {
		return
	}
	cutoff := today.AddDate(0, 0, -w.retentionDays)

	prefix, suffix := w.nameParts()
	entries, err := os.ReadDir(filepath.Dir(w.basePath))
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		fileDay, err := time.Parse(dateLayout, stamp)
		if err != nil {
			continue
		}
		if fileDay.Before(cutoff) {
			_ = os.Remove(filepath.Join(filepath.Dir(w.basePath), name))
		}
	}
}

func (w *dailyWriter) datedPath(day string) string {
	prefix, suffix := w.nameParts()
	return filepath.Join(filepath.Dir(w.basePath), prefix+day+suffix)
}

// nameParts splits "<slug>.log" into the "<slug>-" prefix and ".log"
// suffix that bracket the date stamp.
func (w *dailyWriter) nameParts() (string, string) {
	base := filepath.Base(w.basePath)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-", ext
}

func (w *dailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
