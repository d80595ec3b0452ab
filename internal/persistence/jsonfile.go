package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStoreUnavailable reports a file system failure on a backing document.
var ErrStoreUnavailable = errors.New("store unavailable")

// EnsureDataDir creates the data directory when missing.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrStoreUnavailable, dir, err)
	}
	return nil
}

// JSONCollection persists one entity collection as a single pretty-printed JSON array.
// Every read and write round-trips the whole document.
type JSONCollection[T any] struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// NewJSONCollection binds a collection to <dir>/<name>.json.
func NewJSONCollection[T any](dir, name string, logger *zap.Logger) *JSONCollection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONCollection[T]{
		path:   filepath.Join(dir, name+".json"),
		logger: logger.With(zap.String("collection", name)),
	}
}

// Path returns the backing document location.
func (c *JSONCollection[T]) Path() string {
	return c.path
}

// Read loads the full collection. An absent or undecodable document is reset to an
// empty collection.
func (c *JSONCollection[T]) Read(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(ctx)
}

// Mutate runs read, fn and write as one critical section. When fn returns an error
// nothing is written.
func (c *JSONCollection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.read(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.write(ctx, next)
}

// Ping verifies the document is readable.
func (c *JSONCollection[T]) Ping(ctx context.Context) error {
	_, err := c.Read(ctx)
	return err
}

func (c *JSONCollection[T]) read(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("unreadable collection, resetting", zap.Error(err))
		}
		return c.reset(ctx)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil || len(raw) == 0 {
		c.backupCorrupt(raw, err)
		return c.reset(ctx)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *JSONCollection[T]) reset(ctx context.Context) ([]T, error) {
	empty := []T{}
	if err := c.write(ctx, empty); err != nil {
		return nil, err
	}
	return empty, nil
}

func (c *JSONCollection[T]) backupCorrupt(raw []byte, cause error) {
	if len(raw) == 0 {
		return
	}
	backup := c.path + ".corrupt-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.WriteFile(backup, raw, 0o600); err != nil {
		c.logger.Error("failed to back up corrupt collection", zap.String("backup", backup), zap.Error(err))
		return
	}
	c.logger.Warn("corrupt collection reset to empty", zap.String("backup", backup), zap.Error(cause))
}

func (c *JSONCollection[T]) write(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: chmod %s: %v", ErrStoreUnavailable, tmpName, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %v", ErrStoreUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrStoreUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrStoreUnavailable, c.path, err)
	}
	return nil
}
