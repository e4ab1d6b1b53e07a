package store

import (
	"context"
	"sync"

	"codeberg.org/mutker/hoststate/internal/logger"
)

// MemoryDriver keeps entries in process memory. Nothing survives a restart.
type MemoryDriver struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{entries: make(map[string][]byte)}
}

// OpenMemory ignores path and returns an empty MemoryDriver
func OpenMemory(_ string, _ logger.Logger) (Driver, error) {
	return NewMemoryDriver(), nil
}

func (d *MemoryDriver) Get(_ context.Context, key string) ([]byte, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (d *MemoryDriver) Set(_ context.Context, key string, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[key] = append([]byte(nil), value...)
	return nil
}

func (d *MemoryDriver) Delete(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.entries[key]
	delete(d.entries, key)
	return ok, nil
}

func (d *MemoryDriver) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

func (d *MemoryDriver) Close() error {
	return nil
}
