// Package settings exposes the store's initialization record as the
// user-facing preference set.
package settings

import (
	"context"
	"sort"
	"strings"
	"sync"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"codeberg.org/mutker/hoststate/internal/store"
	"github.com/mitchellh/mapstructure"
)

// Settings is the record persisted under store.SchemaKey
type Settings = store.SchemaRecord

// Store is the subset of *store.Store the manager needs
type Store interface {
	GetInto(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Fields owned by Store.Init; a patch may not touch them. Keys are lower case.
var readOnlyFields = map[string]struct{}{
	"version":     {},
	"initialized": {},
}

type Manager struct {
	store Store
	log   logger.Logger
	mu    sync.Mutex
}

func New(s Store, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{store: s, log: log}
}

// Load returns the stored settings, or the defaults if none are stored
func (m *Manager) Load(ctx context.Context) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) (Settings, error) {
	var current Settings

	found, err := m.store.GetInto(ctx, store.SchemaKey, &current)
	if err != nil {
		return Settings{}, errors.New().Wrap(ErrLoadFailed, err)
	}
	if !found {
		return store.DefaultSchema(), nil
	}

	return current, nil
}

// Save replaces the stored settings with s
func (m *Manager) Save(ctx context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.save(ctx, s)
}

func (m *Manager) save(ctx context.Context, s Settings) error {
	if err := m.store.Set(ctx, store.SchemaKey, s); err != nil {
		return errors.New().Wrap(ErrSaveFailed, err)
	}
	return nil
}

// Update applies patch over the current settings and persists the result.
// Keys absent from the patch keep their current values.
func (m *Manager) Update(ctx context.Context, patch map[string]any) (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	errFactory := errors.New()

	for _, key := range sortedKeys(patch) {
		if _, ok := readOnlyFields[strings.ToLower(key)]; ok {
			return Settings{}, errFactory.WithData(ErrReadOnlyField, key)
		}
	}

	merged, err := m.load(ctx)
	if err != nil {
		return Settings{}, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "json",
		ErrorUnused: true,
		Result:      &merged,
		// Patch keys must match the stored JSON names exactly
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == fieldName
		},
	})
	if err != nil {
		return Settings{}, errFactory.Wrap(errors.ErrInternal, err)
	}

	if err := decoder.Decode(patch); err != nil {
		return Settings{}, errFactory.Wrap(ErrInvalidPatch, err)
	}

	if err := m.save(ctx, merged); err != nil {
		return Settings{}, err
	}

	m.log.Info().
		Strs("fields", sortedKeys(patch)).
		Msg("Settings updated")

	return merged, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
