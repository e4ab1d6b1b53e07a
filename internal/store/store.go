// Package store persists small structured values under string keys on top
// of a pluggable durable driver. Values pass through a codec before they
// reach the driver, so nothing is written in the clear.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"codeberg.org/mutker/hoststate/internal/codec"
	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
)

type Store struct {
	cfg     Config
	log     logger.Logger
	values  *codec.ValueCodec
	metrics *metrics
	opener  Opener

	// injected is set when the driver came from WithDriver
	injected bool

	mu     sync.RWMutex
	driver Driver
	ready  bool
}

type Option func(*options)

type options struct {
	log        logger.Logger
	codec      codec.Codec
	driver     Driver
	registerer prometheus.Registerer
}

func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithCodec replaces the default XOR obfuscation
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithDriver makes Init use d instead of opening Config.Driver. The Store
// owns d: after Close it cannot be initialized again.
func WithDriver(d Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithRegisterer registers the store's operation counters on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New prepares a Store. Nothing is opened until Init.
func New(cfg Config, opts ...Option) (*Store, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = logger.Default()
	}

	s := &Store{
		cfg:     cfg,
		log:     o.log,
		values:  codec.NewValueCodec(o.codec),
		metrics: newMetrics(o.registerer),
	}

	if o.driver != nil {
		d := o.driver
		s.opener = func(string, logger.Logger) (Driver, error) { return d, nil }
		s.injected = true
		return s, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.New().Wrap(ErrInvalidConfig, err)
	}
	s.opener = drivers[cfg.Driver]

	return s, nil
}

// Init opens the driver and makes sure the initialization record exists.
// An existing record with initialized set is left as it is, so repeated
// calls write nothing. A record that cannot be decoded is reported as
// ErrCorrupt and never overwritten.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.init(ctx)
	s.metrics.observe("init", resultOf(err))

	return err
}

func (s *Store) init(ctx context.Context) error {
	errFactory := errors.New()

	if s.driver == nil {
		d, err := s.opener(s.cfg.Path, s.log)
		if err != nil {
			if errors.HasCode(err, ErrUnavailable) {
				return err
			}
			return errFactory.Wrap(ErrUnavailable, err)
		}
		s.driver = d
	}

	raw, found, err := s.driver.Get(ctx, SchemaKey)
	if err != nil {
		return errFactory.Wrap(ErrUnavailable, err)
	}

	if found {
		var marker any
		if err := s.values.Unmarshal(raw, &marker); err != nil {
			s.log.Error().
				Str("key", SchemaKey).
				Err(err).
				Msg("Initialization record is corrupt, leaving it untouched")
			return errFactory.Wrap(ErrCorrupt, err).WithData(struct{ Key string }{Key: SchemaKey})
		}

		if markerInitialized(marker) {
			s.log.Debug().Msg("Store already initialized")
			s.ready = true
			return nil
		}

		s.log.Warn().
			Str("key", SchemaKey).
			Msg("Initialization record is not marked initialized, writing defaults")
	}

	encoded, err := s.values.Marshal(DefaultSchema())
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	if err := s.driver.Set(ctx, SchemaKey, encoded); err != nil {
		return errFactory.Wrap(ErrUnavailable, err)
	}

	s.log.Info().
		Str("driver", s.cfg.Driver).
		Str("version", RecordVersion).
		Msg("Store initialized")

	s.ready = true

	return nil
}

// Get returns the decoded value stored under key. Numbers come back as
// json.Number.
func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	var value any

	found, err := s.get(ctx, "get", key, &value)
	if err != nil || !found {
		return nil, found, err
	}

	return value, true, nil
}

// GetInto decodes the value stored under key into out
func (s *Store) GetInto(ctx context.Context, key string, out any) (bool, error) {
	return s.get(ctx, "get", key, out)
}

func (s *Store) get(ctx context.Context, op, key string, out any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.mustBeReady(op)

	errFactory := errors.New()

	if key == "" {
		s.metrics.observe(op, resultError)
		return false, errFactory.New(ErrInvalidKey)
	}

	raw, found, err := s.driver.Get(ctx, key)
	if err != nil {
		s.metrics.observe(op, resultError)
		return false, err
	}
	if !found {
		s.metrics.observe(op, resultMiss)
		return false, nil
	}

	if err := s.values.Unmarshal(raw, out); err != nil {
		s.metrics.observe(op, resultError)
		return false, errFactory.Wrap(ErrCorrupt, err).WithData(struct{ Key string }{Key: key})
	}

	s.metrics.observe(op, resultOK)

	return true, nil
}

// Set stores value under key, replacing any previous value. The write is
// handed to the driver before Set returns.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mustBeReady("set")

	err := s.set(ctx, key, value)
	s.metrics.observe("set", resultOf(err))

	return err
}

func (s *Store) set(ctx context.Context, key string, value any) error {
	errFactory := errors.New()

	if key == "" {
		return errFactory.New(ErrInvalidKey)
	}

	if key == SchemaKey {
		if err := validateSchemaRecord(value); err != nil {
			return err
		}
	}

	encoded, err := s.values.Marshal(value)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	if err := s.driver.Set(ctx, key, encoded); err != nil {
		return err
	}

	s.log.Debug().Str("key", key).Int("bytes", len(encoded)).Msg("Value stored")

	return nil
}

// Delete removes key and reports whether it existed
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mustBeReady("delete")

	if key == "" {
		s.metrics.observe("delete", resultError)
		return false, errors.New().New(ErrInvalidKey)
	}

	removed, err := s.driver.Delete(ctx, key)
	switch {
	case err != nil:
		s.metrics.observe("delete", resultError)
		return false, err
	case !removed:
		s.metrics.observe("delete", resultMiss)
	default:
		s.metrics.observe("delete", resultOK)
		s.log.Debug().Str("key", key).Msg("Value deleted")
	}

	return removed, nil
}

// Backup writes a consistent copy of the store to dest
func (s *Store) Backup(ctx context.Context, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mustBeReady("backup")

	errFactory := errors.New()

	if dest == "" {
		s.metrics.observe("backup", resultError)
		return errFactory.New(ErrInvalidPath)
	}

	b, ok := s.driver.(Backuper)
	if !ok {
		s.metrics.observe("backup", resultError)
		return errFactory.WithData(ErrBackupNotSupported, s.cfg.Driver)
	}

	err := b.Backup(ctx, dest)
	s.metrics.observe("backup", resultOf(err))

	return err
}

// Close releases the driver. The Store must be initialized again before
// further use.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.driver == nil {
		return nil
	}

	err := s.driver.Close()
	s.driver = nil
	s.ready = false

	if s.injected {
		s.opener = closedOpener
	}

	return err
}

func closedOpener(string, logger.Logger) (Driver, error) {
	return nil, errors.New().WithMessage(ErrUnavailable, "Injected driver has been closed")
}

// markerInitialized reports whether a decoded initialization record carries
// initialized == true. Anything else, including a non-object, needs defaults.
func markerInitialized(marker any) bool {
	record, ok := marker.(map[string]any)
	if !ok {
		return false
	}
	initialized, ok := record["initialized"].(bool)
	return ok && initialized
}

// validateSchemaRecord rejects values under SchemaKey that do not decode
// into a SchemaRecord. Unknown fields are allowed.
func validateSchemaRecord(value any) error {
	errFactory := errors.New()

	data, err := json.Marshal(value)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errFactory.WithMessage(ErrInvalidSchemaRecord, "Initialization record must be an object")
	}

	var record SchemaRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return errFactory.Wrap(ErrInvalidSchemaRecord, err)
	}

	return nil
}

func (s *Store) mustBeReady(op string) {
	if !s.ready {
		panic(fmt.Sprintf("store: %s called before successful Init", op))
	}
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
