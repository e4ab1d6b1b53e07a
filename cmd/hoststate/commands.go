package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"codeberg.org/mutker/hoststate/internal/codec"
	"codeberg.org/mutker/hoststate/internal/config"
	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
	"codeberg.org/mutker/hoststate/internal/settings"
	"codeberg.org/mutker/hoststate/internal/store"
	"codeberg.org/mutker/hoststate/internal/telemetry"
)

func dispatch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	args := cfg.Args
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "summary":
		return summary(ctx, cfg, out)
	case "monitor":
		return monitor(ctx, cfg)
	case "store":
		return storeCommand(ctx, cfg, args[1:], out)
	case "settings":
		return settingsCommand(ctx, cfg, args[1:], out)
	default:
		return usageError(fmt.Sprintf("unknown command %q", args[0]))
	}
}

func usageError(msg string) error {
	return errors.New().WithMessage(errors.ErrUsage, msg)
}

func summary(ctx context.Context, cfg config.Provider, out io.Writer) error {
	summarizer, err := telemetry.NewFileService(
		telemetry.Config{SnapshotPath: cfg.GetSnapshotPath()},
		logger.Default(),
	)
	if err != nil {
		return err
	}

	s, err := summarizer.Summarize(ctx)
	if err != nil {
		return err
	}

	return writeJSON(out, s)
}

func newCodec(cfg config.Provider) (codec.Codec, error) {
	switch cfg.GetStoreCodec() {
	case "aead":
		return codec.NewAEADFromPassphrase(cfg.GetStorePassphrase())
	default:
		return codec.Default(), nil
	}
}

func openStore(ctx context.Context, cfg config.Provider, opts ...store.Option) (*store.Store, error) {
	c, err := newCodec(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]store.Option{
		store.WithCodec(c),
		store.WithLogger(logger.Default()),
	}, opts...)

	s, err := store.New(
		store.Config{Path: cfg.GetStorePath(), Driver: cfg.GetStoreDriver()},
		opts...,
	)
	if err != nil {
		return nil, err
	}

	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func storeCommand(ctx context.Context, cfg config.Provider, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing store command")
	}

	want := map[string]int{"init": 1, "get": 2, "set": 3, "delete": 2, "backup": 2}
	n, ok := want[args[0]]
	if !ok {
		return usageError(fmt.Sprintf("unknown store command %q", args[0]))
	}
	if len(args) != n {
		return usageError(fmt.Sprintf("store %s takes %d argument(s)", args[0], n-1))
	}

	// Parse before opening so bad input never touches the store
	var value any
	if args[0] == "set" {
		v, err := parseJSON(args[2])
		if err != nil {
			return err
		}
		value = v
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	switch args[0] {
	case "init":
		_, err = fmt.Fprintln(out, "initialized")
	case "get":
		v, found, getErr := s.Get(ctx, args[1])
		if getErr != nil {
			return getErr
		}
		if !found {
			return errors.New().WithData(errors.ErrResourceNotFound, args[1])
		}
		return writeJSON(out, v)
	case "set":
		if err := s.Set(ctx, args[1], value); err != nil {
			return err
		}
	case "delete":
		removed, delErr := s.Delete(ctx, args[1])
		if delErr != nil {
			return delErr
		}
		_, err = fmt.Fprintln(out, removed)
	case "backup":
		if err := s.Backup(ctx, args[1]); err != nil {
			return err
		}
	}

	if err != nil {
		return errors.New().Wrap(errors.ErrWriteOutput, err)
	}

	return nil
}

func settingsCommand(ctx context.Context, cfg config.Provider, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing settings command")
	}

	var patch map[string]any
	switch {
	case args[0] == "show" && len(args) == 1:
	case args[0] == "update" && len(args) == 2:
		if err := json.Unmarshal([]byte(args[1]), &patch); err != nil {
			return usageError(fmt.Sprintf("settings patch must be a JSON object: %v", err))
		}
	default:
		return usageError(fmt.Sprintf("invalid settings command %q", args[0]))
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	m := settings.New(s, logger.Default())

	var current settings.Settings
	if patch == nil {
		current, err = m.Load(ctx)
	} else {
		current, err = m.Update(ctx, patch)
	}
	if err != nil {
		return err
	}

	return writeJSON(out, current)
}

func parseJSON(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, usageError(fmt.Sprintf("value must be JSON: %v", err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, usageError("value must be a single JSON document")
	}

	return v, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.New().Wrap(errors.ErrWriteOutput, err)
	}
	return nil
}
