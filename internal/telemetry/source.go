package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/hoststate/internal/errors"
	"gopkg.in/yaml.v3"
)

// Format selects the decoder for a raw snapshot
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FileSource reads the snapshot a collector left on disk. The file is read
// again on every call.
type FileSource struct {
	Path string
}

func (s FileSource) Snapshot(ctx context.Context) (RawSnapshot, error) {
	errFactory := errors.New()

	if err := ctx.Err(); err != nil {
		return nil, errFactory.Wrap(ErrOperationTimeout, err)
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errFactory.WithData(ErrSnapshotUnavailable, struct {
			Path  string
			Error string
		}{
			Path:  s.Path,
			Error: err.Error(),
		})
	}

	return DecodeSnapshot(bytes.NewReader(data), FormatFromPath(s.Path))
}

// StaticSource always returns the same snapshot
type StaticSource struct {
	Raw RawSnapshot
}

func (s StaticSource) Snapshot(_ context.Context) (RawSnapshot, error) {
	return s.Raw, nil
}

// DecodeSnapshot decodes a single JSON or YAML object. JSON numbers are kept
// as json.Number so byte counts above 2^53 survive intact.
func DecodeSnapshot(r io.Reader, format Format) (RawSnapshot, error) {
	errFactory := errors.New()

	raw := RawSnapshot{}
	switch format {
	case FormatYAML:
		var doc map[string]any
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, errFactory.Wrap(ErrSnapshotFormat, err)
		}
		for k, v := range doc {
			raw[k] = v
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return nil, errFactory.Wrap(ErrSnapshotFormat, err)
		}
		for k, v := range doc {
			raw[k] = v
		}
	default:
		return nil, errFactory.WithData(ErrSnapshotFormat, format)
	}

	return raw, nil
}
