package telemetry

import (
	"context"

	"codeberg.org/mutker/hoststate/internal/errors"
	"codeberg.org/mutker/hoststate/internal/logger"
)

type service struct {
	source Source
	log    logger.Logger
}

func NewService(source Source, log logger.Logger) (Summarizer, error) {
	errFactory := errors.New()

	if source == nil {
		return nil, errFactory.WithMessage(ErrInvalidConfig, "telemetry source is required")
	}
	if log == nil {
		log = logger.Default()
	}

	return &service{
		source: source,
		log:    log,
	}, nil
}

// NewFileService summarizes the snapshot file named by cfg
func NewFileService(cfg Config, log logger.Logger) (Summarizer, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	return NewService(FileSource{Path: cfg.SnapshotPath}, log)
}

func (s *service) Summarize(ctx context.Context) (*SystemSummary, error) {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return nil, errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	raw, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, errFactory.Wrap(ErrSnapshotUnavailable, err)
	}

	summary := Normalize(raw)

	s.log.Debug().
		Str("hostname", summary.Hostname).
		Uint64("cpu_count", summary.CPUCount).
		Float64("cpu_usage", summary.CPUUsage).
		Float64("memory_usage", summary.MemoryUsagePercentage).
		Int("disks", len(summary.Disks)).
		Msg("Snapshot normalized")

	return &summary, nil
}
