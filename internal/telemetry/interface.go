package telemetry

import "context"

// Source supplies raw host snapshots. Collection itself happens elsewhere;
// a Source only hands over what the collector produced.
type Source interface {
	Snapshot(ctx context.Context) (RawSnapshot, error)
}

// Summarizer produces canonical summaries on request
type Summarizer interface {
	Summarize(ctx context.Context) (*SystemSummary, error)
}
