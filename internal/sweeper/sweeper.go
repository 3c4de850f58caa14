// Package sweeper runs the scheduled pipeline work against the API:
// materializing due recurring occurrences and recording net worth snapshots.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"moneta/internal/client"
)

// PipelineClient defines the pipeline operations the sweeper drives.
type PipelineClient interface {
	AdvanceRecurring(ctx context.Context) (*client.AdvanceSummary, error)
	RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error)
}

// RunResult contains the outcome of a sweep.
type RunResult struct {
	Advance           client.AdvanceSummary
	SnapshotsRecorded int
	Duration          time.Duration
}

// Failed reports whether any template could not be advanced.
func (r *RunResult) Failed() bool {
	return len(r.Advance.Errors) > 0
}

// Sweeper advances recurring templates, then records snapshots.
type Sweeper struct {
	client          PipelineClient
	recordSnapshots bool
	now             func() time.Time
	log             *zap.SugaredLogger
}

// New creates a Sweeper.
func New(c PipelineClient, recordSnapshots bool, log *zap.SugaredLogger) *Sweeper {
	return &Sweeper{client: c, recordSnapshots: recordSnapshots, now: time.Now, log: log}
}

// Run executes a single sweep.
func (s *Sweeper) Run(ctx context.Context) (*RunResult, error) {
	start := s.now()
	result := &RunResult{}

	summary, err := s.client.AdvanceRecurring(ctx)
	if err != nil {
		return nil, err
	}
	result.Advance = *summary
	s.log.Infow("recurring advanced",
		"processed", summary.Processed,
		"materialized", summary.Materialized,
		"deactivated", summary.Deactivated,
		"deferred", summary.Deferred,
	)
	for _, f := range summary.Errors {
		s.log.Warnw("template not advanced", "recurring_id", f.RecurringID, "error", f.Message)
	}

	if s.recordSnapshots {
		count, err := s.client.RecordSnapshots(ctx, start)
		if err != nil {
			return nil, err
		}
		result.SnapshotsRecorded = count
	} else {
		s.log.Info("snapshot recording disabled")
	}

	result.Duration = s.now().Sub(start)
	return result, nil
}
