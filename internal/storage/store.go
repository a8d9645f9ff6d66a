package storage

import (
	"context"

	"onemaxlab/internal/model"
)

// Store defines persistence operations for the experiment archive.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
	SaveLocality(ctx context.Context, record model.LocalityRecord) error
	GetLocality(ctx context.Context, name string) (model.LocalityRecord, bool, error)
}
