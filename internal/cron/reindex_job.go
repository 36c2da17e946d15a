package cron

import (
	"context"
	"fmt"

	"github.com/isolele/isolele-backend/internal/reindex"
	"github.com/isolele/isolele-backend/pkg/logger"
)

// ReindexJobParams configure the daily search engine notification.
type ReindexJobParams struct {
	Logger  *logger.Logger
	Reindex reindex.Service
}

// NewReindexJob builds the cron job that notifies search engines of the public pages.
func NewReindexJob(params ReindexJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reindex == nil {
		return nil, fmt.Errorf("reindex service required")
	}
	return &reindexJob{logg: params.Logger, reindex: params.Reindex}, nil
}

type reindexJob struct {
	logg    *logger.Logger
	reindex reindex.Service
}

func (j *reindexJob) Name() string { return "reindex" }

// Run fails the job when any engine rejected the ping so the failure metric moves.
func (j *reindexJob) Run(ctx context.Context) error {
	report, err := j.reindex.Run(ctx)
	if err != nil {
		return err
	}
	failed := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		if !res.OK {
			failed = append(failed, res.Service)
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"urls": len(report.URLs), "failed": failed})
	if len(failed) > 0 {
		return fmt.Errorf("reindex rejected by %v", failed)
	}
	j.logg.Info(logCtx, "reindex job complete")
	return nil
}
