package cron

import (
	"context"
	"testing"

	"github.com/isolele/isolele-backend/internal/reindex"
	"github.com/isolele/isolele-backend/pkg/logger"
)

type fakeReindex struct {
	report *reindex.Report
	err    error
	runs   int
}

func (f *fakeReindex) Run(context.Context) (*reindex.Report, error) {
	f.runs++
	return f.report, f.err
}

func TestReindexJob_succeedsWhenAllEnginesAccept(t *testing.T) {
	svc := &fakeReindex{report: &reindex.Report{Results: []reindex.ServiceResult{
		{Service: reindex.ServiceGoogle, OK: true},
		{Service: reindex.ServiceBing, OK: true},
		{Service: reindex.ServiceIndexNow, OK: true},
	}}}
	job, err := NewReindexJob(ReindexJobParams{Logger: logger.Nop(), Reindex: svc})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.runs != 1 {
		t.Fatalf("expected one run, got %d", svc.runs)
	}
}

func TestReindexJob_failsWhenAnEngineRejects(t *testing.T) {
	svc := &fakeReindex{report: &reindex.Report{Results: []reindex.ServiceResult{
		{Service: reindex.ServiceGoogle, OK: true},
		{Service: reindex.ServiceBing, OK: false, Error: "status 410"},
	}}}
	job, err := NewReindexJob(ReindexJobParams{Logger: logger.Nop(), Reindex: svc})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected rejected ping to fail the job")
	}
}
