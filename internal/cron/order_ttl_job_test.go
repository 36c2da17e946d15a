package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/isolele/isolele-backend/pkg/logger"
)

type fakeCanceller struct {
	cutoff time.Time
	count  int
	err    error
}

func (f *fakeCanceller) CancelStalePending(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.count, f.err
}

func TestOrderTTLJob_usesDefaultCutoff(t *testing.T) {
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	canceller := &fakeCanceller{count: 2}
	job, err := NewOrderTTLJob(OrderTTLJobParams{Logger: logger.Nop(), Orders: canceller})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	job.(*orderTTLJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := now.Add(-orderExpirationDays * 24 * time.Hour)
	if !canceller.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, canceller.cutoff)
	}
}

func TestOrderTTLJob_propagatesFailure(t *testing.T) {
	canceller := &fakeCanceller{err: errors.New("db down")}
	job, err := NewOrderTTLJob(OrderTTLJobParams{Logger: logger.Nop(), Orders: canceller, MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderTTLJob_requiresDependencies(t *testing.T) {
	if _, err := NewOrderTTLJob(OrderTTLJobParams{Logger: logger.Nop()}); err == nil {
		t.Fatal("expected missing orders service to fail")
	}
}
