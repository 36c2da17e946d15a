package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/isolele/isolele-backend/pkg/logger"
)

const orderExpirationDays = 10

// OrderTTLJobParams configure the pending order expiry job.
type OrderTTLJobParams struct {
	Logger *logger.Logger
	Orders staleOrderCanceller
	MaxAge time.Duration
}

type staleOrderCanceller interface {
	CancelStalePending(ctx context.Context, cutoff time.Time) (int, error)
}

// NewOrderTTLJob builds the cron job that cancels orders left pending too long.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = orderExpirationDays * 24 * time.Hour
	}
	return &orderTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	orders staleOrderCanceller
	maxAge time.Duration
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	count, err := j.orders.CancelStalePending(ctx, cutoff)
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count, "cutoff": cutoff})
	if err != nil {
		return fmt.Errorf("cancel stale pending orders: %w", err)
	}
	j.logg.Info(logCtx, "order expiration loop complete")
	return nil
}
