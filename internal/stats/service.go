package stats

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isolele/isolele-backend/internal/repo"
)

// Counter is any collection that can count its rows.
type Counter interface {
	Name() string
	Count(ctx context.Context, f repo.Filter) (int64, error)
}

// Metric is one named count on the dashboard.
type Metric struct {
	Key    string
	Source Counter
	Filter repo.Filter
}

// Total counts every row of a collection under the collection's own name.
func Total(c Counter) Metric {
	return Metric{Key: c.Name(), Source: c}
}

// Where counts the rows of a collection matching equals.
func Where(key string, c Counter, equals map[string]any) Metric {
	return Metric{Key: key, Source: c, Filter: repo.Filter{Equals: equals}}
}

type Dashboard struct {
	Counts      map[string]int64 `json:"counts"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	metrics []Metric
	now     func() time.Time
}

func NewService(metrics ...Metric) (Service, error) {
	seen := make(map[string]struct{}, len(metrics))
	for _, m := range metrics {
		if m.Source == nil {
			return nil, fmt.Errorf("metric %q has no source", m.Key)
		}
		if _, dup := seen[m.Key]; dup {
			return nil, fmt.Errorf("duplicate metric %q", m.Key)
		}
		seen[m.Key] = struct{}{}
	}
	return &service{metrics: metrics, now: time.Now}, nil
}

// Dashboard runs every count concurrently and fails if any one fails.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	counts := make([]int64, len(s.metrics))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range s.metrics {
		g.Go(func() error {
			n, err := m.Source.Count(gctx, m.Filter)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(s.metrics))
	for i, m := range s.metrics {
		out[m.Key] = counts[i]
	}
	return &Dashboard{Counts: out, GeneratedAt: s.now().UTC()}, nil
}
