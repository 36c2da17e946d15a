package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isolele/isolele-backend/internal/repo"
	"github.com/isolele/isolele-backend/pkg/db/dbtest"
	"github.com/isolele/isolele-backend/pkg/db/models"
	"github.com/isolele/isolele-backend/pkg/enums"
)

func TestDashboardCountsCollections(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	articles := repo.NewTable[models.Article](conn, repo.TableOptions{Columns: []string{"status"}})
	subscribers := repo.NewTable[models.NewsletterSubscriber](conn, repo.TableOptions{})

	require.NoError(t, conn.Create(&models.Article{Slug: "one", TitleEN: "One", Status: enums.ArticleStatusPublished}).Error)
	require.NoError(t, conn.Create(&models.Article{Slug: "two", TitleEN: "Two", Status: enums.ArticleStatusDraft}).Error)
	require.NoError(t, conn.Create(&models.NewsletterSubscriber{Email: "a@example.com", Locale: "en"}).Error)

	svc, err := NewService(
		Total(articles),
		Where("published_articles", articles, map[string]any{"status": enums.ArticleStatusPublished}),
		Total(subscribers),
	)
	require.NoError(t, err)

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		"articles":               2,
		"published_articles":     1,
		"newsletter_subscribers": 1,
	}, dash.Counts)
	assert.False(t, dash.GeneratedAt.IsZero())
}

type failingCounter struct{}

func (failingCounter) Name() string { return "broken" }

func (failingCounter) Count(context.Context, repo.Filter) (int64, error) {
	return 0, errors.New("db down")
}

func TestDashboardPropagatesErrors(t *testing.T) {
	svc, err := NewService(Total(failingCounter{}))
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestNewServiceRejectsDuplicates(t *testing.T) {
	_, err := NewService(Total(failingCounter{}), Total(failingCounter{}))
	assert.Error(t, err)
}
