package newsletter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isolele/isolele-backend/pkg/db/dbtest"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
	"github.com/isolele/isolele-backend/pkg/i18n"
	"github.com/isolele/isolele-backend/pkg/pagination"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, "Fan@Example.com", i18n.LocaleFR)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "fan@example.com", first.Subscriber.Email)
	assert.Equal(t, "fr", first.Subscriber.Locale)

	again, err := svc.Subscribe(ctx, " fan@example.com ", i18n.LocaleEN)
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, first.Subscriber.ID, again.Subscriber.ID)
	assert.Equal(t, "fr", again.Subscriber.Locale)

	total, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestSubscribeRejectsBadEmail(t *testing.T) {
	svc := newTestService(t)
	for _, bad := range []string{"", "nope", "Fan <fan@example.com>"} {
		_, err := svc.Subscribe(context.Background(), bad, i18n.LocaleEN)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), bad)
	}
}

func TestSubscribeDefaultsUnknownLocale(t *testing.T) {
	svc := newTestService(t)
	res, err := svc.Subscribe(context.Background(), "a@example.com", "de")
	require.NoError(t, err)
	assert.Equal(t, "en", res.Subscriber.Locale)
}

func TestListSearchAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a, err := svc.Subscribe(ctx, "alpha@example.com", i18n.LocaleEN)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "beta@example.org", i18n.LocaleEN)
	require.NoError(t, err)

	res, err := svc.List(ctx, "example.org", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, res.Subscribers, 1)
	assert.Equal(t, "beta@example.org", res.Subscribers[0].Email)

	require.NoError(t, svc.Delete(ctx, a.Subscriber.ID))
	assert.True(t, pkgerrors.Is(svc.Delete(ctx, a.Subscriber.ID), pkgerrors.CodeNotFound))
}
