package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isolele/isolele-backend/pkg/db/dbtest"
	pkgerrors "github.com/isolele/isolele-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func boolPtr(v bool) *bool { return &v }

func TestUpsertCreatesThenUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, UpsertInput{Key: "Hero.Title", Value: "Isolele", IsPublic: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, "hero.title", created.Key)
	assert.True(t, created.IsPublic)

	updated, err := svc.Upsert(ctx, UpsertInput{Key: "hero.title", Value: "Isolele Comics"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Isolele Comics", updated.Value)
	assert.True(t, updated.IsPublic, "visibility is kept when not supplied")

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPublicOnlyReturnsFlaggedSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertInput{Key: "contact_email", Value: "hello@isolele.com", IsPublic: boolPtr(true)})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, UpsertInput{Key: "indexnow_owner", Value: "ops"})
	require.NoError(t, err)

	public, err := svc.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"contact_email": "hello@isolele.com"}, public)
}

func TestDeleteAndKeyValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, UpsertInput{Key: "bad key!", Value: "x"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Upsert(ctx, UpsertInput{Key: "footer.note", Value: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "footer.note"))
	assert.True(t, pkgerrors.Is(svc.Delete(ctx, "footer.note"), pkgerrors.CodeNotFound))
}
