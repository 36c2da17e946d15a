package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsRunOrderAndCopies(t *testing.T) {
	reindex := &testJob{name: "reindex"}
	expiry := &testJob{name: "order-ttl"}
	registry, err := NewRegistry(reindex, nil, expiry)
	require.NoError(t, err)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, reindex, jobs[0])
	assert.Same(t, expiry, jobs[1])
	assert.Equal(t, []string{"reindex", "order-ttl"}, registry.Names())

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateAndBlankNames(t *testing.T) {
	_, err := NewRegistry(&testJob{name: "reindex"}, &testJob{name: "reindex"})
	assert.Error(t, err)

	registry, err := NewRegistry()
	require.NoError(t, err)
	assert.Error(t, registry.Register(&testJob{}))
	assert.Empty(t, registry.Jobs())
}
