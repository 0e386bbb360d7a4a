package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/errors"
)

func TestCacheWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)

	// Reads degrade to misses, but a write must fail so state a caller
	// intends to read back is never dropped on the floor.
	var dest string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	require.ErrorIs(t, repo.Set(context.Background(), "k", "v", time.Minute), appErrors.ErrCacheUnavailable)

	assert.NoError(t, repo.Delete(context.Background(), "k"))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "k:*"))
	assert.NoError(t, repo.Close())
}
