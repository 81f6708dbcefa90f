package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay-chat/internal/model"
	"relay-chat/internal/repository"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	session := model.NewSession("hello")
	require.NoError(t, store.Create(ctx, session))
	assert.Error(t, store.Create(ctx, session), "duplicate ids are rejected")
	assert.Equal(t, 1, store.Count(ctx))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, session.ID), repository.ErrNotFound)
	assert.Zero(t, store.Count(ctx))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := model.NewSession("hello")
			assert.NoError(t, store.Create(ctx, s))
			_, err := store.Get(ctx, s.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, store.Count(ctx))
}
