// SPDX-License-Identifier: ice License 1.0

package postgres

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarontxz/promptly/connectors/storage"
	"github.com/aarontxz/promptly/connectors/storage/fixture"
	"github.com/aarontxz/promptly/identity"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	container := fixture.MustStart(t)
	db, err := storage.Connect(t.Context(), &storage.Config{PrimaryURL: container.MustTempDB(t.Context()), RunDDL: true}, DDL())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return New(db)
}

func TestUpsertLifecycle(t *testing.T) { //nolint:funlen // It's a scenario.
	t.Parallel()
	ctx := t.Context()
	store := newStore(t)

	_, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-123", Email: "jdoe@example.com"}, identity.UpdateOnly)
	require.ErrorIs(t, err, identity.ErrNotFound)

	created, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-123", Email: "jdoe@example.com"}, identity.CreateOrUpdate)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "jdoe@example.com", created.Name)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.CreatedAt)
	require.NotNil(t, created.ProviderID)
	assert.Equal(t, "g-123", *created.ProviderID)
	assert.Nil(t, created.Picture)

	picture := "https://example.com/a.png"
	updated, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-123", Email: "jdoe@example.com", Name: "John", Picture: &picture}, identity.CreateOrUpdate)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "John", updated.Name)
	require.NotNil(t, updated.Picture)
	assert.Equal(t, picture, *updated.Picture)

	kept, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-123"}, identity.UpdateOnly)
	require.NoError(t, err)
	assert.Equal(t, "John", kept.Name)
	assert.Equal(t, picture, *kept.Picture)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", byID.Email)
	byEmail, err := store.FindByEmail(ctx, "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)
	byProvider, err := store.FindByProviderID(ctx, "g-123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byProvider.ID)

	_, err = store.FindByID(ctx, created.ID+1000)
	require.ErrorIs(t, err, identity.ErrNotFound)
	_, err = store.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, identity.ErrNotFound)
}

func TestUpsertLinksProviderByEmail(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newStore(t)

	created, err := store.Upsert(ctx, &identity.Profile{Email: "jdoe@example.com", Name: "John"}, identity.CreateOrUpdate)
	require.NoError(t, err)
	assert.Nil(t, created.ProviderID)

	linked, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-9", Email: "jdoe@example.com"}, identity.UpdateOnly)
	require.NoError(t, err)
	assert.Equal(t, created.ID, linked.ID)
	require.NotNil(t, linked.ProviderID)
	assert.Equal(t, "g-9", *linked.ProviderID)
	assert.Equal(t, "John", linked.Name)
}

func TestUpsertLeavesInactiveIdentityUntouched(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newStore(t)

	created, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-7", Email: "jdoe@example.com", Name: "John"}, identity.CreateOrUpdate)
	require.NoError(t, err)
	deactivated, err := storage.ExecOne[identity.Identity](ctx, store.db, `UPDATE users SET is_active = FALSE WHERE id = $1 RETURNING `+columns, created.ID)
	require.NoError(t, err)

	picture := "https://example.com/a.png"
	got, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-7", Email: "jdoe@example.com", Name: "Johnny", Picture: &picture}, identity.CreateOrUpdate)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.IsActive)
	assert.Equal(t, "John", got.Name)
	assert.Nil(t, got.Picture)
	assert.True(t, deactivated.UpdatedAt.Equal(*got.UpdatedAt.Time))
}

func TestConcurrentUpsertsDoNotDuplicate(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := newStore(t)

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	errs := make([]error, workers)
	for ix := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			usr, err := store.Upsert(ctx, &identity.Profile{ProviderID: "g-1", Email: "jdoe@example.com"}, identity.CreateOrUpdate)
			if errs[ix] = err; err == nil {
				ids[ix] = usr.ID
			}
		}()
	}
	wg.Wait()
	for ix := range workers {
		require.NoError(t, errs[ix])
		assert.Equal(t, ids[0], ids[ix])
	}

	usr, err := store.FindByEmail(ctx, "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, ids[0], usr.ID)
}
