// SPDX-License-Identifier: ice License 1.0

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarontxz/promptly/time"
)

func TestProfileNewIdentity(t *testing.T) {
	t.Parallel()

	now := time.Now()
	usr, err := (&Profile{ProviderID: "g-1", Email: "jdoe@example.com"}).NewIdentity(now)
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", usr.Name)
	assert.True(t, usr.IsActive)
	require.NotNil(t, usr.ProviderID)
	assert.Equal(t, "g-1", *usr.ProviderID)
	assert.Nil(t, usr.Picture)
	assert.Equal(t, now, usr.CreatedAt)
	assert.Equal(t, now, usr.UpdatedAt)

	_, err = (&Profile{ProviderID: "g-1"}).NewIdentity(now)
	require.ErrorIs(t, err, ErrInvalidProfile)
}

func TestProfileApplyToKeepsStoredValues(t *testing.T) {
	t.Parallel()

	picture, providerID := "https://example.com/a.png", "g-1"
	usr := &Identity{ID: 1, Email: "jdoe@example.com", Name: "John", Picture: &picture, ProviderID: &providerID}

	(&Profile{Email: "other@example.com"}).ApplyTo(usr, time.Now())
	assert.Equal(t, "John", usr.Name)
	assert.Equal(t, "jdoe@example.com", usr.Email)
	assert.Equal(t, &picture, usr.Picture)
	assert.Equal(t, &providerID, usr.ProviderID)

	newPicture := "https://example.com/b.png"
	(&Profile{ProviderID: "g-2", Name: "Johnny", Picture: &newPicture}).ApplyTo(usr, time.Now())
	assert.Equal(t, "Johnny", usr.Name)
	assert.Equal(t, newPicture, *usr.Picture)
	assert.Equal(t, "g-2", *usr.ProviderID)
	assert.Equal(t, "https://example.com/a.png", picture)
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (*Profile)(nil).Validate(), ErrInvalidProfile)
	require.ErrorIs(t, (&Profile{Name: "John"}).Validate(), ErrInvalidProfile)
	require.NoError(t, (&Profile{Email: "jdoe@example.com"}).Validate())
	require.NoError(t, (&Profile{ProviderID: "g-1"}).Validate())
}

func TestIdentityClone(t *testing.T) {
	t.Parallel()

	picture := "https://example.com/a.png"
	usr := &Identity{ID: 1, Picture: &picture}
	cp := usr.Clone()
	*cp.Picture = "changed"
	assert.Equal(t, "https://example.com/a.png", *usr.Picture)
	assert.Nil(t, (*Identity)(nil).Clone())
	assert.Equal(t, "update_only", UpdateOnly.String())
	assert.Equal(t, "create_or_update", CreateOrUpdate.String())
}
