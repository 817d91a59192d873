// SPDX-License-Identifier: ice License 1.0

package identity

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/time"
)

// Public API.

const (
	// UpdateOnly refreshes an existing identity and never provisions a new one.
	UpdateOnly UpsertMode = iota
	// CreateOrUpdate provisions the identity when no record matches.
	CreateOrUpdate
)

var (
	ErrNotFound       = errors.New("identity not found")
	ErrInvalidProfile = errors.New("invalid identity profile")
)

type (
	UpsertMode uint8
	Identity   struct {
		CreatedAt  *time.Time `json:"createdAt,omitempty" db:"created_at"`
		UpdatedAt  *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
		ProviderID *string    `json:"providerId,omitempty" db:"provider_id"`
		Picture    *string    `json:"picture,omitempty" db:"picture"`
		Email      string     `json:"email" db:"email"`
		Name       string     `json:"name" db:"name"`
		ID         int64      `json:"id" db:"id"`
		IsActive   bool       `json:"isActive" db:"is_active"`
	}
	// Profile is the normalized, verified view of a caller that is synced into the store.
	Profile struct {
		Picture    *string
		ProviderID string
		Email      string
		Name       string
	}
	// Store must be safe for concurrent use. Upsert is atomic: it either commits fully or leaves no trace.
	Store interface {
		FindByID(ctx context.Context, id int64) (*Identity, error)
		FindByProviderID(ctx context.Context, providerID string) (*Identity, error)
		FindByEmail(ctx context.Context, email string) (*Identity, error)
		// Upsert looks the profile up by provider id first, then by email.
		// An active match gets its name, picture and provider id refreshed; an inactive one is returned as stored.
		// No match is provisioned only in CreateOrUpdate mode.
		Upsert(ctx context.Context, profile *Profile, mode UpsertMode) (*Identity, error)
	}
)
