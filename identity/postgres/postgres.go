// SPDX-License-Identifier: ice License 1.0

package postgres

import (
	"context"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/connectors/storage"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/log"
	"github.com/aarontxz/promptly/time"
)

var _ identity.Store = (*Store)(nil)

// DDL returns the versioned migrations creating the users table.
func DDL() storage.DDL {
	sub, err := fs.Sub(migrations, "migrations")
	log.Panic(errors.Wrap(err, "embedded migrations are missing")) //nolint:revive // Can't happen.

	return storage.NewFilesystemDDL(sub, schemaTable)
}

func New(db *storage.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByID(ctx context.Context, id int64) (*identity.Identity, error) {
	usr, err := storage.Get[identity.Identity](ctx, s.db, `SELECT `+columns+` FROM users WHERE id = $1`, id)

	return usr, errors.Wrapf(notFound(err), "failed to find identity by id %v", id)
}

func (s *Store) FindByProviderID(ctx context.Context, providerID string) (*identity.Identity, error) {
	usr, err := storage.Get[identity.Identity](ctx, s.db, `SELECT `+columns+` FROM users WHERE provider_id = $1`, providerID)

	return usr, errors.Wrap(notFound(err), "failed to find identity by provider id")
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	usr, err := storage.Get[identity.Identity](ctx, s.db, `SELECT `+columns+` FROM users WHERE email = $1`, email)

	return usr, errors.Wrap(notFound(err), "failed to find identity by email")
}

// Upsert runs under read committed. A lost race on a unique column is retried once; the retry finds the winner's row.
func (s *Store) Upsert(ctx context.Context, profile *identity.Profile, mode identity.UpsertMode) (*identity.Identity, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	var (
		result *identity.Identity
		err    error
	)
	for attempt := range upsertAttempts {
		if result, err = s.upsert(ctx, profile, mode); err == nil || !errors.Is(err, storage.ErrDuplicate) {
			break
		}
		log.Debug("identity upsert lost a unique race", "attempt", attempt+1)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to upsert identity in mode %v", mode)
	}

	return result, nil
}

func (s *Store) upsert(ctx context.Context, profile *identity.Profile, mode identity.UpsertMode) (*identity.Identity, error) {
	var result *identity.Identity
	err := storage.DoInTransaction(ctx, s.db, pgx.ReadCommitted, func(conn storage.QueryExecer) error {
		existing, err := lockExisting(ctx, conn, profile)
		switch {
		case err == nil && !existing.IsActive:
			result = existing

			return nil
		case err == nil:
			result, err = update(ctx, conn, existing.ID, profile)

			return err
		case !errors.Is(err, storage.ErrNotFound):
			return err
		case mode != identity.CreateOrUpdate:
			return errors.Wrapf(identity.ErrNotFound, "no identity matched and mode is %v", mode)
		default:
			result, err = insert(ctx, conn, profile)

			return err
		}
	})

	return result, err //nolint:wrapcheck // Wrapped by Upsert.
}

func lockExisting(ctx context.Context, conn storage.Querier, profile *identity.Profile) (*identity.Identity, error) {
	if profile.ProviderID != "" {
		usr, err := storage.Get[identity.Identity](ctx, conn, `SELECT `+columns+` FROM users WHERE provider_id = $1 FOR UPDATE`, profile.ProviderID)
		if err == nil || !errors.Is(err, storage.ErrNotFound) {
			return usr, err
		}
	}
	if profile.Email == "" {
		return nil, storage.ErrNotFound
	}

	return storage.Get[identity.Identity](ctx, conn, `SELECT `+columns+` FROM users WHERE email = $1 FOR UPDATE`, profile.Email)
}

func update(ctx context.Context, conn storage.Querier, id int64, profile *identity.Profile) (*identity.Identity, error) {
	sql := `UPDATE users
			SET name        = COALESCE(NULLIF($2::text, ''), name),
				picture     = COALESCE($3::text, picture),
				provider_id = COALESCE(NULLIF($4::text, ''), provider_id),
				updated_at  = $5
			WHERE id = $1
			RETURNING ` + columns

	return storage.ExecOne[identity.Identity](ctx, conn, sql, id, profile.Name, profile.Picture, profile.ProviderID, *time.Now().Time)
}

// The conflict clause covers a concurrent insert of the same email between the lookup and this statement.
func insert(ctx context.Context, conn storage.Querier, profile *identity.Profile) (*identity.Identity, error) {
	if profile.Email == "" {
		return nil, errors.Wrap(identity.ErrInvalidProfile, "email is required to provision an identity")
	}
	sql := `INSERT INTO users (email, name, provider_id, picture, is_active, created_at, updated_at)
			VALUES ($1, $2, NULLIF($3::text, ''), $4::text, TRUE, $5, $5)
			ON CONFLICT (email) DO UPDATE
				SET name        = COALESCE(NULLIF($6::text, ''), users.name),
					picture     = COALESCE(EXCLUDED.picture, users.picture),
					provider_id = COALESCE(EXCLUDED.provider_id, users.provider_id),
					updated_at  = EXCLUDED.updated_at
			RETURNING ` + columns

	return storage.ExecOne[identity.Identity](ctx, conn, sql,
		profile.Email, profile.DisplayName(), profile.ProviderID, profile.Picture, *time.Now().Time, profile.Name)
}

func notFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return identity.ErrNotFound
	}

	return err
}
