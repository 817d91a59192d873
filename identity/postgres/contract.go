// SPDX-License-Identifier: ice License 1.0

package postgres

import (
	"embed"

	"github.com/aarontxz/promptly/connectors/storage"
)

// Public API.

type (
	Store struct {
		db *storage.DB
	}
)

// Private API.

const (
	schemaTable    = "identity_schema_migrations"
	upsertAttempts = 2
	columns        = `id, email, name, provider_id, picture, is_active, created_at, updated_at`
)

var (
	//go:embed migrations/*.sql
	migrations embed.FS
)
