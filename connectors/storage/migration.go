// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/log"
)

func NewStringDDL(ddl string) DDL {
	return &stringDDL{Data: ddl}
}

// NewFilesystemDDL applies numbered tern migrations (`001_name.sql`) found at the root of fsys.
func NewFilesystemDDL(fsys fs.FS, schemaTableName string) DDL {
	return &filesystemDDL{FS: fsys, SchemaTable: schemaTableName}
}

func (d *stringDDL) run(ctx context.Context, pool *pgxpool.Pool) error {
	for _, statement := range strings.Split(d.Data, statementSeparator) {
		if strings.TrimSpace(statement) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, statement); err != nil {
			return errors.Wrapf(err, "failed to execute DDL statement: %v", statement)
		}
	}

	return nil
}

func (d *filesystemDDL) run(ctx context.Context, pool *pgxpool.Pool) error {
	schemaTable := d.SchemaTable
	if schemaTable == "" {
		schemaTable = defaultSchemaTable
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, "cannot acquire connection for migration")
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), schemaTable)
	if err != nil {
		return errors.Wrap(err, "cannot create migrator")
	}
	if err = m.LoadMigrations(d.FS); err != nil {
		return errors.Wrap(err, "cannot load migrations from fs")
	}
	if v, vErr := m.GetCurrentVersion(ctx); vErr == nil {
		log.Info(fmt.Sprintf("current schema version: %d of %d", v, len(m.Migrations)))
	}
	m.OnStart = func(sequence int32, name, direction, _ string) {
		log.Info(fmt.Sprintf("starting migration: %d: %s: %s", sequence, name, direction))
	}

	return errors.Wrap(m.Migrate(ctx), "migration failed")
}
