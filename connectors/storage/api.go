// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/terror"
)

type (
	Querier interface {
		pgxscan.Querier
	}
	Execer interface {
		Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error)
	}
	QueryExecer interface {
		Querier
		Execer
	}
)

func DoInTransaction(ctx context.Context, db *DB, isoLevel pgx.TxIsoLevel, fn func(conn QueryExecer) error) error {
	txOptions := pgx.TxOptions{IsoLevel: isoLevel, AccessMode: pgx.ReadWrite, DeferrableMode: pgx.NotDeferrable}

	return pgx.BeginTxFunc(ctx, db.primary(), txOptions, func(tx pgx.Tx) error { return fn(tx) }) //nolint:wrapcheck // We have nothing relevant to wrap.
}

func Get[T any](ctx context.Context, db Querier, sql string, args ...any) (*T, error) {
	if pool, ok := db.(*DB); ok {
		db = pool.replica() //nolint:revive // Not an issue here.
	}
	resp := new(T)
	if err := pgxscan.Get(ctx, db, resp, sql, args...); err != nil {
		return nil, parseDBError(err)
	}

	return resp, nil
}

func ExecOne[T any](ctx context.Context, db Querier, sql string, args ...any) (*T, error) {
	if pool, ok := db.(*DB); ok {
		db = pool.primary() //nolint:revive // Not an issue here.
	}
	resp := new(T)
	if err := pgxscan.Get(ctx, db, resp, sql, args...); err != nil {
		return nil, parseDBError(err)
	}

	return resp, nil
}

func (db *DB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return db.replica().Query(ctx, sql, args...) //nolint:wrapcheck // Proxy.
}

func (db *DB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return db.primary().Exec(ctx, sql, args...) //nolint:wrapcheck // Proxy.
}

func IsErr(err, target error, column ...string) bool {
	if !errors.Is(err, target) {
		return false
	}
	if tErr := terror.As(err); tErr != nil && len(column) == 1 && column[0] != "" {
		if found := tErr.Column(); found != "" {
			return found == column[0]
		}
	}

	return true
}

func parseDBError(err error) error {
	var dbErr *pgconn.PgError
	if errors.As(err, &dbErr) {
		switch dbErr.SQLState() {
		case pgerrcode.UniqueViolation:
			if strings.HasSuffix(dbErr.ConstraintName, "_pkey") {
				return terror.WithColumn(ErrDuplicate, "pk")
			}

			return terror.WithColumn(ErrDuplicate, constraintColumn(dbErr, "_key"))
		case pgerrcode.ForeignKeyViolation:
			return terror.WithColumn(ErrRelationNotFound, constraintColumn(dbErr, "_fkey"))
		default:
			return err
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	return err
}

func constraintColumn(dbErr *pgconn.PgError, suffix string) string {
	column := strings.TrimPrefix(dbErr.ConstraintName, dbErr.TableName)
	column = strings.TrimSuffix(column, suffix)

	return strings.ReplaceAll(column, "_", "")
}
