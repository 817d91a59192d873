// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"sync/atomic"
	stdlibtime "time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	appCfg "github.com/aarontxz/promptly/config"
	"github.com/aarontxz/promptly/log"
)

func MustConnect(ctx context.Context, ddl DDL, applicationYAMLKey string) *DB {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	db, err := Connect(ctx, &cfg.Storage, ddl)
	log.Panic(errors.Wrapf(err, "failed to connect to storage configured under %q", applicationYAMLKey)) //nolint:revive // Intended.

	return db
}

func Connect(ctx context.Context, cfg *Config, ddl DDL) (*DB, error) {
	if cfg.PrimaryURL == "" {
		return nil, errors.New("storage primaryURL is required")
	}
	master, err := connectPool(ctx, cfg.PrimaryURL, cfg.ConnectTimeout)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to primary")
	}
	replicas := make([]*pgxpool.Pool, 0, len(cfg.ReplicaURLs))
	for _, url := range cfg.ReplicaURLs {
		replica, rErr := connectPool(ctx, url, cfg.ConnectTimeout)
		if rErr != nil {
			master.Close()
			closePools(replicas)

			return nil, errors.Wrap(rErr, "failed to connect to replica")
		}
		replicas = append(replicas, replica)
	}
	db := &DB{master: master, lb: &lb{replicas: replicas}}
	if ddl != nil && cfg.RunDDL {
		if fsDDL, ok := ddl.(*filesystemDDL); ok && fsDDL.SchemaTable == "" {
			fsDDL.SchemaTable = cfg.SchemaTable
		}
		if err = ddl.run(ctx, master); err != nil {
			db.Close()

			return nil, errors.Wrap(err, "failed to apply DDL")
		}
	}

	return db, nil
}

func connectPool(ctx context.Context, url string, timeout stdlibtime.Duration) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse pool config")
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		var res int
		if qErr := conn.QueryRow(ctx, `SELECT 1`).Scan(&res); qErr != nil {
			return errors.Wrapf(qErr, "dummy select failed")
		}
		if res != 1 {
			return errors.New("db validation failed")
		}

		return nil
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start pool")
	}
	if err = waitUntilReady(ctx, pool, timeout); err != nil {
		pool.Close()

		return nil, err
	}

	return pool, nil
}

func waitUntilReady(ctx context.Context, pool *pgxpool.Pool, timeout stdlibtime.Duration) error {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = timeout

	return errors.Wrap(backoff.RetryNotify(
		func() error { return pool.Ping(ctx) }, //nolint:wrapcheck // Wrapped below.
		backoff.WithContext(policy, ctx),
		func(err error, next stdlibtime.Duration) {
			log.Warn("storage not ready yet", "retryIn", next, "error", err.Error())
		},
	), "storage did not become ready")
}

func (db *DB) Ping(ctx context.Context) error {
	return errors.Wrap(db.primary().Ping(ctx), "primary ping failed")
}

func (db *DB) Close() {
	closePools(db.lb.replicas)
	db.master.Close()
}

func closePools(pools []*pgxpool.Pool) {
	for _, pool := range pools {
		pool.Close()
	}
}

func (db *DB) primary() *pgxpool.Pool {
	return db.master
}

func (db *DB) replica() *pgxpool.Pool {
	if len(db.lb.replicas) == 0 {
		return db.master
	}

	return db.lb.replicas[atomic.AddUint64(&db.lb.currentIndex, 1)%uint64(len(db.lb.replicas))]
}
