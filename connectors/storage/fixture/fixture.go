// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // Registers the pgx driver used by wait.ForSQL.
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aarontxz/promptly/log"
)

func New(ctx context.Context, opts ...Option) *Container {
	customizers := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase(pgDatabase),
		postgres.WithUsername(pgUser),
		postgres.WithPassword(pgPass),
		testcontainers.WithWaitStrategyAndDeadline(
			startupTimeout*time.Minute,
			wait.ForExposedPort(),
			wait.ForSQL(nat.Port(dbPort), "pgx", func(host string, port nat.Port) string {
				return connectionURL(host, port.Port(), pgDatabase)
			}),
		),
	}
	for i := range opts {
		customizers = append(customizers, opts[i])
	}
	container, err := postgres.Run(ctx, pgImage, customizers...)
	if err != nil {
		log.Panic("failed to start postgres container: " + err.Error())
	}

	return &Container{
		container: container,
		seed:      uint64(time.Now().UnixMilli()), //nolint:gosec // Positive.
	}
}

// MustStart starts a throwaway postgres for t, skipping t when no container runtime is reachable.
func MustStart(t *testing.T, opts ...Option) *Container {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	c := New(t.Context(), opts...)
	t.Cleanup(func() {
		//nolint:usetesting // t.Context() is already cancelled during cleanup.
		if err := c.Close(context.Background()); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})

	return c
}

func (c *Container) ConnectionString(ctx context.Context, dbName string) string {
	containerPort, err := c.container.MappedPort(ctx, dbPort)
	if err != nil {
		log.Panic("failed to get mapped port: " + err.Error())
	}
	host, err := c.container.Host(ctx)
	if err != nil {
		log.Panic("failed to get container host: " + err.Error())
	}
	if dbName == "" {
		dbName = pgDatabase
	}

	return connectionURL(host, containerPort.Port(), dbName)
}

func (c *Container) Close(ctx context.Context) error {
	return c.container.Terminate(ctx) //nolint:wrapcheck // Test helper.
}

// MustTempDB creates an isolated database cloned from the default one and returns its connection string.
func (c *Container) MustTempDB(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := pgx.Connect(ctx, c.ConnectionString(ctx, pgDatabase))
	if err != nil {
		log.Panic("failed to connect to postgres container: " + err.Error())
	}
	defer conn.Close(ctx)

	dbName := tempDBPrefix + strconv.FormatUint(atomic.AddUint64(&c.seed, 1), 10)
	if _, err = conn.Exec(ctx, `CREATE DATABASE `+dbName+` TEMPLATE `+pgDatabase); err != nil {
		log.Panic("failed to create temp database: " + err.Error())
	}

	return c.ConnectionString(ctx, dbName)
}

func connectionURL(host, port, dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(pgUser, pgPass),
		Host:   net.JoinHostPort(host, port),
		Path:   dbName,
	}

	return u.String()
}
