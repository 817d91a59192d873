// SPDX-License-Identifier: ice License 1.0

package storage

import (
	"context"
	"io/fs"
	stdlibtime "time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// Public API.

var (
	ErrNotFound         = errors.New("not found")
	ErrRelationNotFound = errors.New("relation not found")
	ErrDuplicate        = errors.New("duplicate")
)

type (
	DB struct {
		master *pgxpool.Pool
		lb     *lb
	}
	// DDL brings the schema up to date on the primary before the pool is handed out.
	DDL interface {
		run(ctx context.Context, pool *pgxpool.Pool) error
	}
	Config struct {
		PrimaryURL     string              `yaml:"primaryURL" mapstructure:"primaryURL"`         //nolint:tagliatelle // Nope.
		SchemaTable    string              `yaml:"schemaTable" mapstructure:"schemaTable"`       //nolint:tagliatelle // Nope.
		ReplicaURLs    []string            `yaml:"replicaURLs" mapstructure:"replicaURLs"`       //nolint:tagliatelle // Nope.
		ConnectTimeout stdlibtime.Duration `yaml:"connectTimeout" mapstructure:"connectTimeout"` //nolint:tagliatelle // Nope.
		RunDDL         bool                `yaml:"runDDL" mapstructure:"runDDL"`                 //nolint:tagliatelle // Nope.
	}
)

// Private API.

const (
	defaultConnectTimeout = 30 * stdlibtime.Second
	defaultSchemaTable    = "promptly_schema_migrations"
	statementSeparator    = "----"
)

type (
	lb struct {
		replicas     []*pgxpool.Pool
		currentIndex uint64
	}
	config struct {
		Storage Config `yaml:"storage" mapstructure:"storage"`
	}
	stringDDL struct {
		Data string
	}
	filesystemDDL struct {
		FS          fs.FS
		SchemaTable string
	}
)
