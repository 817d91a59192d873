// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"sync"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Public API.

type (
	Container struct {
		container *postgres.PostgresContainer
		seed      uint64
		mu        sync.Mutex
	}
	Option = testcontainers.CustomizeRequestOption
)

// Private API.

const (
	pgImage        = "postgres:17-alpine"
	pgUser         = "postgres"
	pgPass         = "postgres"
	pgDatabase     = "postgres"
	dbPort         = "5432/tcp"
	tempDBPrefix   = "promptlytest"
	startupTimeout = 1 // In minutes.
)
