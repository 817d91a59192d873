// SPDX-License-Identifier: ice License 1.0

package bearer

import (
	stdlibtime "time"

	"github.com/aarontxz/promptly/auth/internal"
)

// Public API.

const (
	Issuer     = "promptly.api"
	DefaultTTL = 15 * stdlibtime.Minute
)

type (
	// Service issues and verifies self-signed HS256 access tokens. Tokens are stateless; there is no revocation.
	Service struct {
		clock  internal.Clock
		secret []byte
	}
)

// Private API.

const (
	claimEmail = "email"
)

var (
	//nolint:gochecknoglobals // Read only.
	validMethods = []string{"HS256"}
	//nolint:gochecknoglobals // Read only.
	registeredClaims = map[string]struct{}{"sub": {}, "iss": {}, "iat": {}, "nbf": {}, "exp": {}, "jti": {}, "aud": {}}
)
