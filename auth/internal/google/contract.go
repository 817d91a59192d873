// SPDX-License-Identifier: ice License 1.0

package google

import (
	stdlibtime "time"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/aarontxz/promptly/auth/internal"
)

// Public API.

const (
	IssuerNoScheme      = "accounts.google.com"
	IssuerURL           = "https://accounts.google.com"
	DefaultCertsURL     = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultFetchTimeout = 10 * stdlibtime.Second
)

type (
	// Verifier checks Google ID tokens against Google's published signing keys.
	Verifier struct {
		verifier *oidc.IDTokenVerifier
		clock    internal.Clock
		audience string
	}
)

// Private API.

var (
	//nolint:gochecknoglobals // Read only.
	issuers = []string{IssuerNoScheme, IssuerURL}
)

type (
	assertionClaims struct {
		Exp     *float64 `json:"exp"`
		Nbf     *float64 `json:"nbf"`
		Picture *string  `json:"picture"`
		Email   string   `json:"email"`
		Name    string   `json:"name"`
	}
)
