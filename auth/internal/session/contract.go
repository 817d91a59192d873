// SPDX-License-Identifier: ice License 1.0

package session

import (
	"github.com/go-jose/go-jose/v4"

	"github.com/aarontxz/promptly/auth/internal"
)

// Public API.

// Issuer is reported on claims decoded from session tokens.
const Issuer = "nextauth"

type (
	// Codec decrypts NextAuth-style session tokens: compact JWE, alg=dir, enc=A256GCM.
	Codec struct {
		clock internal.Clock
		key   []byte
	}
)

// Private API.

const (
	compactSegments = 5
)

var (
	//nolint:gochecknoglobals // Read only allow-lists.
	keyAlgorithms = []jose.KeyAlgorithm{jose.DIRECT}
	//nolint:gochecknoglobals // Read only allow-lists.
	contentEncryptions = []jose.ContentEncryption{jose.A256GCM}
)

type (
	// Field names follow the NextAuth JWT callback payload.
	payload struct {
		Picture *string  `json:"picture"`
		Exp     *float64 `json:"exp"`
		ID      string   `json:"id"`
		Sub     string   `json:"sub"`
		Email   string   `json:"email"`
		Name    string   `json:"name"`
	}
)
