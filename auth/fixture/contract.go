// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"github.com/golang-jwt/jwt/v5"
)

// Public API.

const (
	Audience      = "promptly-test.apps.googleusercontent.com"
	SigningSecret = "fixture-signing-secret-0123456789abcdef"
	SessionSecret = "fixture-nextauth-secret"
	KeyID         = "fixture"
)

type (
	// GoogleAssertion is the claim set of a Google ID token.
	GoogleAssertion struct {
		*jwt.RegisteredClaims
		Picture *string `json:"picture,omitempty"`
		Email   string  `json:"email,omitempty"`
		Name    string  `json:"name,omitempty"`
	}
)

// Private API.

const (
	rsaKeyBits = 2048
)
