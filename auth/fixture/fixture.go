// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"sync"
	stdlibtime "time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal/google"
	"github.com/aarontxz/promptly/auth/internal/kdf"
	"github.com/aarontxz/promptly/auth/internal/session"
	"github.com/aarontxz/promptly/log"
)

//nolint:gochecknoglobals // We're using lazy stateless singletons for the whole testing runtime.
var (
	globalKey *rsa.PrivateKey
	singleton = new(sync.Once)
)

func signingKey() *rsa.PrivateKey {
	singleton.Do(func() {
		globalKey = NewRSAKey()
	})

	return globalKey
}

func NewRSAKey() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	log.Panic(errors.Wrap(err, "failed to generate rsa key")) //nolint:revive // Intended.

	return key
}

// KeySet verifies every assertion signed by SignGoogleAssertion.
func KeySet() oidc.KeySet {
	return &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&signingKey().PublicKey}}
}

// JWKS is the key set document a remote key set needs to verify what SignGoogleAssertion signs.
func JWKS() []byte {
	body, err := json.Marshal(jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &signingKey().PublicKey,
		KeyID:     KeyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}})
	log.Panic(errors.Wrap(err, "failed to marshal jwks")) //nolint:revive // Intended.

	return body
}

// SignRawGoogleAssertion signs payload as is, so it does not have to be a claim set.
func SignRawGoogleAssertion(payload []byte) string {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: signingKey()},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader(jose.HeaderKey("kid"), KeyID))
	log.Panic(errors.Wrap(err, "failed to build signer")) //nolint:revive // Intended.
	jws, err := signer.Sign(payload)
	log.Panic(errors.Wrap(err, "failed to sign raw assertion"))
	token, err := jws.CompactSerialize()
	log.Panic(errors.Wrap(err, "failed to serialize raw assertion"))

	return token
}

// NewGoogleAssertion builds a valid claim set issued at now for Audience.
func NewGoogleAssertion(now stdlibtime.Time, subject, email, name string) *GoogleAssertion {
	return &GoogleAssertion{
		RegisteredClaims: &jwt.RegisteredClaims{
			Issuer:    google.IssuerURL,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(stdlibtime.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
		Name:  name,
	}
}

func SignGoogleAssertion(claims *GoogleAssertion) string {
	return SignGoogleAssertionWith(signingKey(), claims)
}

func SignGoogleAssertionWith(key *rsa.PrivateKey, claims *GoogleAssertion) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString(key)
	log.Panic(errors.Wrap(err, "failed to sign google assertion")) //nolint:revive // Intended.

	return signed
}

// GoogleAssertionToken is a shortcut for a valid signed assertion issued at now.
func GoogleAssertionToken(now stdlibtime.Time, subject, email, name string) string {
	return SignGoogleAssertion(NewGoogleAssertion(now, subject, email, name))
}

// SessionToken mints a NextAuth-style session token under secret.
func SessionToken(secret string, claims map[string]any) string {
	codec, err := session.New(kdf.Derive([]byte(secret), []byte(kdf.NextAuthLabel)), nil)
	log.Panic(errors.Wrap(err, "failed to build session codec")) //nolint:revive // Intended.
	token, err := codec.Encrypt(claims)
	log.Panic(errors.Wrap(err, "failed to encrypt session token"))

	return token
}
