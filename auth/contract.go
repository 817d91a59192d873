// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"context"
	"net/http"
	stdlibtime "time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/auth/internal/bearer"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/time"
)

// Public API.

const (
	SchemeSession       = internal.SchemeSession
	SchemeBearer        = internal.SchemeBearer
	SchemeProvider      = internal.SchemeProvider
	SchemeTrustedHeader = internal.SchemeTrustedHeader
)

const (
	KindMalformed          = internal.KindMalformed
	KindCryptoInvalid      = internal.KindCryptoInvalid
	KindExpired            = internal.KindExpired
	KindWrongIssuer        = internal.KindWrongIssuer
	KindWrongAudience      = internal.KindWrongAudience
	KindSchemaInvalid      = internal.KindSchemaInvalid
	KindNoMatchingIdentity = internal.KindNoMatchingIdentity
	KindStoreUnavailable   = internal.KindStoreUnavailable
)

const (
	TokenType                = "bearer"
	BearerIssuer             = bearer.Issuer
	DefaultAccessTokenTTL    = bearer.DefaultTTL
	DefaultLoginTokenTTL     = 30 * stdlibtime.Minute
	DefaultTrustedHeaderName = "X-User-Email"
)

var (
	// ErrUnauthenticated is the only rejection callers ever see. The concrete cause is logged, never returned.
	ErrUnauthenticated = errors.New("not authenticated")

	ErrMalformed          = internal.ErrMalformed
	ErrCryptoInvalid      = internal.ErrCryptoInvalid
	ErrExpired            = internal.ErrExpired
	ErrWrongIssuer        = internal.ErrWrongIssuer
	ErrWrongAudience      = internal.ErrWrongAudience
	ErrSchemaInvalid      = internal.ErrSchemaInvalid
	ErrNoMatchingIdentity = internal.ErrNoMatchingIdentity
	ErrStoreUnavailable   = internal.ErrStoreUnavailable
)

type (
	Scheme = internal.Scheme
	Kind   = internal.Kind
	Claims = internal.Claims
	// Credentials is the raw credential material extracted from a request.
	Credentials struct {
		// Authorization is the full header value, `Bearer <token>`.
		Authorization string
		// TrustedEmail is honoured only when the trusted header mode is enabled.
		TrustedEmail      string
		ProviderAssertion string
	}
	AuthenticatedIdentity struct {
		Identity *identity.Identity `json:"user"`
		Scheme   Scheme             `json:"scheme"`
	}
	Login struct {
		ExpiresAt   *time.Time         `json:"expiresAt"`
		Identity    *identity.Identity `json:"user"`
		AccessToken string             `json:"accessToken"`
		TokenType   string             `json:"tokenType"`
	}
	Client interface {
		// Resolve returns the caller's identity, ErrUnauthenticated, an error wrapping ErrStoreUnavailable,
		// or the context error when ctx is done first.
		Resolve(ctx context.Context, credentials *Credentials) (*AuthenticatedIdentity, error)
		// Login verifies a provider assertion, syncs the identity and issues an access token for it.
		Login(ctx context.Context, assertion string) (*Login, error)
		// CredentialsFrom extracts the credential headers. The trusted header is read only when that mode is enabled.
		CredentialsFrom(header http.Header) *Credentials
		// IssueToken issues an access token for usr, valid for ttl or the configured access token TTL.
		IssueToken(usr *identity.Identity, ttl stdlibtime.Duration) (token string, expiresAt *time.Time, err error)
	}
	Config struct {
		Provider        ProviderConfig      `yaml:"provider" mapstructure:"provider"`
		TrustedHeader   TrustedHeaderConfig `yaml:"trustedHeader" mapstructure:"trustedHeader"`
		SigningSecret   string              `yaml:"signingSecret" mapstructure:"signingSecret"`
		SessionSecret   string              `yaml:"sessionSecret" mapstructure:"sessionSecret"`
		SessionKeyLabel string              `yaml:"sessionKeyLabel" mapstructure:"sessionKeyLabel"`
		AccessTokenTTL  stdlibtime.Duration `yaml:"accessTokenTTL" mapstructure:"accessTokenTTL"`
		LoginTokenTTL   stdlibtime.Duration `yaml:"loginTokenTTL" mapstructure:"loginTokenTTL"`
	}
	ProviderConfig struct {
		Audience     string              `yaml:"audience" mapstructure:"audience"`
		CertsURL     string              `yaml:"certsURL" mapstructure:"certsURL"`
		FetchTimeout stdlibtime.Duration `yaml:"fetchTimeout" mapstructure:"fetchTimeout"`
	}
	// TrustedHeaderConfig enables lookups by an email header injected by a trusted upstream proxy.
	// Only enable it when that header cannot reach the service from outside the trusted network.
	TrustedHeaderConfig struct {
		HeaderName string `yaml:"headerName" mapstructure:"headerName"`
		Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	}
	Option func(*options)
)

// Private API.

const (
	configKey             = "promptly/auth"
	insecureSecret        = "your-secret-key"
	minSigningSecretBytes = 32

	envSigningSecret  = "JWT_SECRET_KEY"
	envSessionSecret  = "NEXTAUTH_SECRET"
	envClientID       = "GOOGLE_CLIENT_ID"
	bearerAuthPrefix  = "bearer "
	identityIDBitSize = 64
)

type (
	applicationConfig struct {
		Auth Config `yaml:"promptly/auth" mapstructure:"promptly/auth"` //nolint:tagliatelle // Nope.
	}
	// verifier is one authentication scheme.
	verifier interface {
		Scheme() Scheme
		Verify(ctx context.Context, credential string) (*Claims, error)
	}
	auth struct {
		store     identity.Store
		tokens    *bearer.Service
		verifiers map[Scheme]verifier
		cfg       Config
	}
	options struct {
		keySet oidc.KeySet
		clock  internal.Clock
	}
)
