// SPDX-License-Identifier: ice License 1.0

package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	stdlibtime "time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/auth/internal/bearer"
	"github.com/aarontxz/promptly/auth/internal/google"
	"github.com/aarontxz/promptly/auth/internal/kdf"
	"github.com/aarontxz/promptly/auth/internal/session"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/log"
	"github.com/aarontxz/promptly/time"
)

// WithProviderKeySet replaces Google's remote key set.
func WithProviderKeySet(keySet oidc.KeySet) Option {
	return func(opts *options) {
		opts.keySet = keySet
	}
}

func WithClock(clock func() stdlibtime.Time) Option {
	return func(opts *options) {
		opts.clock = clock
	}
}

func MustNew(ctx context.Context, applicationYAMLKey string, store identity.Store, opts ...Option) Client {
	cfg, err := LoadConfig(applicationYAMLKey)
	log.Panic(err) //nolint:revive // Intended.
	cl, err := New(ctx, cfg, store, opts...)
	log.Panic(err)

	return cl
}

// New validates cfg and builds every verifier. The session key is derived here, once.
func New(ctx context.Context, cfg *Config, store identity.Store, opts ...Option) (Client, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("auth config and identity store are required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clock := internal.OrSystemClock(o.clock)
	c, err := cfg.WithDefaults()
	if err != nil {
		return nil, err
	}
	if err = c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid auth config")
	}
	tokens, err := bearer.New([]byte(c.SigningSecret), clock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build bearer token service")
	}
	codec, err := session.New(kdf.Derive([]byte(c.SessionSecret), []byte(c.SessionKeyLabel)), clock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build session codec")
	}
	var provider *google.Verifier
	if o.keySet != nil {
		provider, err = google.NewWithKeySet(o.keySet, c.Provider.Audience, clock)
	} else {
		provider, err = google.New(ctx, c.Provider.Audience, c.Provider.CertsURL, c.Provider.FetchTimeout, clock)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build google verifier")
	}
	verifiers := map[Scheme]verifier{
		SchemeSession:  &sessionVerifier{codec: codec},
		SchemeBearer:   &bearerVerifier{tokens: tokens},
		SchemeProvider: &providerVerifier{google: provider},
	}
	if c.TrustedHeader.Enabled {
		log.Warn("trusted header authentication is enabled", "header", c.TrustedHeader.HeaderName)
		verifiers[SchemeTrustedHeader] = new(trustedHeaderVerifier)
	}

	return &auth{store: store, tokens: tokens, verifiers: verifiers, cfg: *c}, nil
}

// KindOf classifies an authentication failure. It is meant for logs and tests, never for responses.
func KindOf(err error) Kind {
	return internal.KindOf(err)
}

func (a *auth) Resolve(ctx context.Context, credentials *Credentials) (*AuthenticatedIdentity, error) {
	v, credential, err := a.classify(credentials)
	if err != nil {
		return nil, a.reject(ctx, "", err)
	}
	usr, err := a.resolve(ctx, v, credential)
	if err != nil {
		return nil, a.reject(ctx, v.Scheme(), err)
	}

	return &AuthenticatedIdentity{Identity: usr, Scheme: v.Scheme()}, nil
}

func (a *auth) Login(ctx context.Context, assertion string) (*Login, error) {
	v := a.verifiers[SchemeProvider]
	if strings.TrimSpace(assertion) == "" {
		return nil, a.reject(ctx, v.Scheme(), errors.Wrap(ErrMalformed, "empty assertion"))
	}
	usr, err := a.resolve(ctx, v, assertion)
	if err != nil {
		return nil, a.reject(ctx, v.Scheme(), err)
	}
	token, expiresAt, err := a.IssueToken(usr, a.cfg.LoginTokenTTL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to issue login token for identity %v", usr.ID)
	}

	return &Login{AccessToken: token, TokenType: TokenType, ExpiresAt: expiresAt, Identity: usr}, nil
}

func (a *auth) IssueToken(usr *identity.Identity, ttl stdlibtime.Duration) (token string, expiresAt *time.Time, err error) {
	if usr == nil || usr.ID == 0 {
		return "", nil, errors.New("can't issue a token for an unsaved identity")
	}
	if ttl <= 0 {
		ttl = a.cfg.AccessTokenTTL
	}
	token, expiresAt, err = a.tokens.Issue(strconv.FormatInt(usr.ID, 10), map[string]any{"email": usr.Email}, ttl)

	return token, expiresAt, errors.Wrapf(err, "failed to issue token for identity %v", usr.ID)
}

func (a *auth) CredentialsFrom(header http.Header) *Credentials {
	credentials := &Credentials{Authorization: header.Get("Authorization")}
	if _, enabled := a.verifiers[SchemeTrustedHeader]; enabled {
		credentials.TrustedEmail = header.Get(a.cfg.TrustedHeader.HeaderName)
	}

	return credentials
}

// classify picks the verifier by credential shape: provider assertion, then Authorization, then the trusted header.
func (a *auth) classify(credentials *Credentials) (verifier, string, error) {
	switch {
	case credentials == nil:
		return nil, "", errors.Wrap(ErrMalformed, "no credentials")
	case credentials.ProviderAssertion != "":
		return a.verifiers[SchemeProvider], credentials.ProviderAssertion, nil
	case credentials.Authorization != "":
		token, ok := bearerToken(credentials.Authorization)
		if !ok {
			return nil, "", errors.Wrap(ErrMalformed, "authorization is not a bearer credential")
		}
		switch {
		case session.IsSessionShaped(token):
			return a.verifiers[SchemeSession], token, nil
		case bearer.IsBearerShaped(token):
			return a.verifiers[SchemeBearer], token, nil
		default:
			return nil, "", errors.Wrap(ErrMalformed, "unrecognized bearer credential shape")
		}
	case credentials.TrustedEmail != "":
		if v, enabled := a.verifiers[SchemeTrustedHeader]; enabled {
			return v, credentials.TrustedEmail, nil
		}

		fallthrough
	default:
		return nil, "", errors.Wrap(ErrMalformed, "no credentials")
	}
}

func bearerToken(authorization string) (string, bool) {
	authorization = strings.TrimSpace(authorization)
	if len(authorization) <= len(bearerAuthPrefix) || !strings.EqualFold(authorization[:len(bearerAuthPrefix)], bearerAuthPrefix) {
		return "", false
	}
	token := strings.TrimSpace(authorization[len(bearerAuthPrefix):])

	return token, token != ""
}

func (a *auth) resolve(ctx context.Context, v verifier, credential string) (*identity.Identity, error) {
	claims, err := v.Verify(ctx, credential)
	if err != nil {
		return nil, errors.Wrapf(err, "%v verification failed", v.Scheme())
	}
	usr, err := a.materialize(ctx, v.Scheme(), claims)
	if err != nil {
		return nil, err
	}
	if !usr.IsActive {
		return nil, errors.Wrapf(ErrNoMatchingIdentity, "identity %v is inactive", usr.ID)
	}

	return usr, nil
}

// materialize translates verified claims into exactly one stored identity.
// Only provider assertions provision; every other scheme requires an existing record.
func (a *auth) materialize(ctx context.Context, scheme Scheme, claims *Claims) (usr *identity.Identity, err error) {
	switch scheme {
	case SchemeProvider:
		usr, err = a.store.Upsert(ctx, profile(claims), identity.CreateOrUpdate)
	case SchemeSession:
		usr, err = a.store.Upsert(ctx, profile(claims), identity.UpdateOnly)
	case SchemeBearer:
		id, pErr := strconv.ParseInt(claims.Subject, 10, identityIDBitSize)
		if pErr != nil {
			return nil, errors.Wrap(ErrSchemaInvalid, "bearer subject is not an identity id")
		}
		usr, err = a.store.FindByID(ctx, id)
	case SchemeTrustedHeader:
		usr, err = a.store.FindByEmail(ctx, claims.Email)
	default:
		return nil, errors.Wrapf(ErrMalformed, "unsupported scheme %v", scheme)
	}

	return usr, storeError(ctx, scheme, err)
}

func profile(claims *Claims) *identity.Profile {
	return &identity.Profile{
		ProviderID: claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
		Picture:    claims.Picture,
	}
}

func storeError(ctx context.Context, scheme Scheme, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrNotFound):
		return errors.Wrapf(ErrNoMatchingIdentity, "no identity for %v credential", scheme)
	case errors.Is(err, identity.ErrInvalidProfile):
		return errors.Wrapf(ErrSchemaInvalid, "%v claims are not a usable profile", scheme)
	case ctx.Err() != nil:
		return errors.Wrap(ctx.Err(), "identity lookup interrupted")
	default:
		return multierror.Append(ErrStoreUnavailable, err)
	}
}

// reject collapses every credential failure into ErrUnauthenticated.
// Store failures and context errors pass through since they say nothing about the credential.
func (*auth) reject(ctx context.Context, scheme Scheme, err error) error {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		log.Error(errors.Wrapf(err, "identity store unavailable while resolving %v credential", scheme))

		return err
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return err
	default:
		log.Warn("authentication rejected", "scheme", scheme.String(), "kind", KindOf(err).String())

		return ErrUnauthenticated
	}
}
