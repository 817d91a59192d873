// SPDX-License-Identifier: ice License 1.0

package google

import (
	"context"
	"math"
	"slices"
	"strings"
	stdlibtime "time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/imroc/req/v3"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/time"
)

// New builds a Verifier backed by a remote key set that go-oidc fetches and caches.
func New(ctx context.Context, audience, certsURL string, fetchTimeout stdlibtime.Duration, clock internal.Clock) (*Verifier, error) {
	if certsURL == "" {
		certsURL = DefaultCertsURL
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	client := req.C().SetTimeout(fetchTimeout).GetClient()

	return NewWithKeySet(oidc.NewRemoteKeySet(oidc.ClientContext(ctx, client), certsURL), audience, clock)
}

func NewWithKeySet(keySet oidc.KeySet, audience string, clock internal.Clock) (*Verifier, error) {
	if keySet == nil {
		return nil, errors.New("google key set is required")
	}
	if audience == "" {
		return nil, errors.New("google audience is required")
	}
	// Issuer, audience and time checks are done here so they map onto the failure taxonomy.
	verifier := oidc.NewVerifier(IssuerURL, keySet, &oidc.Config{
		SupportedSigningAlgs: []string{oidc.RS256},
		SkipClientIDCheck:    true,
		SkipIssuerCheck:      true,
		SkipExpiryCheck:      true,
	})

	return &Verifier{verifier: verifier, audience: audience, clock: internal.OrSystemClock(clock)}, nil
}

func (v *Verifier) Verify(ctx context.Context, assertion string) (*internal.Claims, error) {
	token, err := v.verifier.Verify(ctx, assertion)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "google assertion verification interrupted")
		}

		return nil, v.classify(err)
	}
	if !slices.Contains(issuers, token.Issuer) {
		return nil, internal.ErrWrongIssuer
	}
	if !slices.Contains(token.Audience, v.audience) {
		return nil, internal.ErrWrongAudience
	}
	var claims assertionClaims
	if err = token.Claims(&claims); err != nil {
		return nil, errors.Wrap(internal.ErrSchemaInvalid, "undecodable assertion claims")
	}
	expiresAt, err := v.checkTimes(&claims)
	if err != nil {
		return nil, err
	}
	if token.Subject == "" {
		return nil, internal.ErrMissingSubject
	}
	if claims.Email == "" {
		return nil, errors.Wrap(internal.ErrSchemaInvalid, "missing email")
	}

	return &internal.Claims{
		Subject:   token.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		Picture:   claims.Picture,
		Issuer:    token.Issuer,
		ExpiresAt: time.New(expiresAt),
		Scheme:    internal.SchemeProvider,
	}, nil
}

func (v *Verifier) checkTimes(claims *assertionClaims) (stdlibtime.Time, error) {
	if claims.Exp == nil {
		return stdlibtime.Time{}, errors.Wrap(internal.ErrSchemaInvalid, "missing exp")
	}
	now := v.clock()
	expiresAt := unix(*claims.Exp)
	if !now.Before(expiresAt) {
		return stdlibtime.Time{}, errors.Wrapf(internal.ErrExpired, "assertion expired at %v", expiresAt)
	}
	if claims.Nbf != nil {
		if notBefore := unix(*claims.Nbf); now.Before(notBefore) {
			return stdlibtime.Time{}, errors.Wrapf(internal.ErrExpired, "assertion not valid before %v", notBefore)
		}
	}

	return expiresAt, nil
}

// go-oidc errors can quote the token, so only the category survives.
func (*Verifier) classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "malformed jwt"), strings.Contains(msg, "not signed"), strings.Contains(msg, "multiple signatures"):
		return errors.Wrap(internal.ErrMalformed, "unparsable assertion")
	case strings.Contains(msg, "failed to unmarshal claims"):
		return errors.Wrap(internal.ErrSchemaInvalid, "undecodable assertion claims")
	case strings.Contains(msg, "fetching keys"):
		return errors.WithMessage(internal.ErrCryptoInvalid, "google signing keys unavailable")
	default:
		return internal.ErrBadSignature
	}
}

func unix(seconds float64) stdlibtime.Time {
	sec, frac := math.Modf(seconds)

	return stdlibtime.Unix(int64(sec), int64(frac*float64(stdlibtime.Second))).UTC()
}
