// SPDX-License-Identifier: ice License 1.0

package bearer

import (
	"strings"
	stdlibtime "time"

	"dario.cat/mergo"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/time"
)

func New(secret []byte, clock internal.Clock) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("bearer signing secret is required")
	}

	return &Service{secret: append([]byte(nil), secret...), clock: internal.OrSystemClock(clock)}, nil
}

func IsBearerShaped(token string) bool {
	return strings.Count(token, ".") == 2 //nolint:mnd // header.claims.signature
}

// Issue signs a token for subject that expires after ttl, or after DefaultTTL when ttl is not positive.
// Extra claims never override the registered ones.
func (s *Service) Issue(subject string, extraClaims map[string]any, ttl stdlibtime.Duration) (token string, expiresAt *time.Time, err error) {
	if subject == "" {
		return "", nil, errors.Wrap(internal.ErrMissingSubject, "can't issue a token without subject")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := s.clock().UTC()
	exp := ceilToSecond(now.Add(ttl))
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": Issuer,
		"iat": jwt.NewNumericDate(now),
		"nbf": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(exp),
		"jti": uuid.NewString(),
	}
	if extra := withoutRegistered(extraClaims); len(extra) > 0 {
		if err = mergo.Merge(&claims, extra); err != nil {
			return "", nil, errors.Wrap(err, "failed to merge extra claims")
		}
	}
	if token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret); err != nil {
		return "", nil, errors.Wrap(err, "failed to sign token")
	}

	return token, time.New(exp), nil
}

// Verify checks the signature, then expiry, then issuer.
func (s *Service) Verify(token string) (*internal.Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.key,
		jwt.WithValidMethods(validMethods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil {
		return nil, s.classify(err)
	}
	if issuer, iErr := claims.GetIssuer(); iErr != nil || issuer != Issuer {
		return nil, internal.ErrWrongIssuer
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return nil, errors.Wrap(internal.ErrSchemaInvalid, "sub is not a string")
	}
	if subject == "" {
		return nil, internal.ErrMissingSubject
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.Wrap(internal.ErrSchemaInvalid, "exp is not a numeric date")
	}
	email, _ := claims[claimEmail].(string)

	return &internal.Claims{
		Subject:   subject,
		Email:     email,
		Issuer:    Issuer,
		ExpiresAt: time.New(exp.UTC()),
		Scheme:    internal.SchemeBearer,
	}, nil
}

func (s *Service) key(*jwt.Token) (any, error) {
	return s.secret, nil
}

// Claim validation errors are joined, so expiry is matched before anything else about the claims.
func (*Service) classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.Wrap(internal.ErrMalformed, "unparsable token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return internal.ErrBadSignature
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return internal.ErrExpired
	default:
		return errors.Wrap(internal.ErrSchemaInvalid, "invalid claims")
	}
}

func withoutRegistered(extraClaims map[string]any) jwt.MapClaims {
	extra := make(jwt.MapClaims, len(extraClaims))
	for k, v := range extraClaims {
		if _, reserved := registeredClaims[k]; !reserved {
			extra[k] = v
		}
	}

	return extra
}

// NumericDate keeps whole seconds, so exp is rounded up to never cut a token's lifetime short.
func ceilToSecond(t stdlibtime.Time) stdlibtime.Time {
	if truncated := t.Truncate(stdlibtime.Second); truncated.Before(t) {
		return truncated.Add(stdlibtime.Second)
	}

	return t
}
