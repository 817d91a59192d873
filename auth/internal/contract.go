// SPDX-License-Identifier: ice License 1.0

package internal

import (
	stdlibtime "time"

	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/time"
)

// Public API.

const (
	SchemeSession       Scheme = "session"
	SchemeBearer        Scheme = "bearer"
	SchemeProvider      Scheme = "provider"
	SchemeTrustedHeader Scheme = "trusted_header"
)

const (
	KindMalformed          Kind = "malformed"
	KindCryptoInvalid      Kind = "crypto_invalid"
	KindExpired            Kind = "expired"
	KindWrongIssuer        Kind = "wrong_issuer"
	KindWrongAudience      Kind = "wrong_audience"
	KindSchemaInvalid      Kind = "schema_invalid"
	KindNoMatchingIdentity Kind = "no_matching_identity"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindUnknown            Kind = "unknown"
)

var (
	ErrMalformed          = errors.New("malformed credential")
	ErrCryptoInvalid      = errors.New("credential failed cryptographic verification")
	ErrExpired            = errors.New("credential expired")
	ErrWrongIssuer        = errors.New("credential issued by an unexpected issuer")
	ErrWrongAudience      = errors.New("credential issued for another audience")
	ErrSchemaInvalid      = errors.New("credential payload has an unexpected shape")
	ErrNoMatchingIdentity = errors.New("no usable identity matches the credential")
	ErrStoreUnavailable   = errors.New("identity store unavailable")

	ErrTagInvalid     = errors.WithMessage(ErrCryptoInvalid, "authentication tag mismatch")
	ErrBadSignature   = errors.WithMessage(ErrCryptoInvalid, "bad signature")
	ErrMissingSubject = errors.WithMessage(ErrSchemaInvalid, "missing subject")
)

type (
	Scheme string
	Kind   string
	// Claims is the normalized claim set every verifier produces.
	Claims struct {
		ExpiresAt *time.Time
		Picture   *string
		Subject   string
		Email     string
		Name      string
		Issuer    string
		Scheme    Scheme
	}
	Clock func() stdlibtime.Time
)

// Private API.

var (
	//nolint:gochecknoglobals // Ordered, read only.
	kinds = []struct {
		err  error
		kind Kind
	}{
		{ErrStoreUnavailable, KindStoreUnavailable},
		{ErrMalformed, KindMalformed},
		{ErrCryptoInvalid, KindCryptoInvalid},
		{ErrExpired, KindExpired},
		{ErrWrongIssuer, KindWrongIssuer},
		{ErrWrongAudience, KindWrongAudience},
		{ErrSchemaInvalid, KindSchemaInvalid},
		{ErrNoMatchingIdentity, KindNoMatchingIdentity},
	}
)
