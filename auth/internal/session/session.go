// SPDX-License-Identifier: ice License 1.0

package session

import (
	"math"
	"strings"
	stdlibtime "time"

	"github.com/go-jose/go-jose/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/auth/internal/kdf"
	"github.com/aarontxz/promptly/time"
)

func New(key []byte, clock internal.Clock) (*Codec, error) {
	if len(key) != kdf.KeySize {
		return nil, errors.Errorf("session key must be %v bytes, got %v", kdf.KeySize, len(key))
	}

	return &Codec{key: append([]byte(nil), key...), clock: internal.OrSystemClock(clock)}, nil
}

func IsSessionShaped(token string) bool {
	return strings.Count(token, ".") == compactSegments-1
}

func (c *Codec) Decrypt(token string) (*internal.Claims, error) {
	if !IsSessionShaped(token) {
		return nil, errors.Wrapf(internal.ErrMalformed, "expected %v segments", compactSegments)
	}
	// Library errors can echo token segments, so they are not propagated.
	jwe, err := jose.ParseEncrypted(token, keyAlgorithms, contentEncryptions)
	if err != nil {
		return nil, errors.Wrap(internal.ErrMalformed, "unparsable envelope")
	}
	plaintext, err := jwe.Decrypt(c.key)
	if err != nil {
		if errors.Is(err, jose.ErrCryptoFailure) {
			return nil, internal.ErrTagInvalid
		}

		return nil, errors.Wrap(internal.ErrMalformed, "undecryptable envelope")
	}

	return c.claims(plaintext)
}

func (c *Codec) Encrypt(claims map[string]any) (string, error) {
	plaintext, err := json.Marshal(claims)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal session claims")
	}
	encrypter, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{Algorithm: jose.DIRECT, Key: c.key}, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build encrypter")
	}
	jwe, err := encrypter.Encrypt(plaintext)
	if err != nil {
		return "", errors.Wrap(err, "failed to encrypt session claims")
	}
	token, err := jwe.CompactSerialize()

	return token, errors.Wrap(err, "failed to serialize session token")
}

func (c *Codec) claims(plaintext []byte) (*internal.Claims, error) {
	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return nil, errors.Wrap(internal.ErrSchemaInvalid, "undecodable payload")
	}
	subject := p.ID
	if subject == "" {
		subject = p.Sub
	}
	if subject == "" {
		return nil, internal.ErrMissingSubject
	}
	claims := &internal.Claims{
		Subject: subject,
		Email:   p.Email,
		Name:    p.Name,
		Picture: p.Picture,
		Issuer:  Issuer,
		Scheme:  internal.SchemeSession,
	}
	if p.Exp != nil {
		sec, frac := math.Modf(*p.Exp)
		expiresAt := stdlibtime.Unix(int64(sec), int64(frac*float64(stdlibtime.Second))).UTC()
		if !c.clock().Before(expiresAt) {
			return nil, errors.Wrapf(internal.ErrExpired, "session expired at %v", expiresAt)
		}
		claims.ExpiresAt = time.New(expiresAt)
	}

	return claims, nil
}
