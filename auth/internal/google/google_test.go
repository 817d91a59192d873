// SPDX-License-Identifier: ice License 1.0

package google_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	stdlibtime "time"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarontxz/promptly/auth/fixture"
	"github.com/aarontxz/promptly/auth/internal"
	"github.com/aarontxz/promptly/auth/internal/google"
)

var (
	testNow = stdlibtime.Date(2025, 1, 2, 3, 4, 5, 0, stdlibtime.UTC)
)

func newVerifier(t *testing.T) *google.Verifier {
	t.Helper()
	v, err := google.NewWithKeySet(fixture.KeySet(), fixture.Audience, func() stdlibtime.Time { return testNow })
	require.NoError(t, err)

	return v
}

func TestNewWithKeySetRequiresAudience(t *testing.T) {
	t.Parallel()

	_, err := google.NewWithKeySet(fixture.KeySet(), "", nil)
	require.Error(t, err)
	_, err = google.NewWithKeySet(nil, fixture.Audience, nil)
	require.Error(t, err)
}

func TestVerifyValidAssertion(t *testing.T) {
	t.Parallel()
	picture := "https://example.com/a.png"
	assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	assertion.Picture = &picture

	claims, err := newVerifier(t).Verify(context.Background(), fixture.SignGoogleAssertion(assertion))
	require.NoError(t, err)
	assert.Equal(t, "g-123", claims.Subject)
	assert.Equal(t, "jdoe@example.com", claims.Email)
	assert.Equal(t, "John Doe", claims.Name)
	assert.Equal(t, google.IssuerURL, claims.Issuer)
	assert.Equal(t, internal.SchemeProvider, claims.Scheme)
	require.NotNil(t, claims.Picture)
	assert.Equal(t, picture, *claims.Picture)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, testNow.Add(stdlibtime.Hour).Equal(*claims.ExpiresAt.Time))
}

func TestVerifyAcceptsBothIssuerForms(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)

	for _, issuer := range []string{google.IssuerNoScheme, google.IssuerURL} {
		assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
		assertion.Issuer = issuer
		claims, err := v.Verify(context.Background(), fixture.SignGoogleAssertion(assertion))
		require.NoError(t, err, issuer)
		assert.Equal(t, issuer, claims.Issuer)
	}
}

func TestVerifyRejectsOtherIssuers(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)

	for _, issuer := range []string{"", "accounts.google.com.evil.io", "http://accounts.google.com", "https://accounts.google.com/"} {
		assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
		assertion.Issuer = issuer
		_, err := v.Verify(context.Background(), fixture.SignGoogleAssertion(assertion))
		require.ErrorIs(t, err, internal.ErrWrongIssuer, issuer)
	}
}

func TestVerifyRejectsOtherAudience(t *testing.T) {
	t.Parallel()
	assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	assertion.Audience = jwt.ClaimStrings{"someone-else.apps.googleusercontent.com"}

	_, err := newVerifier(t).Verify(context.Background(), fixture.SignGoogleAssertion(assertion))
	require.ErrorIs(t, err, internal.ErrWrongAudience)
}

func TestVerifyAcceptsAudienceAmongMany(t *testing.T) {
	t.Parallel()
	assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	assertion.Audience = jwt.ClaimStrings{"other", fixture.Audience}

	_, err := newVerifier(t).Verify(context.Background(), fixture.SignGoogleAssertion(assertion))
	require.NoError(t, err)
}

func TestVerifyTimeValidity(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)

	expired := fixture.NewGoogleAssertion(testNow.Add(-2*stdlibtime.Hour), "g-123", "jdoe@example.com", "John Doe")
	_, err := v.Verify(context.Background(), fixture.SignGoogleAssertion(expired))
	require.ErrorIs(t, err, internal.ErrExpired)

	expiresNow := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	expiresNow.ExpiresAt = jwt.NewNumericDate(testNow)
	_, err = v.Verify(context.Background(), fixture.SignGoogleAssertion(expiresNow))
	require.ErrorIs(t, err, internal.ErrExpired)

	notYetValid := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	notYetValid.NotBefore = jwt.NewNumericDate(testNow.Add(stdlibtime.Minute))
	_, err = v.Verify(context.Background(), fixture.SignGoogleAssertion(notYetValid))
	require.ErrorIs(t, err, internal.ErrExpired)

	noExpiry := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")
	noExpiry.ExpiresAt = nil
	_, err = v.Verify(context.Background(), fixture.SignGoogleAssertion(noExpiry))
	require.ErrorIs(t, err, internal.ErrSchemaInvalid)
}

func TestVerifyClaimShape(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)

	noSubject := fixture.NewGoogleAssertion(testNow, "", "jdoe@example.com", "John Doe")
	_, err := v.Verify(context.Background(), fixture.SignGoogleAssertion(noSubject))
	require.ErrorIs(t, err, internal.ErrMissingSubject)
	require.ErrorIs(t, err, internal.ErrSchemaInvalid)

	noEmail := fixture.NewGoogleAssertion(testNow, "g-123", "", "John Doe")
	_, err = v.Verify(context.Background(), fixture.SignGoogleAssertion(noEmail))
	require.ErrorIs(t, err, internal.ErrSchemaInvalid)

	noName := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "")
	claims, err := v.Verify(context.Background(), fixture.SignGoogleAssertion(noName))
	require.NoError(t, err)
	assert.Empty(t, claims.Name)
	assert.Nil(t, claims.Picture)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	t.Parallel()
	assertion := fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")

	_, err := newVerifier(t).Verify(context.Background(), fixture.SignGoogleAssertionWith(fixture.NewRSAKey(), assertion))
	require.ErrorIs(t, err, internal.ErrCryptoInvalid)
	assert.Equal(t, internal.KindCryptoInvalid, internal.KindOf(err))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)

	for _, assertion := range []string{"", "not-a-jwt", "a.b.c", "a.b.c.d.e"} {
		_, err := v.Verify(context.Background(), assertion)
		require.ErrorIs(t, err, internal.ErrMalformed, assertion)
	}
}

func TestVerifyRejectsSymmetricAlgorithm(t *testing.T) {
	t.Parallel()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "John Doe")).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newVerifier(t).Verify(context.Background(), token)
	require.ErrorIs(t, err, internal.ErrMalformed)
}

func TestVerifyClassifiesLibraryFailures(t *testing.T) {
	t.Parallel()
	v := newVerifier(t)
	multiSigner, err := jose.NewMultiSigner([]jose.SigningKey{
		{Algorithm: jose.RS256, Key: fixture.NewRSAKey()},
		{Algorithm: jose.RS256, Key: fixture.NewRSAKey()},
	}, nil)
	require.NoError(t, err)
	multiSigned, err := multiSigner.Sign([]byte(`{"sub":"g-123"}`))
	require.NoError(t, err)

	for name, tc := range map[string]struct {
		expected  error
		assertion string
	}{
		"malformed":           {assertion: "not-a-jwt", expected: internal.ErrMalformed},
		"multiple signatures": {assertion: multiSigned.FullSerialize(), expected: internal.ErrMalformed},
		"undecodable claims":  {assertion: fixture.SignRawGoogleAssertion([]byte("not json")), expected: internal.ErrSchemaInvalid},
		"foreign signature": {
			assertion: fixture.SignGoogleAssertionWith(fixture.NewRSAKey(), fixture.NewGoogleAssertion(testNow, "g-123", "jdoe@example.com", "")),
			expected:  internal.ErrBadSignature,
		},
	} {
		_, vErr := v.Verify(context.Background(), tc.assertion)
		require.ErrorIs(t, vErr, tc.expected, name)
	}
}

func TestVerifyWithRemoteKeySet(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(fixture.JWKS())
	}))
	t.Cleanup(srv.Close)
	v, err := google.New(context.Background(), fixture.Audience, srv.URL, stdlibtime.Second, func() stdlibtime.Time { return testNow })
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), fixture.GoogleAssertionToken(testNow, "g-123", "jdoe@example.com", "John Doe"))
	require.NoError(t, err)
	assert.Equal(t, "g-123", claims.Subject)
}

func TestVerifyReportsUnavailableKeys(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	v, err := google.New(context.Background(), fixture.Audience, srv.URL, stdlibtime.Second, func() stdlibtime.Time { return testNow })
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), fixture.GoogleAssertionToken(testNow, "g-123", "jdoe@example.com", "John Doe"))
	require.ErrorIs(t, err, internal.ErrCryptoInvalid)
	require.NotErrorIs(t, err, internal.ErrBadSignature)
}
