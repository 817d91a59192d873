// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	stdlibtime "time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarontxz/promptly/auth"
	authfixture "github.com/aarontxz/promptly/auth/fixture"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/identity/memory"
	"github.com/aarontxz/promptly/server"
	serverfixture "github.com/aarontxz/promptly/server/fixture"
)

func newTestClient(t *testing.T, mutate ...func(*auth.Config)) (serverfixture.HTTPTestClient, *memory.Store) {
	t.Helper()
	cfg := &auth.Config{
		SigningSecret: authfixture.SigningSecret,
		SessionSecret: authfixture.SessionSecret,
		Provider:      auth.ProviderConfig{Audience: authfixture.Audience},
	}
	for _, fn := range mutate {
		fn(cfg)
	}
	store := memory.New()
	authClient, err := auth.New(context.Background(), cfg, store, auth.WithProviderKeySet(authfixture.KeySet()))
	require.NoError(t, err)
	svc := &service{store: store, authClient: authClient}

	return serverfixture.NewTestClient(t, server.NewRouter(svc, applicationYAMLKey)), store
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	client.TestHealthCheck(t.Context(), t)
}

func TestGoogleLoginThenMe(t *testing.T) {
	t.Parallel()
	client, store := newTestClient(t)
	assertion := authfixture.GoogleAssertionToken(stdlibtime.Now(), "g-123", "jdoe@example.com", "John Doe")
	body, contentType := client.WrapJSONBody(fmt.Sprintf(`{"token":%q}`, assertion))

	respBody, status, _ := client.Post(t.Context(), t, "/auth/google", body, http.Header{"Content-Type": []string{contentType}})
	require.Equal(t, http.StatusOK, status, respBody)
	var login LoginResponse
	require.NoError(t, json.Unmarshal([]byte(respBody), &login))
	assert.Equal(t, auth.TokenType, login.TokenType)
	assert.NotEmpty(t, login.AccessToken)
	require.NotNil(t, login.User)
	assert.Equal(t, "jdoe@example.com", login.User.Email)
	assert.Equal(t, "John Doe", login.User.Name)
	require.NotNil(t, login.ExpiresAt)
	assert.InDelta(t, auth.DefaultLoginTokenTTL.Seconds(), stdlibtime.Until(*login.ExpiresAt.Time).Seconds(), 5)
	stored, err := store.FindByProviderID(context.Background(), "g-123")
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, stored.ID)

	respBody, status, _ = client.Get(t.Context(), t, "/auth/me", bearer(login.AccessToken))
	require.Equal(t, http.StatusOK, status, respBody)
	var me identity.Identity
	require.NoError(t, json.Unmarshal([]byte(respBody), &me))
	assert.Equal(t, login.User.ID, me.ID)
	assert.Equal(t, "jdoe@example.com", me.Email)
}

func TestGoogleLoginRejections(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	body, contentType := client.WrapJSONBody(`{"token":"garbage"}`)
	respBody, status, headers := client.Post(t.Context(), t, "/auth/google", body, http.Header{"Content-Type": []string{contentType}})
	client.AssertUnauthorized(t, respBody, status, headers)

	body, contentType = client.WrapJSONBody(`{}`)
	respBody, status, _ = client.Post(t.Context(), t, "/auth/google", body, http.Header{"Content-Type": []string{contentType}})
	assert.Equal(t, http.StatusUnprocessableEntity, status, respBody)
	assert.Contains(t, respBody, "MISSING_PROPERTIES")
}

func TestMeRejectsEveryInvalidCredentialTheSameWay(t *testing.T) {
	t.Parallel()
	client, store := newTestClient(t)
	inactive := store.Put(&identity.Identity{Email: "inactive@example.com", Name: "Inactive"})
	expired := authfixture.SessionToken(authfixture.SessionSecret, map[string]any{"id": "g-404", "exp": stdlibtime.Now().Add(-stdlibtime.Hour).Unix()})

	for name, headers := range map[string]http.Header{
		"no credentials":    nil,
		"basic auth":        {"Authorization": []string{"Basic dXNlcjpwYXNz"}},
		"garbage bearer":    bearer("a.b.c"),
		"garbage session":   bearer("a.b.c.d.e"),
		"expired session":   bearer(expired),
		"unknown session":   bearer(authfixture.SessionToken(authfixture.SessionSecret, map[string]any{"id": "g-404"})),
		"trusted header":    {auth.DefaultTrustedHeaderName: []string{inactive.Email}},
		"google assertion":  bearer(authfixture.GoogleAssertionToken(stdlibtime.Now(), "g-123", "jdoe@example.com", "John Doe")),
		"unknown shape":     bearer("token"),
		"inactive identity": bearer(mustIssue(t, store, inactive)),
	} {
		respBody, status, respHeaders := client.Get(t.Context(), t, "/auth/me", headers)
		t.Run(name, func(t *testing.T) {
			client.AssertUnauthorized(t, respBody, status, respHeaders)
		})
	}
}

func TestMeWithSessionToken(t *testing.T) {
	t.Parallel()
	client, store := newTestClient(t)
	providerID := "g-123"
	usr := store.Put(&identity.Identity{Email: "jdoe@example.com", Name: "John Doe", ProviderID: &providerID, IsActive: true})
	token := authfixture.SessionToken(authfixture.SessionSecret, map[string]any{"id": providerID, "email": usr.Email})

	respBody, status, _ := client.Get(t.Context(), t, "/auth/me", bearer(token))
	require.Equal(t, http.StatusOK, status, respBody)
	var me identity.Identity
	require.NoError(t, json.Unmarshal([]byte(respBody), &me))
	assert.Equal(t, usr.ID, me.ID)
}

func TestMeWithTrustedHeader(t *testing.T) {
	t.Parallel()
	client, store := newTestClient(t, func(cfg *auth.Config) { cfg.TrustedHeader.Enabled = true })
	usr := store.Put(&identity.Identity{Email: "jdoe@example.com", Name: "John Doe", IsActive: true})

	respBody, status, _ := client.Get(t.Context(), t, "/auth/me", http.Header{auth.DefaultTrustedHeaderName: []string{usr.Email}})
	require.Equal(t, http.StatusOK, status, respBody)
	var me identity.Identity
	require.NoError(t, json.Unmarshal([]byte(respBody), &me))
	assert.Equal(t, usr.ID, me.ID)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	client, _ := newTestClient(t)

	respBody, status, _ := client.Post(t.Context(), t, "/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, respBody)
}

func mustIssue(t *testing.T, store *memory.Store, usr *identity.Identity) string {
	t.Helper()
	authClient, err := auth.New(context.Background(), &auth.Config{
		SigningSecret: authfixture.SigningSecret,
		SessionSecret: authfixture.SessionSecret,
		Provider:      auth.ProviderConfig{Audience: authfixture.Audience},
	}, store, auth.WithProviderKeySet(authfixture.KeySet()))
	require.NoError(t, err)
	token, _, err := authClient.IssueToken(usr, 0)
	require.NoError(t, err)

	return token
}
