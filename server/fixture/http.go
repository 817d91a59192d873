// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (tc *httpTestClient) Get(
	ctx context.Context,
	tb testing.TB,
	url string,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodGet, url, nil, headers...)
}

func (tc *httpTestClient) Post(
	ctx context.Context,
	tb testing.TB,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	return tc.doRequest(ctx, tb, http.MethodPost, url, body, headers...)
}

//nolint:revive // Looks alot better.
func (tc *httpTestClient) doRequest(
	ctx context.Context,
	tb testing.TB,
	method,
	url string,
	body io.Reader,
	headers ...http.Header,
) (respBody string, statusCode int, header http.Header) {
	tb.Helper()

	r, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%v%v", tc.serverAddr, url), body)
	require.NoError(tb, err)
	addHeaders(headers, r)
	resp, err := tc.client.Do(r)
	require.NoError(tb, err)
	defer func() { assert.NoError(tb, resp.Body.Close()) }()
	assert.Equal(tb, expectedHTTPProtocol, resp.Proto)
	//nolint:gomnd // It's not a magic number, it's the http major version.
	assert.Equal(tb, 2, resp.ProtoMajor)
	assert.Equal(tb, 0, resp.ProtoMinor)

	b, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)
	respBody = string(b)

	return respBody, resp.StatusCode, resp.Header
}

func (tc *httpTestClient) TestHealthCheck(ctx context.Context, tb testing.TB) {
	tb.Helper()

	body, status, headers := tc.Get(ctx, tb, "/health-check", http.Header{healthCheckIPHeader: []string{healthCheckClientIP}})
	assert.JSONEq(tb, fmt.Sprintf(`{"clientIp":%q}`, healthCheckClientIP), body)
	assert.Equal(tb, http.StatusOK, status)
	headers.Del("Date")
	headers.Del("Content-Length")
	require.Equal(tb, http.Header{"Content-Type": []string{"application/json; charset=utf-8"}}, headers)
}

func addHeaders(headers []http.Header, r *http.Request) {
	//nolint:revive // False negative.
	if len(headers) != 0 && headers[0] != nil {
		for k, vs := range headers[0] {
			for _, v := range vs {
				r.Header.Add(k, v)
			}
		}
	}
}

func (*httpTestClient) AssertUnauthorized(tb testing.TB, body string, status int, headers http.Header) {
	tb.Helper()

	assert.JSONEq(tb, unauthenticatedBody, body)
	assert.Equal(tb, http.StatusUnauthorized, status)
	assert.Equal(tb, "Bearer", headers.Get("WWW-Authenticate"))
	headers.Del("Date")
	headers.Del("Content-Length")
	headers.Del("WWW-Authenticate")
	assert.Equal(tb, http.Header{"Content-Type": []string{"application/json; charset=utf-8"}}, headers)
}

func (*httpTestClient) WrapJSONBody(jsonData string) (reqBody io.Reader, contentType string) {
	if jsonData == "" {
		return nil, jsonContentType
	}

	return strings.NewReader(jsonData), jsonContentType
}
