// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// NewTestClient serves handler over HTTP/2 with TLS for the lifetime of tb.
func NewTestClient(tb testing.TB, handler http.Handler) HTTPTestClient {
	tb.Helper()

	srv := httptest.NewUnstartedServer(handler)
	srv.EnableHTTP2 = true
	srv.StartTLS()
	tb.Cleanup(srv.Close)

	return &httpTestClient{client: srv.Client(), serverAddr: srv.URL}
}
