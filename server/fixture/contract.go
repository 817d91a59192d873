// SPDX-License-Identifier: ice License 1.0

package fixture

import (
	"context"
	"io"
	"net/http"
	"testing"
)

// Public API.

type (
	RespStatusCode   = int
	ReqBody          = io.Reader
	URL              = string
	ExpectedRespBody = string
	ActualRespBody   = string
	ContentType      = string

	HTTPTestClient interface {
		Get(ctx context.Context, tb testing.TB, u URL, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)
		Post(ctx context.Context, tb testing.TB, u URL, body ReqBody, headers ...http.Header) (ActualRespBody, RespStatusCode, http.Header)

		WrapJSONBody(jsonData string) (ReqBody, ContentType)

		TestHealthCheck(ctx context.Context, tb testing.TB)
		AssertUnauthorized(tb testing.TB, actual ActualRespBody, respCode RespStatusCode, headers http.Header)
	}
)

// Private API.

const (
	jsonContentType      = "application/json"
	unauthenticatedBody  = `{"error":"not authenticated","code":"UNAUTHENTICATED"}`
	healthCheckClientIP  = "1.2.3.4"
	healthCheckIPHeader  = "CF-Connecting-IP"
	expectedHTTPProtocol = "HTTP/2.0"
)

type (
	httpTestClient struct {
		client     *http.Client
		serverAddr string
	}
)
