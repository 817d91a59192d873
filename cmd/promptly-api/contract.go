// SPDX-License-Identifier: ice License 1.0

package main

import (
	"github.com/aarontxz/promptly/auth"
	"github.com/aarontxz/promptly/connectors/storage"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/time"
)

// Public API.

type (
	GoogleLoginArg struct {
		_     struct{} `allowUnauthorized:"true"` //nolint:revive // It's processed by the router.
		Token string   `json:"token" required:"true" example:"eyJhbGciOiJSUzI1NiIsImtpZCI6..."`
	}
	// LoginResponse keeps the snake_case wire format existing clients expect.
	LoginResponse struct {
		ExpiresAt   *time.Time         `json:"expires_at"` //nolint:tagliatelle // Wire compatibility.
		User        *identity.Identity `json:"user"`
		AccessToken string             `json:"access_token"` //nolint:tagliatelle // Wire compatibility.
		TokenType   string             `json:"token_type"`   //nolint:tagliatelle // Wire compatibility.
	}
	GetMeArg  struct{}
	LogoutArg struct {
		_ struct{} `allowUnauthorized:"true"` //nolint:revive // It's processed by the router.
	}
	MessageResponse struct {
		Message string `json:"message" example:"Logged out successfully"`
	}
)

// Private API.

const (
	applicationYAMLKey = "cmd/promptly-api"
	logoutMessage      = "Logged out successfully"
)

type (
	// service is the server.State of the api.
	service struct {
		db         *storage.DB
		store      identity.Store
		authClient auth.Client
	}
	config struct {
		Storage storage.Config `yaml:"storage" mapstructure:"storage"`
	}
)
