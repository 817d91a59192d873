// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth"
	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/server"
)

// LoginWithGoogle exchanges a Google ID token for an access token, provisioning the identity on first use.
func (s *service) LoginWithGoogle(
	ctx context.Context, req *server.Request[GoogleLoginArg, LoginResponse],
) (*server.Response[LoginResponse], *server.Response[server.ErrorResponse]) {
	login, err := s.authClient.Login(ctx, req.Data.Token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			return nil, server.Unauthorized(err)
		}

		return nil, server.Unexpected(errors.Wrap(err, "google login failed"))
	}

	return server.OK(&LoginResponse{
		AccessToken: login.AccessToken,
		TokenType:   login.TokenType,
		ExpiresAt:   login.ExpiresAt,
		User:        login.Identity,
	}), nil
}

func (*service) GetMe(
	_ context.Context, req *server.Request[GetMeArg, identity.Identity],
) (*server.Response[identity.Identity], *server.Response[server.ErrorResponse]) {
	return server.OK(req.AuthenticatedUser.Identity), nil
}

// Logout only acknowledges: access tokens are stateless, so the client discards its copy.
func (*service) Logout(
	context.Context, *server.Request[LogoutArg, MessageResponse],
) (*server.Response[MessageResponse], *server.Response[server.ErrorResponse]) {
	return server.OK(&MessageResponse{Message: logoutMessage}), nil
}
