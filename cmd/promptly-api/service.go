// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth"
	appCfg "github.com/aarontxz/promptly/config"
	"github.com/aarontxz/promptly/connectors/storage"
	"github.com/aarontxz/promptly/identity/memory"
	"github.com/aarontxz/promptly/identity/postgres"
	"github.com/aarontxz/promptly/log"
	"github.com/aarontxz/promptly/server"
)

func (s *service) Init(ctx context.Context, _ context.CancelFunc) {
	var cfg config
	appCfg.MustLoadFromKey(applicationYAMLKey, &cfg)
	if cfg.Storage.PrimaryURL != "" {
		s.db = storage.MustConnect(ctx, postgres.DDL(), applicationYAMLKey)
		s.store = postgres.New(s.db)
	} else {
		log.Warn("storage primaryURL is not configured, identities are kept in memory")
		s.store = memory.New()
	}
	s.authClient = auth.MustNew(ctx, applicationYAMLKey, s.store)
}

func (s *service) Close(context.Context) error {
	if s.db != nil {
		s.db.Close()
	}

	return nil
}

func (s *service) CheckHealth(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	return errors.Wrap(s.db.Ping(ctx), "storage is not healthy")
}

func (s *service) AuthClient() auth.Client {
	return s.authClient
}

func (s *service) RegisterRoutes(router *server.Router) {
	router.Group("auth").
		POST("google", server.RootHandler(s.LoginWithGoogle)).
		GET("me", server.RootHandler(s.GetMe)).
		POST("logout", server.RootHandler(s.Logout))
}
