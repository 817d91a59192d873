// SPDX-License-Identifier: ice License 1.0

package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/auth"
	appCfg "github.com/aarontxz/promptly/config"
	"github.com/aarontxz/promptly/log"
)

func New(state State, cfgKey string) Server {
	loadConfig(cfgKey)

	return &srv{State: state, applicationYAMLKey: cfgKey}
}

// NewRouter builds the fully wired router without listening, for in-process use.
// The state is expected to be initialized already.
func NewRouter(state State, cfgKey string) *Router {
	loadConfig(cfgKey)
	s := &srv{State: state, applicationYAMLKey: cfgKey}
	s.setupRouter()

	return s.router
}

// The configuration is process wide, so only the first key wins.
func loadConfig(cfgKey string) {
	cfgOnce.Do(func() {
		appCfg.MustLoadFromKey(cfgKey, &cfg)
		appCfg.MustLoadFromKey("development", &development)
		if cfg.DefaultEndpointTimeout <= 0 {
			cfg.DefaultEndpointTimeout = defaultEndpointTimeout
		}
	})
}

func (s *srv) ListenAndServe(ctx context.Context, cancel context.CancelFunc) {
	s.Init(ctx, cancel)
	s.setupRouter() //nolint:contextcheck // Nope, we don't need it.
	s.setupServer(ctx)
	go s.startServer()
	s.wait(ctx)
	s.shutDown() //nolint:contextcheck // Nope, we want to gracefully shutdown on a different context.
}

func (s *srv) setupRouter() {
	if !development {
		gin.SetMode(gin.ReleaseMode)
		s.router = gin.New()
		s.router.Use(gin.Recovery())
	} else {
		gin.ForceConsoleColor()
		s.router = gin.Default()
	}
	log.Info(fmt.Sprintf("GIN Mode: %v\n", gin.Mode()))
	s.router.RemoteIPHeaders = []string{"cf-connecting-ip", "X-Real-IP", "X-Forwarded-For"}
	s.router.TrustedPlatform = gin.PlatformCloudflare
	s.router.HandleMethodNotAllowed = true
	s.router.RedirectFixedPath = true
	s.router.RemoveExtraSlash = true
	s.router.UseRawPath = true
	s.router.Use(withAuthClient(s.AuthClient()))

	log.Info("registering routes...")
	s.RegisterRoutes(s.router)
	log.Info(fmt.Sprintf("%v routes registered", len(s.router.Routes())))
	s.setupHealthCheckRoutes()
}

func withAuthClient(client auth.Client) gin.HandlerFunc {
	if client == nil {
		log.Panic("auth client is required")
	}

	return func(ginCtx *gin.Context) {
		ginCtx.Request = ginCtx.Request.WithContext(context.WithValue(ginCtx.Request.Context(), authClientCtxValueKey, client)) //nolint:staticcheck,revive // .
		ginCtx.Next()
	}
}

func (s *srv) setupHealthCheckRoutes() {
	s.router.GET("health-check", RootHandler(func(ctx context.Context, req *Request[healthCheck, map[string]string]) (*Response[map[string]string], *Response[ErrorResponse]) { //nolint:lll // .
		if err := s.State.CheckHealth(ctx); err != nil {
			return nil, Unexpected(errors.Wrapf(err, "health check failed"))
		}

		return OK(&map[string]string{"clientIp": req.ClientIP.String()}), nil
	}))
}

func (s *srv) setupServer(ctx context.Context) {
	s.quit = make(chan os.Signal, 1)
	s.server = &http.Server{ //nolint:gosec // Not an issue, each request has a deadline set by the handler; and we're behind a proxy.
		Addr:    fmt.Sprintf(":%v", cfg.HTTPServer.Port),
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
}

func (s *srv) startServer() {
	defer log.Info("server stopped listening")
	log.Info(fmt.Sprintf("server started listening on %v...", cfg.HTTPServer.Port))

	isUnexpectedError := func(err error) bool {
		return err != nil &&
			!errors.Is(err, io.EOF) &&
			!errors.Is(err, http.ErrServerClosed)
	}

	var err error
	if cfg.HTTPServer.CertPath != "" && cfg.HTTPServer.KeyPath != "" {
		err = errors.Wrap(s.server.ListenAndServeTLS(cfg.HTTPServer.CertPath, cfg.HTTPServer.KeyPath), "server.ListenAndServeTLS failed")
	} else {
		err = errors.Wrap(s.server.ListenAndServe(), "server.ListenAndServe failed")
	}
	if isUnexpectedError(err) {
		s.quit <- syscall.SIGTERM
		log.Error(err)
	}
}

func (s *srv) wait(ctx context.Context) {
	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)

	select {
	case <-ctx.Done():
	case <-s.quit:
	}
}

func (s *srv) shutDown() {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DefaultEndpointTimeout)
	defer cancel()
	log.Info("shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "server shutdown failed"))
	} else {
		log.Info("server shutdown succeeded")
	}

	if err := s.State.Close(ctx); err != nil && !errors.Is(err, io.EOF) {
		log.Error(errors.Wrap(err, "state close failed"))
	} else {
		log.Info("state close succeeded")
	}
}
