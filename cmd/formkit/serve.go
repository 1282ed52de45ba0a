package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"

	"github.com/goliatone/go-formkit/pkg/auth"
	"github.com/goliatone/go-formkit/pkg/reactive/fiberapi"
	"github.com/goliatone/go-formkit/pkg/reactive/httpapi"
	"github.com/goliatone/go-formkit/pkg/reactive/wsapi"
	"github.com/goliatone/go-formkit/pkg/resolver/searchapi"
	"github.com/goliatone/go-formkit/pkg/telemetry"
)

const (
	wsPath          = "/_formkit/ws"
	shutdownTimeout = 10 * time.Second
)

func runServe(ctx context.Context, args []string) error {
	var c common
	fs := newFlagSet("serve", &c)
	addr := fs.String("addr", "", "listen address, overrides server.addr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := setup(ctx, c)
	if err != nil {
		return err
	}
	defer rt.Close()
	if *addr != "" {
		rt.cfg.Server.Addr = *addr
	}

	shutdown, err := telemetry.Setup(ctx, rt.cfg.Telemetry.Endpoint, rt.cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdown(sctx)
	}()

	if rt.cfg.Server.Transport == "fiber" {
		return serveFiber(ctx, rt)
	}
	return serveHTTP(ctx, rt)
}

func newMux(rt *runtime) (*http.ServeMux, error) {
	mux := http.NewServeMux()
	base := rt.cfg.Server.BasePath
	engine := rt.kit.Engine

	update, err := httpapi.RegisterRoutes(mux, base, engine, httpapi.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}
	search, err := searchapi.RegisterRoutes(mux, base, engine, searchapi.WithLogger(rt.logger))
	if err != nil {
		return nil, err
	}
	ws := httpapi.JoinPath(base, wsPath)
	mux.Handle(ws, wsapi.Handler(engine, wsapi.WithLogger(rt.logger)))

	rt.logger.Info("formkit: routes mounted", "update", update, "search", search, "ws", ws)
	return mux, nil
}

func serveHTTP(ctx context.Context, rt *runtime) error {
	mux, err := newMux(rt)
	if err != nil {
		return err
	}
	var handler http.Handler = mux
	if secret := rt.cfg.Auth.JWTSecret; secret != "" {
		handler = auth.Middleware(secret)(handler)
	}
	handler = telemetry.Middleware(otel.GetTracerProvider(), handler)

	srv := &http.Server{
		Addr:              rt.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("formkit: listening", "addr", srv.Addr, "transport", "http")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

func serveFiber(ctx context.Context, rt *runtime) error {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	var middleware []fiber.Handler
	if secret := rt.cfg.Auth.JWTSecret; secret != "" {
		middleware = append(middleware, auth.FiberMiddleware(secret))
	}
	router := app.Group(rt.cfg.Server.BasePath)
	if err := fiberapi.Register(router, rt.kit.Engine,
		fiberapi.WithLogger(rt.logger),
		fiberapi.WithMiddleware(middleware...),
	); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("formkit: listening", "addr", rt.cfg.Server.Addr, "transport", "fiber")
		errCh <- app.Listen(rt.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
