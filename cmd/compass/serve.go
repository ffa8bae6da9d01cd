package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ahrav/go-compass/internal/api"
)

func runServe(ctx context.Context, args []string, env *environment) error {
	fs, flags := newFlagSet("serve", env)
	addr := fs.String("addr", "", "listen address (default: server.addr)")
	origins := fs.String("cors", "", "comma-separated origins allowed to call the API from a browser")
	if err := parse(fs, args); err != nil {
		return err
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	if *addr == "" {
		*addr = a.cfg.Server.Addr
	}
	opts := []api.Option{
		api.WithLogger(a.logger),
		api.WithDuplicatePolicy(a.cfg.DuplicatePolicy()),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, api.WithGatherer(a.registry))
	}
	if *origins != "" {
		opts = append(opts, api.WithAllowedOrigins(strings.Split(*origins, ",")...))
	}
	srv, err := api.NewServer(a.catalog, a.engine, opts...)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", *addr), zap.String("catalog", a.catalog.Name))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.logger.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
