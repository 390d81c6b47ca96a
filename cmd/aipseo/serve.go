package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"aipseo/internal/adapter/http/handler"
	"aipseo/internal/toolspec"
	"aipseo/pkg/apperror"
)

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "Run the HTTP agent surface (tool discovery and read-only lookups)",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "listen host (defaults to server.host from config)",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "listen port (defaults to server.port from config)",
		},
	},
	Action: serveAction,
}

func serveAction(ctx *cli.Context) error {
	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}

	if host := ctx.String("host"); host != "" {
		d.cfg.Server.Host = host
	}
	if ctx.IsSet("port") {
		d.cfg.Server.Port = ctx.Int("port")
	}

	router := handler.SetupRouter(handler.RouterDeps{
		Market: d.market,
		Tools:  toolspec.FromCommands(ctx.App.Commands),
		Logger: d.log,
	})

	srv := &http.Server{
		Addr:    d.cfg.Server.Addr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		d.log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return apperror.InternalError(err)
	case <-quit:
	}
	d.log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return apperror.InternalError(err)
	}
	return nil
}
