package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sleepwiki/ingredex"
	"github.com/sleepwiki/ingredex/internal/config"
	"github.com/sleepwiki/ingredex/internal/server"
)

const shutdownTimeout = 5 * time.Second

type serveFlags struct {
	decodeFlags
	addr    string
	noWatch bool
	origins []string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the decoded dataset over HTTP",
		Long: "Decodes the cached page and serves the dataset as a read-only JSON API. " +
			"The page is decoded again whenever the cached file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.addr, "addr", "a", "", "Listen address (default: from config)")
	cmd.Flags().BoolVar(&flags.noWatch, "no-watch", false, "Do not reload when the page changes")
	cmd.Flags().StringSliceVar(&flags.origins, "cors-origin", nil, "Allowed CORS origins (default: any)")

	return cmd
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	a, err := loadApp(cmd, func(cfg *config.Config) {
		flags.apply(cmd, cfg)
		if flags.addr != "" {
			cfg.Server.Addr = flags.addr
		}
		if flags.noWatch {
			cfg.Server.Watch = false
		}
	})
	if err != nil {
		return err
	}

	input := flags.inputPath(a.cfg)
	dec, err := a.decoder(input)
	if err != nil {
		return err
	}

	srv, err := server.New(func() (*ingredex.Result, error) {
		return dec.Decode()
	}, server.Options{AllowedOrigins: flags.origins}, a.logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Server.Addr, err)
	}

	return serve(cmd.Context(), a, srv, ln, input)
}

// serve runs the HTTP server on ln until ctx is canceled.
func serve(ctx context.Context, a *app, srv *server.Server, ln net.Listener, input string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	if a.cfg.Server.Watch {
		go func() {
			if err := srv.Watch(ctx, input, server.DefaultDebounce); err != nil {
				a.logger.Warn("file watcher stopped", "error", err)
			}
		}()
	}

	a.logger.Info("serving", "addr", ln.Addr().String(), "input", input, "watch", a.cfg.Server.Watch)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
