package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"musicbridge/api"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd)
			handler := api.NewHandler(api.New(a.service, a.logger), a.cfg.Server.CORSOrigins, a.logger)

			srv := &http.Server{
				Addr:              a.cfg.Server.Listen,
				Handler:           handler,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				// Every action gives up after the request timeout, so its JSON body is
				// always written before this deadline.
				WriteTimeout: a.cfg.Server.RequestTimeout() + 5*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server started",
					zap.String("listen", srv.Addr),
					zap.String("app", a.cfg.Player.App),
					zap.String("browser", a.cfg.Browser.Name))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					a.logger.Error("server error", zap.Error(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutdown initiated")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("server shutdown error", zap.Error(err))
				return err
			}
			a.logger.Info("server stopped")
			return nil
		},
	}
}
