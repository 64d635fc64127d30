package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bnema/helpdesk-agent/internal/adapters/commerce/mock"
	"github.com/bnema/helpdesk-agent/internal/adapters/httpapi"
	"github.com/bnema/helpdesk-agent/internal/adapters/observability"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}

				shutdownTracing, err := observability.InitTracing(observability.TracingOptions{
					Enabled: a.cfg.Tracing.Enabled,
					Writer:  cmd.ErrOrStderr(),
				})
				if err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := shutdownTracing(ctx); err != nil {
						a.logger.Warn("flush traces", zap.Error(err))
					}
				}()

				setGinMode(a.cfg.Log.Level, opts.verbose)
				router := httpapi.NewRouter(a.orchestrator, httpapi.Options{
					Logger:  a.logger.Named("http"),
					Metrics: a.metrics.Handler(),
				})

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				return runHTTPServer(ctx, addr, router, a.logger)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from server.addr)")

	return cmd
}

func newMockAPICmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Run the mock commerce API with seeded customers, orders and subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if addr == "" {
				addr = cfg.MockAPI.Addr
			}

			store, err := mock.NewStore(mock.WithLogger(logger.Named("commerce")))
			if err != nil {
				return err
			}

			setGinMode(cfg.Log.Level, opts.verbose)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runHTTPServer(ctx, addr, mock.NewRouter(store, logger), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from mock_api.addr)")

	return cmd
}

func setGinMode(level string, verbose bool) {
	if verbose || level == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

// runHTTPServer serves handler on addr until ctx is done, then drains
// in-flight requests.
func runHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down", zap.String("addr", addr))
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
