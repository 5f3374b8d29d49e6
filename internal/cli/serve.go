package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sdbip/agiler-write-model/internal/api"
	"github.com/sdbip/agiler-write-model/internal/domain"
	"github.com/sdbip/agiler-write-model/internal/metrics"
	"github.com/sdbip/agiler-write-model/internal/projection"
	"github.com/sdbip/agiler-write-model/internal/telemetry"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string

	// IDs overrides the aggregate id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs domain.IDGenerator

	// Ready is called with the bound address once the server accepts
	// connections (for testing).
	Ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP write model",
		Long: `Open the event store and serve the HTTP API until interrupted.

On SIGINT or SIGTERM the server stops accepting connections and waits up to
http.shutdown_timeout for in-flight requests.

Example:
  agiler serve --config ./agiler.yaml
  AGILER_DATABASE_DSN=/tmp/agiler.db agiler serve --addr :9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	ss, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	cfg := ss.cfg
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, ss.log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up tracing", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			ss.log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	st, err := ss.openStore()
	if err != nil {
		return err
	}
	defer ss.closeStore(st)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	routerCfg := api.Config{
		Publisher:   m.Publisher(st),
		Reader:      m.HistoryReader(st),
		IDs:         opts.IDs,
		Log:         ss.log,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Health:      st.Ping,
		ServiceName: cfg.Tracing.ServiceName,
	}
	if cfg.Projection.Enabled {
		proj, err := projection.New(ctx, st, ss.log)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open projection", err)
		}
		routerCfg.Projection = proj
	}

	if !ss.out.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Handler:      api.NewRouter(routerCfg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	addr := ln.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	ss.log.Info("server started", "addr", addr, "projection", cfg.Projection.Enabled)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
	case <-ctx.Done():
		ss.log.Info("shutting down", "cause", context.Cause(ctx))
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return WrapExitError(ExitFailure, "shutdown incomplete", err)
	}
	ss.log.Info("server stopped gracefully")
	return nil
}
