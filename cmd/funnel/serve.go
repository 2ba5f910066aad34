package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/funnel/internal/cli"
	httpadapter "github.com/aretw0/funnel/pkg/adapters/http"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves funnel sessions over a JSON API, with Server-Sent Events per session.
When a database or a generative model is configured, the persistence and
generation endpoints are served too. Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = cfg.ListenAddr
		}

		stack, err := openStack(cmd, cli.WithGenerator(), cli.WithEvents())
		if err != nil {
			return err
		}
		defer stack.Close()
		logger := stack.Logger

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		stack.Hooks = metrics.Hooks().Merge(observability.LogHooks(logger))

		handler := httpadapter.NewHandler(stack.SessionService(), serverOptions(stack, reg)...)

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting Funnel Server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Funnel Server stopped gracefully")
		}
		return nil
	},
}

// serverOptions mounts only the routes whose backends are configured; the others answer 501.
func serverOptions(stack *cli.Stack, reg *prometheus.Registry) []httpadapter.Option {
	opts := []httpadapter.Option{
		httpadapter.WithSubmissions(stack.Submissions),
		httpadapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})),
		httpadapter.WithLogger(stack.Logger),
	}
	if stack.Leads != nil {
		opts = append(opts, httpadapter.WithLeads(stack.Leads))
	}
	if stack.Funnels != nil {
		opts = append(opts, httpadapter.WithFunnels(stack.Funnels))
	}
	if stack.Publisher != nil {
		opts = append(opts, httpadapter.WithPublisher(stack.Publisher))
	}
	if stack.Generator != nil {
		opts = append(opts, httpadapter.WithGenerator(stack.Generator))
		if enricher, err := stack.Enricher(); err == nil {
			opts = append(opts, httpadapter.WithEnricher(enricher))
		}
	}
	return opts
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
