package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve the analysis API over HTTP.

Endpoints:
  POST /api/analyze     {"prompt_text", "target_model", "detailed_analysis", "api_key"}
  GET  /api/dimensions
  GET  /health
  GET  /metrics

The listen address defaults to HOST and PORT.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides HOST)")
	serveCmd.Flags().IntP("port", "p", 0, "listen port (overrides PORT)")
	serveCmd.Flags().Duration("drain", 10*time.Second, "how long to wait for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if host, _ := flags.GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := flags.GetInt("port"); port > 0 {
		cfg.Port = port
	}
	drain, _ := flags.GetDuration("drain")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	in, err := newInspector(promptinspector.WithMetrics(reg))
	if err != nil {
		return err
	}
	srv := server.New(in,
		server.WithLogger(logger.With("component", "server")),
		server.WithMetrics(server.NewMetrics(reg), reg))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Addr(), drain)
}

