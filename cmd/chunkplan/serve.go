package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/mcp"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/version"
)

// serveFlags holds the flags for the serve command
type serveFlags struct {
	metricsAddr string
}

var serveOpts serveFlags

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planning tools over MCP (stdio)",
	Long: `Serve exposes chunk_sizes, peripheral_configs and plan_operation as
Model Context Protocol tools on stdin/stdout. Logs go to stderr.

With --metrics-addr, Prometheus metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := openSession(cmd, cfg, cfg.Planner.Seed, false)
		if err != nil {
			return err
		}
		defer sess.Close()

		if serveOpts.metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", sess.metrics.Handler())
			metricsSrv := &http.Server{
				Addr:              serveOpts.metricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					sess.logger.Error("metrics server failed", "addr", serveOpts.metricsAddr, "error", err)
				}
			}()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				metricsSrv.Shutdown(ctx)
			}()
			sess.logger.Info("serving metrics", "addr", serveOpts.metricsAddr)
		}

		srv := mcp.NewServer(mcp.ServerConfig{
			Planner: sess.planner,
			Store:   sess.store,
			Version: version.String(),
			Logger:  sess.logger,
		})
		sess.logger.Info("serving MCP over stdio", "version", version.String(), "store", sess.store != nil)
		return server.ServeStdio(srv)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint, e.g. :9090 (disabled when empty)")
}
