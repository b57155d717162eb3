package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"guestdex/internal/index"
	"guestdex/internal/metrics"
	"guestdex/internal/pager"
	"guestdex/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the query API server",
	Long: `Start the JSON-RPC query server. With dev.enabled the embedded dev
ledger backs the index; otherwise the configured remote node does.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnv()
		if err != nil {
			return err
		}
		defer log.Sync()

		be, err := buildBackends(cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		registry := prometheus.NewRegistry()
		m := metrics.New(registry)

		cache := index.New(be.client, index.Config{MaxNameLen: cfg.Index.MaxNameLen}, log, m)
		engine := pager.New(be.client, cache, be.owner, log, m)

		api := server.New(server.Config{
			Version:         rootCmd.Version,
			DefaultPageSize: cfg.Index.DefaultPageSize,
			RequestTimeout:  cfg.Ledger.Timeout,
		}, engine, cache, log)

		mux := http.NewServeMux()
		mux.Handle("/", api)
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		httpSrv := &http.Server{Addr: cfg.Server.Listen, Handler: mux}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("query server listening",
				zap.String("addr", cfg.Server.Listen),
				zap.Bool("dev_ledger", cfg.Dev.Enabled))
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
