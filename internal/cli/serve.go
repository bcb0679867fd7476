package cli

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaidimu/go-listquery/core/query"
	"github.com/asaidimu/go-listquery/httpapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /api/{resource} for every catalog resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	bus, err := query.NewEventBus()
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	unsubscribe := query.Subscribe(bus, query.QueryExecuteSuccess, func(_ context.Context, event query.QueryEvent) error {
		logger.Info("Served list query",
			zap.String("resource", event.Resource),
			zap.Int64p("total", event.TotalCount),
			zap.Int64p("durationMs", event.Duration),
		)
		return nil
	})
	defer unsubscribe()

	server := httpapi.NewServer(
		httpapi.WithLogger(logger),
		httpapi.WithTimeout(cfg.Timeout),
		httpapi.WithAdminCheck(adminCheck(cfg.AdminToken)),
		httpapi.WithQueryOptions(queryOptions(cfg, bus)...),
	)
	for i := range b.catalog.Resources {
		def := &b.catalog.Resources[i]
		server.Register(def, b.stores[def.Name])
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting API server", zap.String("addr", cfg.Addr), zap.Strings("resources", server.Resources()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// adminCheck grants admin access to requests carrying token in the
// X-Admin-Token header. An empty token disables admin access.
func adminCheck(token string) httpapi.AdminCheck {
	return func(r *http.Request) bool {
		if token == "" {
			return false
		}
		got := r.Header.Get("X-Admin-Token")
		return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
	}
}

func queryOptions(cfg *Config, bus *query.EventBus) []query.Option {
	opts := []query.Option{}
	if bus != nil {
		opts = append(opts, query.WithEventBus(bus))
	}
	if cfg.Reject {
		opts = append(opts, query.WithCoercionPolicy(query.CoercionPolicyReject))
	}
	return opts
}
