package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lunarlog/cycle-engine/api"
	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/metrics"
	"github.com/lunarlog/cycle-engine/reminders"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, when enabled, the daily reminder scheduler.

On SIGINT/SIGTERM the server stops accepting connections, waits for active
requests to finish (30s timeout), ends open cycle streams, stops the
scheduler and closes the database.`,
		Example: `  # Run with file database
  lunarlog serve --db ./data/lunarlog.db

  # Run on a different port
  lunarlog serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			m := metrics.New("lunarlog")
			repo := cycle.NewRepository(metrics.InstrumentStore(store, m))

			if cfg.Reminders.Enabled {
				sched := reminders.NewScheduler(repo, store, reminders.LogNotifier{}, m)
				if err := sched.Start(cfg.Reminders.Schedule); err != nil {
					return err
				}
				defer sched.Stop()
			}

			handler := api.NewHandler(repo, store)
			router := api.NewRouter(handler, api.RouterOptions{
				CORSOrigins: cfg.Server.CORSOrigins,
				Metrics:     m,
			})

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			return runServer(cmd.Context(), server)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port (overrides server.port)")

	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return serve(ctx, server, ln)
}

// serve runs server on ln. Request contexts are cancelled when shutdown
// begins so long-lived streams end instead of holding Shutdown open.
func serve(ctx context.Context, server *http.Server, ln net.Listener) error {
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	server.BaseContext = func(net.Listener) context.Context { return baseCtx }
	server.RegisterOnShutdown(cancelRequests)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("Server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
