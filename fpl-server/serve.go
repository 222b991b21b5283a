package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fpl-strategy-mcp/internal/config"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning tools over streamable HTTP MCP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg.Server

	if cfg.RefreshCron != "" {
		c := cron.New(cron.WithSeconds())
		if _, err := c.AddFunc(cfg.RefreshCron, func() {
			rctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if err := a.refresh(rctx, cfg.RefreshEntries); err != nil {
				log.Error().Err(err).Msg("scheduled refresh failed")
			}
		}); err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
		log.Info().Str("schedule", cfg.RefreshCron).Msg("scheduled refresh enabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("path", cfg.MCPPath).Msg("MCP HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

func newMux(a *app) *http.ServeMux {
	cfg := a.cfg.Server
	server, registry := newMCPServer(a)

	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	auth := func(next http.HandlerFunc) http.HandlerFunc {
		return withAuth(cfg.APIKey, cfg.AuthHeader, next)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", auth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	mux.HandleFunc("/tools", auth(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		b, _ := json.MarshalIndent(map[string]any{"tools": registry}, "", "  ")
		w.Write(b)
	}))

	mux.Handle("/metrics", auth(a.metrics.Handler().ServeHTTP))

	mux.HandleFunc(cfg.MCPPath, auth(func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	}))
	return mux
}

// withAuth passes requests carrying apiKey in header or as a bearer token.
// An empty apiKey disables the check.
func withAuth(apiKey, header string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" {
			next(w, r)
			return
		}
		key := strings.TrimSpace(r.Header.Get(header))
		if key == "" {
			if authz := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[7:])
			}
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next(w, r)
	}
}
