package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meshgateway/internal/app"
	"meshgateway/internal/logging"
	"meshgateway/internal/mesh"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, port string

	cmd := &cobra.Command{
		Use:          "meshgateway",
		Short:        "Server-rendered vehicle catalog on top of Gentics Mesh",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				configPath = os.Getenv("MESH_GATEWAY_CONFIG")
			}
			cfg, err := app.LoadConfigFrom(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (defaults to $MESH_GATEWAY_CONFIG)")
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides $PORT)")
	return cmd
}

func run(ctx context.Context, cfg app.Config) error {
	logger := logging.Init(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	client, err := mesh.New(cfg.Mesh)
	if err != nil {
		return fmt.Errorf("init mesh client: %w", err)
	}

	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("mesh login: %w", err)
	}

	handler, err := app.NewServer(client, cfg, logger)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("meshgateway listening",
			"addr", srv.Addr,
			"mesh", cfg.Mesh.BaseURL,
			"project", cfg.Mesh.Project,
			"resolver", cfg.Mesh.Resolver,
			"auth", cfg.Mesh.Auth,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("graceful shutdown failed", "err", err)
	}
	return nil
}
