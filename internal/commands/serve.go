package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/handlers"
	"github.com/dudumaluf/BOT-TextureGen/internal/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the node host HTTP server",
	Long: `Run an HTTP server that executes registered nodes and serves saved outputs.

Endpoints:
  POST /invoke        execute a node
  GET  /object_info   list node definitions
  GET  /view          serve a saved output file
  GET  /health        liveness check`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newRouter(a *app) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("/", handlers.IndexHandler)
	router.HandleFunc("/health", handlers.HealthCheckHandler)
	router.Handle("/object_info", handlers.ObjectInfoHandler(a.registry))
	router.Handle("/invoke", middleware.LogRequest(a.logger, handlers.NewInvokeHandler(a.registry, a.logger, a.cfg.MaxRequestBytes)))
	router.Handle("/view", middleware.LogRequest(a.logger, handlers.NewViewHandler(a.resolver, a.logger)))
	return router
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      newRouter(a),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: a.cfg.WebhookTimeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", zap.String("port", a.cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	a.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	a.logger.Info("server exiting")
	return nil
}
