package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/greenlens/internal/api"
	"github.com/sprite-ai/greenlens/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the greenlens engine to editor clients.

Endpoints:
  GET    /health            Health check
  POST   /api/parse         Parse analyzer output into records
  POST   /api/annotate      Annotate analyzer output for a document
  POST   /api/analyze       Run the analyzer on a file and keep the result
  GET    /api/annotations   Current annotations for a file (?path=)
  DELETE /api/annotations   Clear annotations for a file (?path=)
  GET    /api/ws            WebSocket for editor sessions`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 6142, "port to listen on")
}

// listenAddr starts from the configured listen address and applies
// --addr and --port when given.
func listenAddr(cmd *cobra.Command) string {
	host, port := "127.0.0.1", "6142"
	if h, p, err := net.SplitHostPort(cfg.Listen); err == nil {
		host, port = h, p
	}
	if cmd.Flags().Changed("addr") {
		host, _ = cmd.Flags().GetString("addr")
	}
	if cmd.Flags().Changed("port") {
		n, _ := cmd.Flags().GetInt("port")
		port = strconv.Itoa(n)
	}
	return net.JoinHostPort(host, port)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newAnnotator(false)
	if err != nil {
		return err
	}
	srv := api.New(listenAddr(cmd), a, session.New())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}
