package commands

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecrew-ai/codecrew/internal/server"
	"github.com/codecrew-ai/codecrew/internal/team"
)

var (
	servePort     int
	serveHostname string
	serveDir      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the codecrew HTTP server",
	Long: `Start the HTTP server that exposes teams over a small JSON API:
team CRUD, broadcasts, and a server-sent-events stream of the event bus.

There is no authentication; keep it bound to loopback unless the
network is trusted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 4096, "Port to listen on")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "127.0.0.1", "Hostname to listen on")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, serveDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	log.Printf("Starting codecrew server v%s", Version)
	log.Printf("Working directory: %s", rt.workDir)

	// Surface externally edited team files as bus events while serving.
	watcher, err := team.NewWatcher(rt.paths.Teams)
	if err != nil {
		log.Printf("Warning: teams watcher unavailable: %v", err)
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Addr = fmt.Sprintf("%s:%d", serveHostname, servePort)
	serverConfig.WorkDir = rt.workDir

	srv := server.New(serverConfig, rt.manager, rt.mcp)

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://%s", serverConfig.Addr)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
