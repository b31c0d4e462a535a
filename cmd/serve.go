package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanhnv2901/seca-recon/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run SECA-RECON as a REST API service",
	RunE: func(cmd *cobra.Command, args []string) error {
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		maxTimeout, _ := cmd.Flags().GetDuration("max-timeout")

		svc, err := newScanService(cliConfig, baseLogger)
		if err != nil {
			return err
		}

		server := api.NewServer(api.Config{
			Scanner:     svc,
			Jobs:        api.NewJobManager(),
			AuthToken:   cliConfig.API.AuthToken,
			Logger:      baseLogger,
			CORSOrigins: corsOrigins,
			RateLimit:   cliConfig.API.RateLimit,
			RateBurst:   cliConfig.API.RateBurst,
			MaxTimeout:  maxTimeout,
		})
		defer server.Close()

		addr := cliConfig.API.Addr
		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		}

		// Channel to listen for errors from the server
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("%s API server listening on %s\n", colorInfo("→"), addr)
			fmt.Printf("%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Printf("\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				// Force close if graceful shutdown fails
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}

			fmt.Printf("%s Server shutdown complete\n", colorInfo("✓"))
		}

		return nil
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&cliConfig.API.Addr, "addr", cliConfig.API.Addr, "Address for the API server")
	flags.StringVar(&cliConfig.API.AuthToken, "auth-token", cliConfig.API.AuthToken, "Optional shared secret for API requests")
	flags.IntVar(&cliConfig.API.RateLimit, "rate-limit", cliConfig.API.RateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	flags.IntVar(&cliConfig.API.RateBurst, "rate-burst", cliConfig.API.RateBurst, "Rate limit burst size")
	flags.Duration("shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	flags.StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	flags.Duration("max-timeout", 60*time.Second, "Upper bound for a request's timeout_seconds (0 = no bound)")
}
