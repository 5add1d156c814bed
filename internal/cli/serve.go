package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"faceid/internal/usecase"
	"faceid/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Serve enrollment and matching over HTTP under /api/v1.

Examples:
  faceid serve
  faceid serve --addr :9090 --security high`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	addThresholdFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	threshold, err := resolveThreshold(cmd)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	st, err := openStore(false)
	if err != nil {
		return err
	}
	defer st.Close()

	// The extractor only feeds the health endpoint here; an unreachable
	// service is reported there rather than failing startup.
	ext, err := newExtractor(cmd.Context())
	if err != nil {
		logger.Warn("extractor unavailable", "error", err)
	}

	enrollment := newEnrollment(st)
	server := web.NewServer(addr, web.Deps{
		Registry:  enrollment,
		Matcher:   usecase.NewMatchUseCase(enrollment),
		Extractor: ext,
		Threshold: threshold,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Serving faceid API on http://%s/api/v1 (threshold %.2f)\n", addr, threshold)
	return server.Start()
}
