package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumahq/luma/internal/logging"
	"github.com/lumahq/luma/internal/server"
	"github.com/lumahq/luma/internal/svc"
)

// ServeCmd creates the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant server",
		Long:  `Start the Luma HTTP server and background jobs.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	if !verbose {
		logging.Disable()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal: %v - Shutting down...\n", sig)
		cancel()
	}()

	c := ServerConfig

	// Single owner of the database connection; the server reuses it.
	svcCtx, err := svc.NewServiceContext(*c, modelsPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service: %v\n", err)
		os.Exit(1)
	}
	defer svcCtx.Close()

	opts := server.ServerOptions{
		SvcCtx: svcCtx,
		Quiet:  !verbose,
	}

	fmt.Printf("Luma running at http://localhost:%d\n", c.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Run(ctx, *c, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Luma stopped.")
}
