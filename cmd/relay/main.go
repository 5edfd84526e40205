package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/livecast/relay/internal/admission"
	"github.com/livecast/relay/internal/config"
	"github.com/livecast/relay/internal/live"
	"github.com/livecast/relay/internal/live/simulated"
	"github.com/livecast/relay/internal/logging"
	"github.com/livecast/relay/internal/relay"
	"github.com/livecast/relay/internal/ws"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Live event relay multiplexer",
		Long:  "relay shares one upstream live connection per streamer across any number of push and poll consumers.",
	}

	var (
		configPath string
		port       int
	)
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			return serve(cfg)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to config file (defaults apply when empty)")
	serveCmd.Flags().IntVar(&port, "port", 0, "override server port")
	rootCmd.AddCommand(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the relay version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config) error {
	logging.Init(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	log := logging.WithComponent("serve")

	live.Register("simulated", simulated.New())
	source, err := live.Open(cfg.Upstream.Driver)
	if err != nil {
		return err
	}

	fanout := relay.NewFanout()
	mux := relay.NewMultiplexer(source, cfg.Upstream.Credential, fanout, logging.WithComponent("multiplexer"))
	registry := relay.NewRegistry(mux, cfg.Relay.Retention)
	cursors := relay.NewCursorTracker()

	server := ws.NewServer(cfg, registry, fanout, cursors, logging.WithComponent("ws"))
	if cfg.Admission.Enabled {
		server.SetGuard(admission.NewLimitGuard(
			cfg.Admission.MaxConnections,
			cfg.Admission.MaxPerIP,
			server.ConnSnapshot,
		))
	}

	httpMux := http.NewServeMux()
	server.SetupRoutes(httpMux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.RunStatistics(ctx)

	log.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("driver", cfg.Upstream.Driver).
		Dur("retention", cfg.Relay.Retention).
		Msg("relay listening")

	if err := ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, httpMux); err != nil && err != http.ErrServerClosed {
		return err
	}
	log.Info().Msg("shut down")
	return nil
}
