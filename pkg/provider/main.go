package provider

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/graftlabs/graft/pkg/tasks"
	"github.com/graftlabs/graft/pkg/telemetry"
)

// Main is the entrypoint a component provider binary delegates to. It parses
// the engine's command line, wires telemetry, serves the provider, and shuts
// down on interrupt. Typical usage:
//
//	func main() {
//		provider.Main("my-provider", &myProvider{})
//	}
func Main(name string, p Provider) {
	if err := runMain(name, p); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func runMain(name string, p Provider) error {
	var (
		logToStderr     bool
		telemetryConfig string
		schemaFile      string
		listenAddr      string
	)

	root := &cobra.Command{
		Use:           name + " <engine-endpoint>",
		Short:         name + " component provider",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var engineEndpoint string
			if len(args) > 0 {
				engineEndpoint = args[0]
			}

			cfg := telemetry.DefaultConfig()
			if telemetryConfig != "" {
				loaded, err := telemetry.LoadFile(telemetryConfig)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			cfg.ServiceName = name
			cfg.ServiceVersion = p.Version()
			if logToStderr {
				cfg.Logging.Output = "stderr"
			}

			tel, err := telemetry.New(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigChan
				tel.Logger.Info().Msg("received interrupt signal, shutting down")
				cancel()
			}()

			metricsErrs := tel.Metrics.StartMetricsServer()
			go func() {
				for err := range metricsErrs {
					tel.Logger.Error().Err(err).Msg("metrics endpoint failed")
				}
			}()

			reg := tasks.NewRegistry()
			opts := []ServerOption{
				WithTelemetry(tel),
				WithEngineEndpoint(engineEndpoint),
				WithTaskRegistry(reg),
			}

			if schemaFile != "" {
				sf, err := WatchSchemaFile(schemaFile, tel.Logger)
				if err != nil {
					return err
				}
				defer sf.Close()
				opts = append(opts, WithSchemaSource(sf.Schema))
			}

			srv := NewServer(p, opts...)
			serveErr := Serve(ctx, srv, ServeOptions{Address: listenAddr})

			if err := tel.Shutdown(context.Background()); err != nil {
				tel.Logger.Warn().Err(err).Msg("telemetry shutdown failed")
			}
			return serveErr
		},
	}

	root.Flags().BoolVar(&logToStderr, "logtostderr", false, "log to stderr instead of the configured output")
	root.Flags().StringVar(&telemetryConfig, "telemetry-config", "", "path to a YAML telemetry configuration file")
	root.Flags().StringVar(&schemaFile, "schema-file", "", "serve the schema from this file, reloading on change")
	root.Flags().StringVar(&listenAddr, "listen", "", "listen address (defaults to an ephemeral loopback port)")

	return root.ExecuteContext(context.Background())
}
