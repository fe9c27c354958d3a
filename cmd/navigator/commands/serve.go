package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/nelfund/navigator-go/internal/logging"
	"github.com/nelfund/navigator-go/internal/provider"
	"github.com/nelfund/navigator-go/internal/server"
	"github.com/nelfund/navigator-go/internal/tracing"
)

// NewServeCmd constructs the `navigator serve` command, which starts the
// HTTP server exposing the chat API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the NELFUND Navigator HTTP server",
		Long: `Start the Navigator HTTP server on localhost.

The server exposes a JSON REST API:
  POST /api/chat                          run one conversation turn
  GET  /api/sessions/{session}/history    read recent turns for a session
  GET  /api/health                        liveness probe
  GET  /api/ready                         readiness probe (LLM, Qdrant, memory)
  GET  /metrics                           Prometheus metrics

Examples:
  navigator serve
  navigator serve --port 9090
  MODEL_PROVIDER=openai navigator serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			retriever, qdrantStore, closeRetriever, err := buildRetriever(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeRetriever()

			memStore, err := buildMemoryStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = memStore.Close() }()

			eng, err := buildEngine(chatModel, retriever, memStore)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			pingers := []server.Pinger{
				server.NewLLMPinger(chatModel, string(providerCfg.Backend)),
				server.NewQdrantPinger(qdrantStore.Client()),
				server.NewMemoryPinger(memStore, getEnvOrDefault("NAVIGATOR_MEMORY_BACKEND", "sqlite")),
			}

			srv, err := server.New(eng, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("NAVIGATOR_API_KEY"),
				History: memStore,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
