package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nelfund/navigator-go/internal/logging"
	"github.com/nelfund/navigator-go/internal/memory"
	"github.com/nelfund/navigator-go/internal/provider"
)

// NewAskCmd constructs the `navigator ask` command, which runs a single
// question through the full pipeline and prints the answer with its sources.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-off question about the NELFUND loan program",
		Long: `Ask a single question and print the grounded answer with its sources.

The question runs through the same pipeline as the HTTP API — classification,
retrieval against the ingested NELFUND documents, and cited generation — but
with throwaway in-memory history.

Examples:
  navigator ask "am I eligible for a NELFUND loan?"
  navigator ask "what documents do I need to apply?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()
			ctx := logging.WithLogger(cmd.Context(), log)

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			retriever, _, closeRetriever, err := buildRetriever(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeRetriever()

			// One-shot invocation: history lives and dies with the process.
			memStore, err := memory.OpenSQLite(":memory:")
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer func() { _ = memStore.Close() }()

			eng, err := buildEngine(chatModel, retriever, memStore)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			result, err := eng.HandleMessage(ctx, "", strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			fmt.Println(result.Answer)
			if len(result.Sources) > 0 {
				fmt.Printf("\nSources: %s\n", strings.Join(result.Sources, "; "))
			}
			return nil
		},
	}

	return cmd
}
