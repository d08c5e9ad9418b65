package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

var (
	askLang     string
	askTopK     int
	askJSON     bool
	askRetrieve bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the knowledge base",
	Long: `Answers a question from the indexed documents.

The answer language follows the question's script: Arabic questions get
Arabic answers, everything else gets English. Use --lang to override.
When no indexed content is relevant to the question, marjaa says so
instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLang, "lang", "", "answer language (en or ar, default: detected)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "n", 0, "number of chunks to retrieve (default: configured)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full result as JSON")
	askCmd.Flags().BoolVar(&askRetrieve, "retrieve", false, "retrieve matching chunks without generating an answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if askService == nil {
		return errors.New("ask service not configured")
	}

	if askLang != "" && !domain.Language(askLang).IsValid() {
		return fmt.Errorf("unsupported language %q (use en or ar)", askLang)
	}

	ctx := context.Background()
	opts := domain.AskOptions{
		Language: domain.Language(askLang),
		TopK:     askTopK,
	}

	if askRetrieve {
		return runRetrieve(ctx, cmd, question, opts)
	}

	answer, err := askService.Ask(ctx, question, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNoRelevantContext) {
			cmd.Println("The knowledge base has no relevant content for this question.")
			return nil
		}
		return fmt.Errorf("query failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Printf("Answer (%s, %.1fs):\n\n%s\n", answer.Language, answer.Elapsed.Seconds(), answer.Answer)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, src := range answer.Sources {
			cmd.Printf("  [%d] %s (score %.2f, bytes %d-%d)\n",
				i+1, src.URI, src.Score, src.StartOffset, src.EndOffset)
		}
	}
	return nil
}

func runRetrieve(ctx context.Context, cmd *cobra.Command, question string, opts domain.AskOptions) error {
	chunks, err := askService.Retrieve(ctx, question, opts)
	if err != nil {
		if errors.Is(err, domain.ErrNoRelevantContext) {
			cmd.Println("No chunks cleared the similarity threshold.")
			return nil
		}
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if askJSON {
		return outputJSON(cmd, chunks)
	}

	if len(chunks) == 0 {
		cmd.Println("No chunks cleared the similarity threshold.")
		return nil
	}

	for i, chunk := range chunks {
		cmd.Printf("[%d] %s (score %.2f)\n", i+1, chunk.URI, chunk.Score)
		cmd.Printf("    %s\n\n", preview(chunk.Content, 200))
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// preview truncates s to at most n bytes at a rune boundary.
func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut] + "..."
}
