package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/connectors/filesystem"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

var (
	ingestIncremental bool
	ingestReindex     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path|source-id]",
	Short: "Ingest documents into the knowledge base",
	Long: `Runs the ingestion pipeline for a source: fetch, normalise, chunk,
embed and index.

The argument may be a directory path or an existing source ID. A
directory is registered as a filesystem source on first use and reused
afterwards. Re-ingesting unchanged documents is a no-op: documents are
identified by content hash.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestIncremental, "incremental", false,
		"apply only changes since the last ingestion")
	ingestCmd.Flags().BoolVar(&ingestReindex, "reindex", false,
		"re-embed and re-index stored chunks without re-fetching")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	ctx := context.Background()

	sourceID, err := resolveSourceArg(ctx, cmd, args[0])
	if err != nil {
		return err
	}

	var report *domain.IngestReport
	switch {
	case ingestReindex:
		cmd.Printf("Reindexing source %s...\n", sourceID)
		report, err = ingestOrchestrator.Reindex(ctx, sourceID)
	case ingestIncremental:
		cmd.Printf("Ingesting changes for source %s...\n", sourceID)
		report, err = ingestOrchestrator.IngestIncremental(ctx, sourceID)
	default:
		cmd.Printf("Ingesting source %s...\n", sourceID)
		report, err = ingestOrchestrator.IngestSource(ctx, sourceID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrIngestInProgress) {
			return fmt.Errorf("an ingestion for this source is already running: %w", err)
		}
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printIngestReport(cmd, report)
	return nil
}

// resolveSourceArg maps a directory path to a registered filesystem
// source, creating one on first use. Anything that is not an existing
// directory is treated as a source ID.
func resolveSourceArg(ctx context.Context, cmd *cobra.Command, arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil || !info.IsDir() {
		return arg, nil
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	sources, err := sourceService.ListSources(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list sources: %w", err)
	}
	for i := range sources {
		if sources[i].Type == filesystem.ConnectorType && sources[i].Config["path"] == abs {
			return sources[i].ID, nil
		}
	}

	source, err := sourceService.AddSource(ctx, filepath.Base(abs), filesystem.ConnectorType,
		map[string]string{"path": abs})
	if err != nil {
		return "", fmt.Errorf("failed to register source: %w", err)
	}
	cmd.Printf("Registered source %s for %s\n", source.ID, abs)
	return source.ID, nil
}

func printIngestReport(cmd *cobra.Command, report *domain.IngestReport) {
	if report == nil {
		return
	}

	cmd.Printf("Ingestion complete in %.1fs: %d processed, %d skipped, %d failed, %d chunks indexed.\n",
		report.Elapsed.Seconds(),
		report.DocumentsProcessed,
		report.DocumentsSkipped,
		report.DocumentsFailed,
		report.ChunksIndexed)

	for _, f := range report.Failures {
		cmd.Printf("  failed %s (%s): %s\n", f.URI, f.Stage, f.Reason)
	}
}
