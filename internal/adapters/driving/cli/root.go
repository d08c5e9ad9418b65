// Package cli implements the marjaa command-line interface.
//
// Commands are thin adapters: they parse flags, call the driving ports
// injected by the composition root, and format output. All business
// logic lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/core/ports/driving"
	"github.com/alrouf-labs/marjaa-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Use-case implementations, injected via SetServices before Execute.
var (
	ingestOrchestrator driving.IngestOrchestrator
	askService         driving.AskService
	quoteService       driving.QuoteService
	sourceService      driving.SourceService
	settingsService    driving.SettingsService
)

var verbose bool

// Services bundles the use-case implementations the CLI drives.
type Services struct {
	Ingest   driving.IngestOrchestrator
	Ask      driving.AskService
	Quote    driving.QuoteService
	Sources  driving.SourceService
	Settings driving.SettingsService
}

// SetServices injects the use-case implementations.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	ingestOrchestrator = s.Ingest
	askService = s.Ask
	quoteService = s.Quote
	sourceService = s.Sources
	settingsService = s.Settings
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "marjaa",
	Short: "Bilingual knowledge base and quotation assistant",
	Long: `Marjaa indexes company documents into a local knowledge base and
answers questions about them in English or Arabic, grounded in the
indexed content. It also prices quotation requests and drafts the
customer emails.

Start by ingesting a directory of documents:

  marjaa ingest ./documents

Then ask questions:

  marjaa ask "What is the warranty on aluminum poles?"
  marjaa ask --lang ar "ما هي مدة الضمان؟"`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
