package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driving/tui"
	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question-answering session",
	Long: `Starts an interactive chat session against the knowledge base.

Type a question and press Enter. Session commands:
  lang ar  - switch to Arabic answers
  lang en  - switch to English answers
  quit     - exit (also Ctrl+C or Esc)`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	// Surface a stack trace if the TUI panics; bubbletea restores the
	// terminal before the deferred function runs.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	lang := domain.LanguageEnglish
	if settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			lang = settings.Retrieval.DefaultLanguage
		}
	}

	model := tui.NewChat(askService, lang)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat error: %w", err)
	}

	return nil
}
