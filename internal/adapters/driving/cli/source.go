package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/connectors/filesystem"
)

var sourceAddName string

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "Manage document sources",
	Long:  `Add, list and remove the sources documents are ingested from.`,
}

var sourceAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a directory as a filesystem source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceAdd,
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	RunE:  runSourceList,
}

var sourceRemoveCmd = &cobra.Command{
	Use:   "remove [source-id]",
	Short: "Remove a source and everything ingested from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourceRemove,
}

func init() {
	sourceAddCmd.Flags().StringVar(&sourceAddName, "name", "", "source name (default: directory name)")
	sourceCmd.AddCommand(sourceAddCmd)
	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceRemoveCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	name := sourceAddName
	if name == "" {
		name = filepath.Base(abs)
	}

	source, err := sourceService.AddSource(context.Background(), name, filesystem.ConnectorType,
		map[string]string{"path": abs})
	if err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}

	cmd.Printf("Added source %s (%s) for %s\n", source.ID, source.Name, abs)
	return nil
}

func runSourceList(cmd *cobra.Command, _ []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	sources, err := sourceService.ListSources(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	if len(sources) == 0 {
		cmd.Println("No sources configured. Add one with 'marjaa source add <path>'.")
		return nil
	}

	for i := range sources {
		cmd.Printf("%s  %-12s %s\n", sources[i].ID, sources[i].Type, sources[i].Name)
		if path := sources[i].Config["path"]; path != "" {
			cmd.Printf("%38s%s\n", "", path)
		}
	}
	return nil
}

func runSourceRemove(cmd *cobra.Command, args []string) error {
	if sourceService == nil {
		return errors.New("source service not configured")
	}

	if err := sourceService.RemoveSource(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to remove source: %w", err)
	}

	cmd.Printf("Removed source %s.\n", args[0])
	return nil
}
