package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/core/domain"
)

var quoteCmd = &cobra.Command{
	Use:   "quote [request.json]",
	Short: "Price a quotation request",
	Long: `Prices a quotation request and drafts the customer emails.

The request is read from the given JSON file, or from stdin when the
argument is "-" or omitted. The priced quotation, including 15% VAT and
bilingual email drafts, is written to stdout as JSON.

Example request:

  {
    "client": {"name": "Ahmed Al-Rashid", "contact": "a@example.com", "lang": "ar"},
    "currency": "SAR",
    "items": [{"sku": "ALR-SL-90W", "qty": 120, "unit_cost": 240.0, "margin_pct": 22}],
    "delivery_terms": "DAP Dammam, 4 weeks"
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	if quoteService == nil {
		return errors.New("quote service not configured")
	}

	data, err := readQuoteRequest(cmd, args)
	if err != nil {
		return err
	}

	var req domain.QuoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("invalid request JSON: %w", err)
	}

	quote, err := quoteService.CreateQuote(context.Background(), &req)
	if err != nil {
		return fmt.Errorf("quotation failed: %w", err)
	}

	return outputJSON(cmd, quote)
}

func readQuoteRequest(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read request from stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return data, nil
}
