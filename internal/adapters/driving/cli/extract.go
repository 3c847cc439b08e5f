package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homeradar/internal/core/domain"
)

var (
	extractGroup string
	extractJSON  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Run deterministic extraction on text",
	Long: `Extracts price, city, location, rooms and phone from text without
calling the LLM. Reads standard input when no text is given.

Useful for tuning the gazetteer and keyword lists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractGroup, "group", "g", "", "feed group name used as a city hint")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output fields as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	if detailExtractor == nil {
		return errors.New("extractor not configured")
	}

	var text string
	if len(args) > 0 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read text: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("no text to extract from")
	}

	details := detailExtractor.Extract(text, extractGroup)

	if extractJSON {
		data, err := json.MarshalIndent(details, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal details: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printDetails(cmd, details)
	return nil
}

func printDetails(cmd *cobra.Command, d domain.ExtractedDetails) {
	cmd.Printf("  Price:        %s\n", orDash(d.PriceString()))
	cmd.Printf("  City:         %s\n", orDash(d.City))
	cmd.Printf("  Neighborhood: %s\n", orDash(d.Neighborhood))
	cmd.Printf("  Street:       %s\n", orDash(d.Street))
	cmd.Printf("  Location:     %s\n", orDash(d.Location))
	cmd.Printf("  Rooms:        %s\n", orDash(d.Rooms))
	cmd.Printf("  Phone:        %s\n", orDash(d.Phone))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
