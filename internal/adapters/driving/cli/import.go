package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import raw transactions from the public dataset",
	Long: `Pages through the Iowa liquor sales dataset on data.iowa.gov and stores
every transaction row locally. Each import resumes after the rows already
stored, so repeated imports only fetch what is new.

The dataset holds tens of millions of rows. Use --limit for a sample.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntP("limit", "n", 0, "maximum rows to read this run (0 = rest of the dataset)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", domain.ErrInvalidInput)
	}

	s, err := loadServices(cmd)
	if err != nil {
		return err
	}
	if s.Import == nil {
		return errors.New("import service not available")
	}

	out := cmd.OutOrStdout()
	if limit > 0 {
		titleColor.Fprintf(out, "Importing up to %s rows\n", humanize.Comma(int64(limit)))
	} else {
		titleColor.Fprintln(out, "Importing the full dataset")
	}

	inserted, err := s.Import.Import(cmd.Context(), limit)
	fmt.Fprintf(out, "  Rows inserted: %s\n", humanize.Comma(int64(inserted)))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	successColor.Fprintln(out, "Import complete. Run 'justask sync' to index the new rows.")
	return nil
}
