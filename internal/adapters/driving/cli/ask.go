package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the sales data",
	Long: `Ask a natural-language question about Iowa liquor sales.

The question is classified and answered either by a generated SQL query over
the aggregate store or by retrieval over the semantic index.

Filters restrict semantic retrieval to documents whose metadata matches
exactly. Recognised keys: record_id, store_name, item_description,
category_name, month, city, county, zipcode.

Examples:
  justask ask "total sale dollars in Polk county"
  justask ask "which stores sell the most tequila?" --filter city=ames
  justask ask "top vendors in 2023" --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringArrayP("filter", "f", nil, "metadata filter as key=value (repeatable)")
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON form of an answer.
type askOutput struct {
	Question  string  `json:"question"`
	Response  string  `json:"response"`
	Intent    string  `json:"intent"`
	Query     string  `json:"query,omitempty"`
	Rows      int     `json:"rows,omitempty"`
	Strategy  string  `json:"strategy,omitempty"`
	Documents int     `json:"documents,omitempty"`
	FellBack  bool    `json:"fell_back,omitempty"`
	Seconds   float64 `json:"seconds"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	rawFilters, err := cmd.Flags().GetStringArray("filter")
	if err != nil {
		return fmt.Errorf("getting filter flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	filters, err := parseFilterFlags(rawFilters)
	if err != nil {
		return err
	}

	query, err := requireQuery(cmd)
	if err != nil {
		return err
	}

	req := domain.QueryRequest{
		Question: strings.Join(args, " "),
		Filters:  filters,
	}

	answer, err := query.Ask(cmd.Context(), req)
	if err != nil {
		var qerr *domain.QueryExecutionError
		if errors.As(err, &qerr) {
			dimColor.Fprintf(cmd.ErrOrStderr(), "query: %s\n", qerr.Query)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if asJSON {
		return printAnswerJSON(cmd, answer)
	}
	printAnswer(cmd, answer)
	return nil
}

// parseFilterFlags turns key=value pairs into a validated filter.
func parseFilterFlags(raw []string) (domain.MetadataFilter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	filters := make(domain.MetadataFilter, len(raw))
	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", domain.ErrInvalidInput, pair)
		}
		filters[key] = value
	}

	if err := filters.Validate(); err != nil {
		return nil, err
	}
	return filters, nil
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, answer.Response)
	fmt.Fprintln(out)

	if answer.Query != "" && answer.Intent == domain.IntentStructured {
		dimColor.Fprintf(out, "query: %s\n", answer.Query)
	}
	dimColor.Fprintf(out, "%s (%s)\n", describeRoute(answer), answer.Duration.Round(time.Millisecond))
}

// describeRoute summarises which path answered the question.
func describeRoute(answer *domain.Answer) string {
	var route string
	switch answer.Intent {
	case domain.IntentStructured:
		route = fmt.Sprintf("structured, %d rows", answer.Rows)
	default:
		route = fmt.Sprintf("semantic, %s over %d documents", strategyLabel(answer.Strategy), answer.Documents)
	}
	if answer.FellBack {
		route += ", fell back from structured"
	}
	return route
}

func strategyLabel(s domain.Strategy) string {
	if s == "" {
		return "no consolidation"
	}
	return string(s)
}

func printAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := askOutput{
		Question:  answer.Question,
		Response:  answer.Response,
		Intent:    string(answer.Intent),
		Query:     answer.Query,
		Rows:      answer.Rows,
		Strategy:  string(answer.Strategy),
		Documents: answer.Documents,
		FellBack:  answer.FellBack,
		Seconds:   answer.Duration.Seconds(),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
