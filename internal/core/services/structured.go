package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
	"github.com/just-ask-ai/justask/internal/logger"
)

// tableAliases are names models commonly invent for the aggregate table.
var tableAliases = []string{"sales", "liquor_sales", "liquorsale", "iowa_liquor_sales", "iowa_sales"}

// readOnlyVerbs are the statement prefixes accepted for execution.
var readOnlyVerbs = []string{"select", "with"}

// StructuredQueryService answers questions with a generated read-only query
// against the aggregate store.
type StructuredQueryService struct {
	source    driven.AggregateSource
	llm       driven.LLMService
	prompts   driven.PromptStore
	summarise bool
	repair    *regexp.Regexp
}

// NewStructuredQueryService creates a new structured query service.
// When summarise is true, formatted results are rephrased by the LLM.
func NewStructuredQueryService(
	source driven.AggregateSource,
	llm driven.LLMService,
	prompts driven.PromptStore,
	summarise bool,
) *StructuredQueryService {
	return &StructuredQueryService{
		source:    source,
		llm:       llm,
		prompts:   prompts,
		summarise: summarise,
		repair:    aliasPattern(source.TableName()),
	}
}

// Answer generates, repairs, executes and formats a query for question.
func (s *StructuredQueryService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	candidate, err := s.Generate(ctx, question)
	if err != nil {
		return nil, &domain.QueryExecutionError{Err: err}
	}
	return s.Execute(ctx, question, candidate)
}

// Generate asks the LLM for a query and returns its cleaned text.
// The text is not validated.
func (s *StructuredQueryService) Generate(ctx context.Context, question string) (string, error) {
	columns, err := s.source.DescribeSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}

	out, err := generate(ctx, s.llm, s.prompts, driven.PromptSQLGeneration, map[string]string{
		"table":    s.source.TableName(),
		"schema":   describeColumns(columns),
		"question": question,
	})
	if err != nil {
		return "", err
	}
	return cleanQuery(out), nil
}

// Execute validates and runs a candidate query, then formats the result.
func (s *StructuredQueryService) Execute(ctx context.Context, question, candidate string) (*domain.Answer, error) {
	query := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(candidate), ";"))
	if !isReadOnly(query) || hasStatementBreak(query) {
		return nil, &domain.QueryExecutionError{Query: query, Err: domain.ErrNotReadOnly}
	}

	// Best-effort repair of invented table names. Unrelated tables are left
	// alone and fail at execution.
	if repaired := s.RepairTable(query); repaired != query {
		logger.Debug("Rewrote table reference: %s", repaired)
		query = repaired
	}

	result, err := s.source.ExecuteReadOnly(ctx, query)
	if err != nil {
		return nil, &domain.QueryExecutionError{Query: query, Err: err}
	}

	response := FormatResult(question, result)
	if s.summarise {
		summary, err := generate(ctx, s.llm, s.prompts, driven.PromptSQLSummary, map[string]string{
			"results":  response,
			"question": question,
		})
		if err != nil {
			logger.Warn("Result summary failed, returning table: %v", err)
		} else if summary != "" {
			response = summary
		}
	}

	return &domain.Answer{
		Question: question,
		Response: response,
		Intent:   domain.IntentStructured,
		Query:    query,
		Rows:     len(result.Rows),
	}, nil
}

// RepairTable rewrites FROM/JOIN targets that are known aliases of the
// aggregate table to its canonical name.
func (s *StructuredQueryService) RepairTable(query string) string {
	return s.repair.ReplaceAllString(query, "${1}${2}"+s.source.TableName()+"${5}")
}

func aliasPattern(canonical string) *regexp.Regexp {
	names := make([]string, 0, len(tableAliases))
	for _, a := range tableAliases {
		if !strings.EqualFold(a, canonical) {
			names = append(names, regexp.QuoteMeta(a))
		}
	}
	return regexp.MustCompile("(?i)\\b(from|join)(\\s+)[\"`]?(" + strings.Join(names, "|") + ")([\"`]?)(\\s|\\)|,|$)")
}

// cleanQuery strips reasoning, fences and chatter around a generated query.
// If the text does not start with a read-only verb, the first line that does
// is taken as the start of the query.
func cleanQuery(raw string) string {
	text := strings.TrimSpace(codeFence.ReplaceAllString(stripThink(raw), ""))
	if !isReadOnly(text) {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if isReadOnly(strings.TrimSpace(line)) {
				text = strings.TrimSpace(strings.Join(lines[i:], "\n"))
				break
			}
		}
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ";"))
}

// isReadOnly reports whether text begins with a read-only query verb.
func isReadOnly(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, verb := range readOnlyVerbs {
		if strings.HasPrefix(lower, verb) {
			rest := lower[len(verb):]
			if rest == "" || !isWordByte(rest[0]) {
				return true
			}
		}
	}
	return false
}

// hasStatementBreak reports whether query has a semicolon outside quoted
// literals and identifiers.
func hasStatementBreak(query string) bool {
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == ';':
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}

func describeColumns(columns []domain.Column) string {
	var b strings.Builder
	for _, c := range columns {
		fmt.Fprintf(&b, "- %s (%s)\n", c.Name, c.Type)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatResult renders a tabular result as readable text.
//
//   - one value:          "question → value"
//   - one row:            "question → k: v; k: v"
//   - several rows:       "question →" followed by one "k: v, k: v" line per row
func FormatResult(question string, result *domain.TabularResult) string {
	if result == nil || len(result.Rows) == 0 {
		return question + " → no rows"
	}

	if len(result.Rows) == 1 {
		row := result.Rows[0]
		if len(row) == 1 {
			return question + " → " + FormatValue(row[0])
		}
		return question + " → " + formatRow(result.Columns, row, "; ")
	}

	lines := make([]string, len(result.Rows))
	for i, row := range result.Rows {
		lines[i] = formatRow(result.Columns, row, ", ")
	}
	return question + " →\n" + strings.Join(lines, "\n")
}

func formatRow(columns []string, row []any, sep string) string {
	parts := make([]string, len(row))
	for i, v := range row {
		name := strconv.Itoa(i)
		if i < len(columns) {
			name = columns[i]
		}
		parts[i] = name + ": " + FormatValue(v)
	}
	return strings.Join(parts, sep)
}

// FormatValue renders one cell. Numbers get thousands separators and at
// most two decimals.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case int64:
		return humanize.Comma(x)
	case int:
		return humanize.Comma(int64(x))
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return humanize.Comma(int64(f))
	}
	return humanize.FormatFloat("#,###.##", f)
}
