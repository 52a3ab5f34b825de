package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/just-ask-ai/justask/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string            `json:"question" jsonschema:"a natural-language question about Iowa liquor sales"`
	Filters  map[string]string `json:"filters,omitempty" jsonschema:"optional exact-match metadata filters: store_name, item_description, category_name, month (YYYY-MM), city, county, zip_code"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	Query     string `json:"query,omitempty"`
	Rows      int    `json:"rows,omitempty"`
	Strategy  string `json:"strategy,omitempty"`
	Documents int    `json:"documents,omitempty"`
	FellBack  bool   `json:"fell_back,omitempty"`
}

// EmptyInput is the input schema for tools that take no arguments.
type EmptyInput struct{}

// SyncStatusOutput is the output schema for the sync_status tool.
type SyncStatusOutput struct {
	Running   bool   `json:"running"`
	LastError string `json:"last_error,omitempty"`

	RunID              string `json:"run_id,omitempty"`
	StartedAt          string `json:"started_at,omitempty"`
	FinishedAt         string `json:"finished_at,omitempty"`
	PagesFetched       int    `json:"pages_fetched"`
	DocumentsSubmitted int    `json:"documents_submitted"`
	DocumentsSkipped   int    `json:"documents_skipped"`
	BatchesFailed      int    `json:"batches_failed"`
	FinalOffset        int    `json:"final_offset"`
}

// IndexStatsOutput is the output schema for the index_stats tool.
type IndexStatsOutput struct {
	Table        string `json:"table"`
	Transactions int    `json:"transactions"`
	Documents    int    `json:"documents"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question about Iowa liquor sales. Counting and aggregate questions " +
			"run as a read-only SQL query; open-ended questions are answered from monthly summaries.",
	}, s.handleAsk)

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_status",
			Description: "Report whether an index synchronisation is running and how the last one went",
		}, s.handleSyncStatus)
	}

	if s.ports.Stats != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_stats",
			Description: "Count stored sale rows and indexed monthly summaries",
		}, s.handleIndexStats)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Query.Ask(ctx, domain.QueryRequest{
		Question: input.Question,
		Filters:  domain.MetadataFilter(input.Filters),
	})
	if err != nil {
		var qerr *domain.QueryExecutionError
		if errors.As(err, &qerr) {
			return nil, AskOutput{Question: input.Question, Query: qerr.Query}, err
		}
		return nil, AskOutput{}, err
	}

	return nil, AskOutput{
		Question:  answer.Question,
		Response:  answer.Response,
		Intent:    string(answer.Intent),
		Query:     answer.Query,
		Rows:      answer.Rows,
		Strategy:  string(answer.Strategy),
		Documents: answer.Documents,
		FellBack:  answer.FellBack,
	}, nil
}

// handleSyncStatus handles the sync_status tool invocation.
func (s *Server) handleSyncStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, SyncStatusOutput, error) {
	status := s.ports.Index.Status()
	out := SyncStatusOutput{
		Running:   status.Running,
		LastError: status.LastError,
	}

	if r := status.LastReport; r != nil {
		out.RunID = r.RunID
		out.StartedAt = formatTime(r.StartedAt)
		out.FinishedAt = formatTime(r.FinishedAt)
		out.PagesFetched = r.PagesFetched
		out.DocumentsSubmitted = r.DocumentsSubmitted
		out.DocumentsSkipped = r.DocumentsSkipped
		out.BatchesFailed = r.BatchesFailed
		out.FinalOffset = r.FinalOffset
	}

	return nil, out, nil
}

// handleIndexStats handles the index_stats tool invocation.
func (s *Server) handleIndexStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, IndexStatsOutput, error) {
	stats, err := s.ports.Stats.Stats(ctx)
	if err != nil {
		return nil, IndexStatsOutput{}, err
	}
	return nil, IndexStatsOutput{
		Table:        stats.Table,
		Transactions: stats.Transactions,
		Documents:    stats.Documents,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
