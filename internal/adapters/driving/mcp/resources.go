package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for justask resources.
	uriScheme = "justask://"

	schemaURI       = uriScheme + "schema"
	lastExchangeURI = uriScheme + "exchanges/last"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Stats != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         schemaURI,
			Name:        "schema",
			Description: "Columns of the liquor sales table that structured queries run against",
			MIMEType:    "application/json",
		}, s.handleSchemaResource)
	}

	s.server.AddResource(&mcp.Resource{
		URI:         lastExchangeURI,
		Name:        "last-exchange",
		Description: "The most recent question and its answer",
		MIMEType:    "application/json",
	}, s.handleLastExchangeResource)
}

// handleSchemaResource returns the aggregate table's columns.
func (s *Server) handleSchemaResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	columns, err := s.ports.Stats.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing schema: %w", err)
	}

	type columnInfo struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}

	infos := make([]columnInfo, len(columns))
	for i, c := range columns {
		infos[i] = columnInfo{Name: c.Name, Type: c.Type}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleLastExchangeResource returns the last question and answer.
func (s *Server) handleLastExchangeResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	exchange, ok := s.ports.Query.LastExchange()
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResult(req.Params.URI, struct {
		LastQuery    string `json:"last_query"`
		LastResponse string `json:"last_response"`
		At           string `json:"at"`
	}{
		LastQuery:    exchange.Query,
		LastResponse: exchange.Response,
		At:           exchange.At.UTC().Format(time.RFC3339),
	})
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
