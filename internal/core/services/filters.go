package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driven"
)

// extractableKeys are the metadata keys the LLM may filter on.
var extractableKeys = []string{
	domain.MetaCity,
	domain.MetaCategoryName,
	domain.MetaMonth,
	domain.MetaStoreName,
	domain.MetaItemDescription,
}

// monthLayouts are accepted spellings of a month in extracted filters.
var monthLayouts = []string{domain.MonthLayout, "January 2006", "Jan 2006", "2006-01-02", "01/2006"}

// FilterExtractor asks the LLM to turn a question into exact-match
// metadata filters. Anything it cannot parse yields no filter.
type FilterExtractor struct {
	llm     driven.LLMService
	prompts driven.PromptStore
}

// NewFilterExtractor creates a new filter extractor.
func NewFilterExtractor(llm driven.LLMService, prompts driven.PromptStore) *FilterExtractor {
	return &FilterExtractor{llm: llm, prompts: prompts}
}

// Extract returns the filters mentioned in question, or nil.
func (e *FilterExtractor) Extract(ctx context.Context, question string) (domain.MetadataFilter, error) {
	out, err := generate(ctx, e.llm, e.prompts, driven.PromptFilterExtraction, map[string]string{
		"keys":     strings.Join(extractableKeys, ", "),
		"question": question,
	})
	if err != nil {
		return nil, err
	}
	return ParseFilter(out)
}

// ParseFilter reads the first JSON object in text and keeps only known
// keys with non-empty scalar values. Months are normalised to YYYY-MM.
func ParseFilter(text string) (domain.MetadataFilter, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidFilter, err)
	}

	filter := make(domain.MetadataFilter)
	for _, key := range extractableKeys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = strings.TrimSpace(x)
		case float64:
			s = fmt.Sprint(x)
		default:
			continue
		}
		if s == "" {
			continue
		}
		if key == domain.MetaMonth {
			month, ok := normaliseMonth(s)
			if !ok {
				continue
			}
			s = month
		}
		filter[key] = s
	}

	if len(filter) == 0 {
		return nil, nil
	}
	return filter, nil
}

func normaliseMonth(s string) (string, bool) {
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(domain.MonthLayout), true
		}
	}
	return "", false
}
