package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crestview-group/underwriting-cli/internal/config"
	"github.com/crestview-group/underwriting-cli/internal/model"
	"github.com/crestview-group/underwriting-cli/internal/tabular"
	"github.com/crestview-group/underwriting-cli/pkg/anthropic"
)

// SemanticExtractor is the capability interface over the external semantic
// extraction service. It may be absent (nil), fail, or time out; the
// deterministic fallback path in the pipeline is a complete substitute for
// MapColumns and NormalizeRecords — but not for ExtractDocument, which has
// no deterministic equivalent.
type SemanticExtractor interface {
	MapColumns(ctx context.Context, headers []string, docType model.DocumentType) (ColumnMapping, error)
	NormalizeRecords(ctx context.Context, recs []tabular.RawRecord, docType model.DocumentType) ([]map[string]any, error)
	ExtractDocument(ctx context.Context, text, instructions string) (map[string]any, error)
}

// NewSemanticExtractor builds the service-backed extractor, or returns nil
// when no credentials are configured (callers treat nil as "capability
// absent" and take the deterministic path).
func NewSemanticExtractor(cfg config.AnthropicConfig) SemanticExtractor {
	if cfg.Key == "" {
		return nil
	}
	return NewAnthropicExtractor(anthropic.NewClient(cfg.Key, cfg.MaxRetries), cfg.Model, cfg.MaxTokens)
}

// anthropicExtractor implements SemanticExtractor against the Anthropic API.
type anthropicExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicExtractor wraps an anthropic.Client as a SemanticExtractor.
func NewAnthropicExtractor(client anthropic.Client, model string, maxTokens int64) SemanticExtractor {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &anthropicExtractor{client: client, model: model, maxTokens: maxTokens}
}

const mapColumnsSystem = "You map spreadsheet column headers to canonical field names for a real-estate underwriting system. Respond with a single JSON object mapping each original header to a canonical field name, or null for columns that should be ignored."

const mapColumnsPrompt = `Document type: %s
Canonical fields: %s

Original column headers:
%s

Return a JSON object: {"<original header>": "<canonical field or null>", ...}`

func (a *anthropicExtractor) MapColumns(ctx context.Context, headers []string, docType model.DocumentType) (ColumnMapping, error) {
	known := KnownFields(docType)
	if known == nil {
		return nil, eris.Errorf("extract: no canonical fields for document type %q", docType)
	}
	fields := make([]string, 0, len(known))
	for f := range known {
		fields = append(fields, f)
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    mapColumnsSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(mapColumnsPrompt, docType, strings.Join(fields, ", "), strings.Join(headers, "\n")),
		}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: semantic column mapping")
	}
	resp.Usage.LogCost(a.model, "column_classification")

	obj, err := ParseLLMObject(resp.Text())
	if err != nil {
		return nil, err
	}

	// Validate against the canonical field set; unknown names are ignored
	// rather than trusted.
	mapping := make(ColumnMapping, len(headers))
	for _, h := range headers {
		if h == "" {
			continue
		}
		mapping[h] = FieldIgnore
		v, ok := obj[h]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && known[s] {
			mapping[h] = s
		}
	}
	return mapping, nil
}

const normalizeRecordsSystem = "You normalize raw spreadsheet rows from real-estate documents into typed JSON records. Monetary values become plain numbers (expand M/million suffixes), percentages become decimals (5.5% -> 0.055), dates become YYYY-MM-DD strings, and placeholder strings like TBD or N/A become null. Never invent values."

const normalizeRecordsPrompt = `Document type: %s
Target fields: %s

Raw rows (JSON):
%s

Return a JSON object: {"records": [{<canonical field>: <typed value or null>, ...}, ...]} with exactly one record per input row, in order.`

func (a *anthropicExtractor) NormalizeRecords(ctx context.Context, recs []tabular.RawRecord, docType model.DocumentType) ([]map[string]any, error) {
	known := KnownFields(docType)
	if known == nil {
		return nil, eris.Errorf("extract: no canonical fields for document type %q", docType)
	}
	fields := make([]string, 0, len(known))
	for f := range known {
		fields = append(fields, f)
	}

	rowsJSON, err := json.Marshal(recs)
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal raw rows")
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    normalizeRecordsSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(normalizeRecordsPrompt, docType, strings.Join(fields, ", "), rowsJSON),
		}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: semantic normalization")
	}
	resp.Usage.LogCost(a.model, "normalization")

	obj, err := ParseLLMObject(resp.Text())
	if err != nil {
		return nil, err
	}

	rawRecords, ok := obj["records"].([]any)
	if !ok {
		return nil, eris.New("extract: semantic normalization response missing records array")
	}
	if len(rawRecords) != len(recs) {
		return nil, eris.Errorf("extract: semantic normalization returned %d records for %d rows", len(rawRecords), len(recs))
	}

	out := make([]map[string]any, 0, len(rawRecords))
	for i, rr := range rawRecords {
		m, ok := rr.(map[string]any)
		if !ok {
			return nil, eris.Errorf("extract: semantic normalization record %d is not an object", i)
		}
		out = append(out, m)
	}
	return out, nil
}

func (a *anthropicExtractor) ExtractDocument(ctx context.Context, text, instructions string) (map[string]any, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    instructions,
		Messages:  []anthropic.Message{{Role: "user", Content: text}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: semantic document extraction")
	}
	resp.Usage.LogCost(a.model, "pdf_extraction")

	if resp.StopReason == "max_tokens" {
		zap.L().Warn("extract: pdf extraction response truncated at token budget")
	}
	return ParseLLMObject(resp.Text())
}
