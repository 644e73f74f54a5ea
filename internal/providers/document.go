// Package providers contains the reference default source implementations the
// aggregator queries: document context, pattern learning, contextual rules,
// and static smart defaults.
package providers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/procura/smartfill/internal/model"
)

// Confidence assigned to document-extracted values. A value that parses into
// the field's native type is strong evidence; raw text is weaker.
const (
	docTypedConfidence = 0.9
	docTextConfidence  = 0.78
)

// DocumentContextSource proposes values extracted from uploaded documents,
// typed into the field's native value kind.
type DocumentContextSource struct{}

// NewDocumentContextSource creates the document context source.
func NewDocumentContextSource() *DocumentContextSource {
	return &DocumentContextSource{}
}

// Name identifies the source in logs.
func (s *DocumentContextSource) Name() string {
	return "document-context"
}

// GetDefault returns the extracted value for the field, if the documents
// mentioned one and it parses into the field's expected type.
func (s *DocumentContextSource) GetDefault(_ context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	raw, ok := sdc.Extracted(field)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	value, typed, err := model.CoerceExtracted(field, raw)
	if err != nil {
		slog.Debug("Extracted value unusable for field",
			"field", field,
			"raw", raw,
			"error", err)
		return nil, nil
	}

	confidence := docTextConfidence
	if typed {
		confidence = docTypedConfidence
	}

	return &model.FieldDefault{
		Value:      value,
		Confidence: confidence,
		Source:     model.SourceDocumentContext,
	}, nil
}
