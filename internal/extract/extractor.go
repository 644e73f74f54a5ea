// Package extract pulls labeled field values out of uploaded document text.
// It is deliberately simple: quotes and invoices label their data, and a
// labeled line is worth extracting. Anything it misses the conversation asks
// for.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/procura/smartfill/internal/model"
)

// fieldPattern binds one requirement field to the regex that finds its
// labeled value in document text. The first capture group is the value.
type fieldPattern struct {
	field model.RequirementField
	regex string
}

var fieldPatterns = []fieldPattern{
	{model.FieldVendorName, `(?:vendor|supplier|from|sold by)\s*[:\-]\s*(.+)`},
	{model.FieldAmount, `(?:total|amount due|grand total|total amount)\s*[:\-]\s*\$?([\d,]+\.?\d*)`},
	{model.FieldUnitPrice, `(?:unit price|price each|per unit)\s*[:\-]\s*\$?([\d,]+\.?\d*)`},
	{model.FieldQuantity, `(?:qty|quantity)\s*[:\-]\s*(\d+)`},
	{model.FieldRequiredDate, `(?:delivery date|required by|needed by|due date)\s*[:\-]\s*([\w/,\- ]+)`},
	{model.FieldDepartment, `(?:department|dept)\s*[:\-]\s*(.+)`},
	{model.FieldCostCenter, `(?:cost center|cost centre)\s*[:\-]\s*([\w\-]+)`},
	{model.FieldContractNumber, `(?:contract|agreement)\s*(?:no\.?|number|#)\s*[:\-]?\s*([\w\-]+)`},
	{model.FieldVendorTaxID, `(?:tax id|ein|vat)\s*[:\-]\s*([\w\-]+)`},
	{model.FieldPaymentTerms, `(?:payment terms|terms)\s*[:\-]\s*(.+)`},
	{model.FieldCurrency, `(?:currency)\s*[:\-]\s*([A-Z]{3})`},
}

// KeywordExtractor implements service.ContextExtractor with case-insensitive
// labeled-value patterns.
type KeywordExtractor struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	regex *regexp.Regexp
	field model.RequirementField
}

// NewKeywordExtractor creates an extractor with the built-in field patterns.
func NewKeywordExtractor() (*KeywordExtractor, error) {
	compiled := make([]compiledPattern, 0, len(fieldPatterns))

	for _, p := range fieldPatterns {
		regex, err := regexp.Compile(`(?im)` + p.regex)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern for %s: %w", p.field, err)
		}
		compiled = append(compiled, compiledPattern{
			field: p.field,
			regex: regex,
		})
	}

	return &KeywordExtractor{patterns: compiled}, nil
}

// ExtractContext scans every document for labeled field values. The first
// document to mention a field wins; later mentions do not overwrite it.
func (e *KeywordExtractor) ExtractContext(_ context.Context, documents []model.Document) (model.ExtractedContext, error) {
	extracted := model.ExtractedContext{
		Values: make(map[model.RequirementField]string),
	}

	for _, doc := range documents {
		if strings.TrimSpace(doc.Text) == "" {
			continue
		}
		extracted.DocumentIDs = append(extracted.DocumentIDs, doc.ID)

		for _, p := range e.patterns {
			if _, seen := extracted.Values[p.field]; seen {
				continue
			}
			match := p.regex.FindStringSubmatch(doc.Text)
			if len(match) < 2 {
				continue
			}
			value := strings.TrimSpace(match[1])
			if value != "" {
				extracted.Values[p.field] = value
			}
		}
	}

	return extracted, nil
}
