package model

import "fmt"

// DefaultSource identifies which evidence channel produced a field default.
type DefaultSource string

// Default source constants.
const (
	SourceDocumentContext DefaultSource = "document_context"
	SourceUserPattern     DefaultSource = "user_pattern"
	SourceHistorical      DefaultSource = "historical"
	SourceSystemDefault   DefaultSource = "system_default"
	SourceContextual      DefaultSource = "contextual"
)

// Describe returns a short user-facing description of the source, used when
// annotating suggestions with their provenance.
func (s DefaultSource) Describe() string {
	switch s {
	case SourceDocumentContext:
		return "your uploaded documents"
	case SourceUserPattern:
		return "your previous selections"
	case SourceHistorical:
		return "historical requests"
	case SourceSystemDefault:
		return "standard defaults"
	case SourceContextual:
		return "your organization's rules"
	}
	return "available data"
}

// FieldDefault is one merged default for a field: a proposed value with the
// confidence the aggregator assigns it. Immutable once produced.
type FieldDefault struct {
	Value      ResponseValue
	Source     DefaultSource
	Confidence float64
}

// Validate ensures the default has a valid value and a confidence in [0, 1].
func (d *FieldDefault) Validate() error {
	if err := d.Value.Validate(); err != nil {
		return fmt.Errorf("invalid default value: %w", err)
	}

	if d.Confidence < 0.0 || d.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", d.Confidence)
	}

	if d.Source == "" {
		return fmt.Errorf("default source is required")
	}

	return nil
}
