// Package autofill partitions aggregated field defaults into auto-fill,
// suggest, and must-ask buckets under configurable confidence thresholds.
package autofill

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// Config holds configuration options for the classifier.
type Config struct {
	AutoFillThreshold      float64
	MinConfidence          float64
	MaxAutoFillFields      int
	AutoFillCriticalFields bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		AutoFillThreshold:      0.85,
		MinConfidence:          0.65,
		MaxAutoFillFields:      20,
		AutoFillCriticalFields: false,
	}
}

// Classifier buckets fields by how confidently their defaults are known.
type Classifier struct {
	aggregator service.Aggregator
	config     Config
}

// New creates a classifier over the given aggregator.
func New(agg service.Aggregator, config Config) *Classifier {
	if config.AutoFillThreshold <= 0 {
		config.AutoFillThreshold = DefaultConfig().AutoFillThreshold
	}
	if config.MinConfidence <= 0 {
		config.MinConfidence = DefaultConfig().MinConfidence
	}
	if config.MaxAutoFillFields <= 0 {
		config.MaxAutoFillFields = DefaultConfig().MaxAutoFillFields
	}

	return &Classifier{
		aggregator: agg,
		config:     config,
	}
}

// Classify aggregates defaults for the field set and partitions every field
// into exactly one bucket. Must-ask fields keep the caller's input ordering;
// the caller applies priority sorting afterward.
func (c *Classifier) Classify(ctx context.Context, fields []model.RequirementField, sdc model.SmartDefaultContext) (*model.AutoFillResult, error) {
	started := time.Now()

	threshold := c.config.AutoFillThreshold
	if sdc.AutoFillThreshold > 0 {
		threshold = sdc.AutoFillThreshold
	}

	defaults := c.aggregator.GetDefaults(ctx, fields, sdc)

	type fillCandidate struct {
		field model.RequirementField
		def   model.FieldDefault
	}

	var fillable []fillCandidate
	result := &model.AutoFillResult{
		AutoFilled: make(map[model.RequirementField]model.ResponseValue),
		Suggested:  make(map[model.RequirementField]model.FieldDefault),
	}

	for _, field := range fields {
		def, ok := defaults[field]
		if !ok || def.Confidence < c.config.MinConfidence {
			result.MustAsk = append(result.MustAsk, field)
			continue
		}

		if def.Confidence >= threshold {
			if field.Critical() && !c.config.AutoFillCriticalFields {
				// Critical fields need a human's eyes even at high
				// confidence.
				result.Suggested[field] = def
				continue
			}
			fillable = append(fillable, fillCandidate{field: field, def: def})
			continue
		}

		result.Suggested[field] = def
	}

	// Cap silent fills per pass. Over-cap fields downgrade to suggested,
	// lowest confidence first.
	if len(fillable) > c.config.MaxAutoFillFields {
		sort.SliceStable(fillable, func(i, j int) bool {
			return fillable[i].def.Confidence > fillable[j].def.Confidence
		})
		for _, demoted := range fillable[c.config.MaxAutoFillFields:] {
			result.Suggested[demoted.field] = demoted.def
		}
		fillable = fillable[:c.config.MaxAutoFillFields]
	}

	for _, fill := range fillable {
		result.AutoFilled[fill.field] = fill.def.Value
	}

	result.Summary = model.AutoFillSummary{
		AutoFilledCount: len(result.AutoFilled),
		SuggestedCount:  len(result.Suggested),
		MustAskCount:    len(result.MustAsk),
		Duration:        time.Since(started),
	}

	slog.Info("Classified fields",
		"total", len(fields),
		"auto_filled", result.Summary.AutoFilledCount,
		"suggested", result.Summary.SuggestedCount,
		"must_ask", result.Summary.MustAskCount,
		"duration", result.Summary.Duration)

	return result, nil
}
