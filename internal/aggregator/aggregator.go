package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/procura/smartfill/internal/common"
	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// Priority tiers per default source kind. Lower wins ties.
const (
	priorityDocumentContext = 0
	priorityHistorical      = 0
	priorityUserPattern     = 1
	priorityContextual      = 1
	prioritySystemDefault   = 3
)

// agreementBoost is the multiplier applied when independent sources agree on
// the same value.
const agreementBoost = 1.1

// Config holds configuration options for the defaults aggregator.
type Config struct {
	MinConfidence float64
	CacheTTL      time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.65,
		CacheTTL:      5 * time.Minute,
	}
}

// Aggregator queries all registered default sources concurrently per field
// and merges their candidates into one default via priority and confidence
// ranking with agreement boosting. Merged results are cached with a TTL.
type Aggregator struct {
	cache         *defaultCache
	sources       []service.DefaultSource
	minConfidence float64
}

// New creates an aggregator over the given default sources. At least one
// source is required: an aggregator with nothing to query can never produce
// a default.
func New(cfg Config, sources ...service.DefaultSource) (*Aggregator, error) {
	if len(sources) == 0 {
		return nil, common.ErrNoSources
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}

	return &Aggregator{
		sources:       sources,
		cache:         newDefaultCache(cfg.CacheTTL),
		minConfidence: cfg.MinConfidence,
	}, nil
}

// candidate is one source's proposal during a merge. Never exposed.
type candidate struct {
	sourceName string
	def        model.FieldDefault
	priority   int
}

// GetDefault returns the merged default for a field, or nil when no source
// clears the minimum confidence bar. Source failures are absorbed: the worst
// outcome of aggregation is "ask the user".
func (a *Aggregator) GetDefault(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error) {
	if cached, ok := a.cache.get(field); ok {
		return &cached, nil
	}

	candidates := a.gather(ctx, field, sdc)
	merged := a.merge(field, candidates)
	if merged == nil {
		return nil, nil
	}

	a.cache.set(field, *merged)
	return merged, nil
}

// FieldResult is one field's outcome in a batch aggregation stream.
type FieldResult struct {
	Default *model.FieldDefault
	Field   model.RequirementField
}

// GetDefaultsStream aggregates every field concurrently and delivers each
// field's result as soon as its own fan-out completes; a slow field does not
// hold back the others. The channel closes after the last field reports.
// Completion order across fields is unspecified.
func (a *Aggregator) GetDefaultsStream(ctx context.Context, fields []model.RequirementField, sdc model.SmartDefaultContext) <-chan FieldResult {
	out := make(chan FieldResult, len(fields))

	var wg sync.WaitGroup
	for _, field := range fields {
		wg.Add(1)
		go func(field model.RequirementField) {
			defer wg.Done()
			def, _ := a.GetDefault(ctx, field, sdc)
			out <- FieldResult{Field: field, Default: def}
		}(field)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// GetDefaults aggregates a batch of fields and returns the fields that
// produced a default.
func (a *Aggregator) GetDefaults(ctx context.Context, fields []model.RequirementField, sdc model.SmartDefaultContext) map[model.RequirementField]model.FieldDefault {
	defaults := make(map[model.RequirementField]model.FieldDefault, len(fields))

	for result := range a.GetDefaultsStream(ctx, fields, sdc) {
		if result.Default != nil {
			defaults[result.Field] = *result.Default
		}
	}

	return defaults
}

// Invalidate drops the cached default for a field so the next lookup
// re-queries the sources. Called after a learning update for the field.
func (a *Aggregator) Invalidate(field model.RequirementField) {
	a.cache.invalidate(field)
}

// InvalidateAll drops every cached default.
func (a *Aggregator) InvalidateAll() {
	a.cache.clear()
}

// Close releases the cache's background resources.
func (a *Aggregator) Close() {
	a.cache.close()
}

// gather fans out to all sources concurrently and collects their candidates.
// A source error or panic is treated as "no candidate" and never aborts the
// sibling calls.
func (a *Aggregator) gather(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) []candidate {
	results := make([]*candidate, len(a.sources))

	var wg sync.WaitGroup
	for i, src := range a.sources {
		wg.Add(1)
		go func(i int, src service.DefaultSource) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Warn("Default source panicked",
						"source", src.Name(),
						"field", field,
						"panic", r)
				}
			}()

			def, err := src.GetDefault(ctx, field, sdc)
			if err != nil {
				slog.Debug("Default source failed, treating as no candidate",
					"source", src.Name(),
					"field", field,
					"error", err)
				return
			}
			if def == nil {
				return
			}
			if validateErr := def.Validate(); validateErr != nil {
				slog.Warn("Default source returned invalid candidate",
					"source", src.Name(),
					"field", field,
					"error", validateErr)
				return
			}

			results[i] = &candidate{
				def:        *def,
				priority:   priorityFor(def.Source),
				sourceName: src.Name(),
			}
		}(i, src)
	}
	wg.Wait()

	candidates := make([]candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	return candidates
}

// merge ranks candidates by (priority ascending, confidence descending) and
// applies the agreement boost. The merge is deterministic given the finished
// candidate set regardless of arrival order.
func (a *Aggregator) merge(field model.RequirementField, candidates []candidate) *model.FieldDefault {
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].priority != candidates[j].priority {
			return candidates[i].priority < candidates[j].priority
		}
		if candidates[i].def.Confidence != candidates[j].def.Confidence {
			return candidates[i].def.Confidence > candidates[j].def.Confidence
		}
		return candidates[i].sourceName < candidates[j].sourceName
	})

	top := candidates[0]
	if top.def.Confidence < a.minConfidence {
		slog.Debug("Top candidate below minimum confidence, field must be asked",
			"field", field,
			"confidence", top.def.Confidence,
			"minimum", a.minConfidence)
		return nil
	}

	merged := top.def

	// Agreement boost: independent sources proposing the same value raise
	// confidence. The winning source tag stays with the highest-priority
	// agreeing candidate; the boost starts from the strongest agreeing
	// confidence.
	agreeing := 0
	maxConfidence := 0.0
	for _, c := range candidates {
		if c.def.Value.Equal(top.def.Value) {
			agreeing++
			if c.def.Confidence > maxConfidence {
				maxConfidence = c.def.Confidence
			}
		}
	}
	if agreeing >= 2 {
		boosted := maxConfidence * agreementBoost
		if boosted > 1.0 {
			boosted = 1.0
		}
		merged.Confidence = boosted
	}

	return &merged
}

// priorityFor maps a source kind to its priority tier.
func priorityFor(source model.DefaultSource) int {
	switch source {
	case model.SourceDocumentContext:
		return priorityDocumentContext
	case model.SourceHistorical:
		return priorityHistorical
	case model.SourceUserPattern:
		return priorityUserPattern
	case model.SourceContextual:
		return priorityContextual
	case model.SourceSystemDefault:
		return prioritySystemDefault
	}
	return prioritySystemDefault
}
