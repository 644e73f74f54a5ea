// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/procura/smartfill/internal/model"
)

// DefaultSource is one independent evidence channel the aggregator queries.
// Implementations return a candidate default for the field or nil when they
// have nothing to propose; errors are treated by the aggregator as "no
// candidate" and never propagated.
type DefaultSource interface {
	Name() string
	GetDefault(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error)
}

// Aggregator merges candidates from all sources into one default per field.
type Aggregator interface {
	GetDefault(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error)
	GetDefaults(ctx context.Context, fields []model.RequirementField, sdc model.SmartDefaultContext) map[model.RequirementField]model.FieldDefault
	Invalidate(field model.RequirementField)
}

// LearningService is the closed-loop learning collaborator: the orchestrator
// appends interaction records, and two of the four default sources read
// predictions back out. A just-submitted interaction is not guaranteed to be
// visible to the very next prediction.
type LearningService interface {
	Learn(ctx context.Context, interaction model.Interaction) error
	Predict(ctx context.Context, field model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error)
	PredictSequence(ctx context.Context, field model.RequirementField, prior []model.RequirementField, sdc model.SmartDefaultContext) (*model.FieldDefault, error)
	PredictTimeAware(ctx context.Context, field model.RequirementField, now time.Time, sdc model.SmartDefaultContext) (*model.FieldDefault, error)
}

// ContextExtractor pulls field data out of uploaded documents. Extraction
// failures degrade to an empty context; they never abort a conversation.
type ContextExtractor interface {
	ExtractContext(ctx context.Context, documents []model.Document) (model.ExtractedContext, error)
}

// QuestionGenerator produces the full candidate question set for an
// acquisition type. The orchestrator treats its output as an opaque ordered
// list it then filters and sorts.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, acquisitionType model.AcquisitionType, extracted model.ExtractedContext) ([]model.DynamicQuestion, error)
}

// FieldPattern is one learned (user, field, value) observation with its usage
// statistics.
type FieldPattern struct {
	LastUsedAt    time.Time
	CreatedAt     time.Time
	UserID        string
	ValueText     string
	Field         model.RequirementField
	ValueKind     model.ValueKind
	ID            int64
	UseCount      int
	AcceptCount   int
	RejectCount   int
	FiscalQuarter int
}

// FieldTransition is one learned "after answering prior, this field was X"
// observation used by sequence-aware prediction.
type FieldTransition struct {
	UserID     string
	ValueText  string
	PriorField model.RequirementField
	Field      model.RequirementField
	ValueKind  model.ValueKind
	ID         int64
	UseCount   int
}

// PatternStore is the persistence contract for the learning service.
type PatternStore interface {
	UpsertPattern(ctx context.Context, userID string, field model.RequirementField, value model.ResponseValue, accepted bool, fiscalQuarter int) error
	GetTopPattern(ctx context.Context, userID string, field model.RequirementField) (*FieldPattern, error)
	GetTopPatternByQuarter(ctx context.Context, userID string, field model.RequirementField, fiscalQuarter int) (*FieldPattern, error)
	ListPatterns(ctx context.Context, userID string) ([]FieldPattern, error)

	MarkRejected(ctx context.Context, userID string, field model.RequirementField, value model.ResponseValue) error

	UpsertTransition(ctx context.Context, userID string, priorField, field model.RequirementField, value model.ResponseValue) error
	GetTopTransition(ctx context.Context, userID string, priorField, field model.RequirementField) (*FieldTransition, error)

	RecordInteraction(ctx context.Context, interaction model.Interaction) error

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
