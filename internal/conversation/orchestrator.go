// Package conversation owns the adaptive conversation session: it decides
// which questions still need a human, serves them one at a time, and feeds
// what it learns back into the pattern model.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/procura/smartfill/internal/autofill"
	"github.com/procura/smartfill/internal/common"
	"github.com/procura/smartfill/internal/model"
	"github.com/procura/smartfill/internal/service"
)

// Orchestrator drives the conversation state machine. All per-conversation
// state lives in the ConversationSession the caller holds; the only shared
// layers are the aggregator's cache and the learning model, both keyed by
// field, never by session.
type Orchestrator struct {
	aggregator service.Aggregator
	classifier *autofill.Classifier
	extractor  service.ContextExtractor
	generator  service.QuestionGenerator
	learner    service.LearningService
	now        func() time.Time
}

// New creates an orchestrator with its collaborators injected.
func New(
	agg service.Aggregator,
	classifier *autofill.Classifier,
	extractor service.ContextExtractor,
	generator service.QuestionGenerator,
	learner service.LearningService,
) *Orchestrator {
	return &Orchestrator{
		aggregator: agg,
		classifier: classifier,
		extractor:  extractor,
		generator:  generator,
		learner:    learner,
		now:        time.Now,
	}
}

// StartRequest carries everything needed to open a conversation.
type StartRequest struct {
	AcquisitionType model.AcquisitionType
	UserID          string
	OrgID           string
	Documents       []model.Document
}

// StartConversation opens a session: extracts document context, generates the
// candidate question set, classifies every candidate field, pre-fills what
// can be answered without the user, and returns the session positioned at its
// first question. Extraction failure degrades to an empty context; it never
// aborts the conversation.
func (o *Orchestrator) StartConversation(ctx context.Context, req StartRequest) (*model.ConversationSession, error) {
	session := &model.ConversationSession{
		ID:               uuid.New().String(),
		StartTime:        o.now(),
		State:            model.StateStarting,
		AcquisitionType:  req.AcquisitionType,
		UserID:           req.UserID,
		OrgID:            req.OrgID,
		CollectedData:    make(map[model.RequirementField]model.ResponseValue),
		SuggestedAnswers: make(map[model.RequirementField]model.FieldDefault),
		Extracted:        make(map[model.RequirementField]string),
	}

	session.State = model.StateExtractingFromDocs
	extracted, err := o.extractor.ExtractContext(ctx, req.Documents)
	if err != nil {
		slog.Warn("Document extraction failed, proceeding with empty context",
			"session_id", session.ID,
			"error", err)
		extracted = model.ExtractedContext{}
	}
	for field, raw := range extracted.Values {
		session.Extracted[field] = raw
	}
	session.HadDocumentContext = !extracted.Empty()

	generated, err := o.generator.GenerateQuestions(ctx, req.AcquisitionType, extracted)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	fields := candidateFields(generated)
	sdc := o.buildContext(session)

	result, err := o.classifier.Classify(ctx, fields, sdc)
	if err != nil {
		// Classification is evidence gathering; without it every field
		// is asked.
		slog.Warn("Classification failed, asking every field",
			"session_id", session.ID,
			"error", err)
		result = &model.AutoFillResult{
			AutoFilled: make(map[model.RequirementField]model.ResponseValue),
			Suggested:  make(map[model.RequirementField]model.FieldDefault),
			MustAsk:    fields,
		}
		result.Summary.MustAskCount = len(fields)
	}

	// Raw extraction first, auto-fill on top: the merged, boosted values
	// win conflicts.
	for field, raw := range session.Extracted {
		if value, _, coerceErr := model.CoerceExtracted(field, raw); coerceErr == nil {
			session.CollectedData[field] = value
		}
	}
	for field, value := range result.AutoFilled {
		session.CollectedData[field] = value
	}
	for field, def := range result.Suggested {
		session.SuggestedAnswers[field] = def
	}
	session.AutoFill = result
	o.seedVendor(session)

	mustAsk := make(map[model.RequirementField]bool, len(result.MustAsk))
	for _, field := range result.MustAsk {
		mustAsk[field] = true
	}

	remaining := make([]model.DynamicQuestion, 0, len(generated))
	for _, q := range generated {
		if mustAsk[q.Field] && !session.Answered(q.Field) {
			remaining = append(remaining, q)
		}
	}
	model.SortQuestionsByPriority(remaining)
	session.RemainingQuestions = remaining

	session.Confidence = overallConfidence(result.Summary, len(fields))
	session.State = model.StateGatheringBasicInfo
	if len(remaining) == 0 {
		session.State = model.StateComplete
	}

	slog.Info("Started conversation",
		"session_id", session.ID,
		"acquisition_type", req.AcquisitionType,
		"candidate_fields", len(fields),
		"auto_filled", result.Summary.AutoFilledCount,
		"suggested", result.Summary.SuggestedCount,
		"remaining_questions", len(remaining),
		"confidence", session.Confidence,
		"had_documents", session.HadDocumentContext)

	return session, nil
}

// ProcessUserResponse applies one answer and returns the next prompt, or nil
// when the conversation is complete. A response whose question id matches no
// pending question is dropped without mutating the session; racing UI
// submissions are tolerated, not errors.
func (o *Orchestrator) ProcessUserResponse(ctx context.Context, resp model.UserResponse, session *model.ConversationSession) (*model.NextPrompt, error) {
	if session.Complete() {
		return nil, nil
	}

	idx := -1
	for i, q := range session.RemainingQuestions {
		if q.ID == resp.QuestionID {
			idx = i
			break
		}
	}
	if idx == -1 {
		slog.Warn("Response for unknown question id dropped",
			"session_id", session.ID,
			"question_id", resp.QuestionID)
		return o.peekPrompt(ctx, session)
	}

	question := session.RemainingQuestions[idx]
	now := o.now()
	skipped := resp.Value.IsSkip()

	response := resp.Value
	session.QuestionHistory = append(session.QuestionHistory, model.AskedQuestion{
		Question:  question,
		Response:  &response,
		Timestamp: now,
		Skipped:   skipped,
	})
	session.RemainingQuestions = append(
		session.RemainingQuestions[:idx],
		session.RemainingQuestions[idx+1:]...)

	if !skipped {
		o.applyResponse(session, question.Field, resp.Value)
	}

	o.recordInteraction(ctx, session, question.Field, resp, now, skipped)
	o.aggregator.Invalidate(question.Field)

	return o.advance(ctx, session)
}

// PendingSuggestions lists the suggested-bucket fields still awaiting the
// user's confirmation, in field-name order.
func (o *Orchestrator) PendingSuggestions(session *model.ConversationSession) []model.RequirementField {
	if session.AutoFill == nil {
		return nil
	}

	fields := make([]model.RequirementField, 0, len(session.AutoFill.Suggested))
	for field := range session.AutoFill.Suggested {
		if !session.Answered(field) {
			fields = append(fields, field)
		}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// ConfirmSuggestion resolves a suggested field: the user accepted the
// proposed value, replaced it, or skipped the field. Confirming a field the
// classifier never suggested is an error.
func (o *Orchestrator) ConfirmSuggestion(ctx context.Context, session *model.ConversationSession, field model.RequirementField, value model.ResponseValue) error {
	if session.AutoFill == nil {
		return fmt.Errorf("field %s was not suggested: %w", field, common.ErrNotFound)
	}
	if _, ok := session.AutoFill.Suggested[field]; !ok {
		return fmt.Errorf("field %s was not suggested: %w", field, common.ErrNotFound)
	}

	now := o.now()
	skipped := value.IsSkip()
	if !skipped {
		o.applyResponse(session, field, value)
	}

	o.recordInteraction(ctx, session, field, model.UserResponse{Value: value, Timestamp: now}, now, skipped)
	o.aggregator.Invalidate(field)
	return nil
}

// GetSmartDefault returns a fresh merged default for a field in the session's
// context.
func (o *Orchestrator) GetSmartDefault(ctx context.Context, field model.RequirementField, session *model.ConversationSession) (*model.FieldDefault, error) {
	return o.aggregator.GetDefault(ctx, field, o.buildContext(session))
}

// advance prunes questions satisfied since generation, finds the next
// eligible one, and builds its prompt. No eligible question left is the sole
// terminal transition.
func (o *Orchestrator) advance(ctx context.Context, session *model.ConversationSession) (*model.NextPrompt, error) {
	pruned := session.RemainingQuestions[:0]
	for _, q := range session.RemainingQuestions {
		if !session.Answered(q.Field) {
			pruned = append(pruned, q)
		}
	}
	session.RemainingQuestions = pruned

	if len(session.RemainingQuestions) == 0 {
		session.State = model.StateComplete
		slog.Info("Conversation complete",
			"session_id", session.ID,
			"questions_asked", len(session.QuestionHistory))
		return nil, nil
	}

	next := session.RemainingQuestions[0]
	session.State = stateFor(next.Priority)

	return o.buildPrompt(ctx, session, next, true), nil
}

// peekPrompt rebuilds the current prompt without touching session state, for
// callers that submitted a stale question id.
func (o *Orchestrator) peekPrompt(ctx context.Context, session *model.ConversationSession) (*model.NextPrompt, error) {
	for _, q := range session.RemainingQuestions {
		if !session.Answered(q.Field) {
			return o.buildPrompt(ctx, session, q, false), nil
		}
	}
	return nil, nil
}

// CurrentPrompt returns the prompt for the session's first pending question,
// or nil when nothing remains. Unlike ProcessUserResponse it records the
// fetched suggestion so a subsequent answer can be scored against it.
func (o *Orchestrator) CurrentPrompt(ctx context.Context, session *model.ConversationSession) (*model.NextPrompt, error) {
	if session.Complete() {
		return nil, nil
	}
	for _, q := range session.RemainingQuestions {
		if !session.Answered(q.Field) {
			return o.buildPrompt(ctx, session, q, true), nil
		}
	}
	return nil, nil
}

// buildPrompt fetches a fresh smart default for the question's field and
// synthesizes help text carrying the suggestion's provenance.
func (o *Orchestrator) buildPrompt(ctx context.Context, session *model.ConversationSession, question model.DynamicQuestion, remember bool) *model.NextPrompt {
	def, err := o.aggregator.GetDefault(ctx, question.Field, o.buildContext(session))
	if err != nil {
		slog.Debug("Smart default lookup failed for prompt",
			"session_id", session.ID,
			"field", question.Field,
			"error", err)
		def = nil
	}

	if def != nil && remember {
		// Remembering the suggestion lets the learning record say whether
		// it was accepted.
		session.SuggestedAnswers[question.Field] = *def
	}

	return &model.NextPrompt{
		Question:   question,
		Suggestion: def,
		HelpText:   synthesizeHelp(question, def),
	}
}

// recordInteraction emits the learning record for an answered or confirmed
// field. Learning is fire-and-forget: failures are logged, never surfaced.
func (o *Orchestrator) recordInteraction(ctx context.Context, session *model.ConversationSession, field model.RequirementField, resp model.UserResponse, now time.Time, skipped bool) {
	var suggested *model.ResponseValue
	if def, ok := session.SuggestedAnswers[field]; ok {
		value := def.Value
		suggested = &value
	}

	accepted := !skipped && suggested != nil && suggested.Equal(resp.Value)

	var latency time.Duration
	if !resp.Timestamp.IsZero() {
		latency = now.Sub(resp.Timestamp)
	}

	var priorField *model.RequirementField
	if n := len(session.QuestionHistory); n >= 2 {
		field := session.QuestionHistory[n-2].Question.Field
		priorField = &field
	}

	_, quarter, _, _ := model.FiscalCalendar(now)

	interaction := model.Interaction{
		SessionID:          session.ID,
		UserID:             session.UserID,
		Field:              field,
		PriorField:         priorField,
		SuggestedValue:     suggested,
		AcceptedSuggestion: accepted,
		FinalValue:         resp.Value,
		ResponseLatency:    latency,
		FiscalQuarter:      quarter,
		HadDocumentContext: session.HadDocumentContext,
		Timestamp:          now,
	}

	if err := o.learner.Learn(ctx, interaction); err != nil {
		slog.Warn("Failed to record learning interaction",
			"session_id", session.ID,
			"field", field,
			"error", err)
	}
}

// applyResponse merges an answer into collectedData by the field's semantic
// slot: vendor sub-fields additionally fold into the session's vendor record.
func (o *Orchestrator) applyResponse(session *model.ConversationSession, field model.RequirementField, value model.ResponseValue) {
	session.CollectedData[field] = value

	switch field {
	case model.FieldVendorName, model.FieldVendorContact,
		model.FieldVendorAddress, model.FieldVendorTaxID:
		if session.Vendor == nil {
			session.Vendor = &model.VendorInfo{}
		}
		switch field {
		case model.FieldVendorName:
			session.Vendor.Name = value.String()
		case model.FieldVendorContact:
			session.Vendor.Contact = value.String()
		case model.FieldVendorAddress:
			session.Vendor.Address = value.String()
		case model.FieldVendorTaxID:
			session.Vendor.TaxID = value.String()
		}
	}
}

// seedVendor folds any pre-filled vendor sub-fields into the vendor record.
func (o *Orchestrator) seedVendor(session *model.ConversationSession) {
	for _, field := range []model.RequirementField{
		model.FieldVendorName, model.FieldVendorContact,
		model.FieldVendorAddress, model.FieldVendorTaxID,
	} {
		if value, ok := session.CollectedData[field]; ok {
			o.applyResponse(session, field, value)
		}
	}
}

// buildContext assembles the provider-facing context from the session and
// the fiscal calendar.
func (o *Orchestrator) buildContext(session *model.ConversationSession) model.SmartDefaultContext {
	year, quarter, daysToEnd, endOfYear := model.FiscalCalendar(o.now())

	extracted := make(map[model.RequirementField]string, len(session.Extracted))
	for field, raw := range session.Extracted {
		extracted[field] = raw
	}

	return model.SmartDefaultContext{
		SessionID:           session.ID,
		UserID:              session.UserID,
		OrgID:               session.OrgID,
		FiscalYear:          year,
		FiscalQuarter:       quarter,
		EndOfFiscalYear:     endOfYear,
		DaysToFiscalYearEnd: daysToEnd,
		ExtractedData:       extracted,
		CompletedFields:     session.AnsweredFields(),
	}
}

// candidateFields returns the unique fields behind a question set, in
// question order.
func candidateFields(questions []model.DynamicQuestion) []model.RequirementField {
	seen := make(map[model.RequirementField]bool, len(questions))
	fields := make([]model.RequirementField, 0, len(questions))
	for _, q := range questions {
		if !seen[q.Field] {
			seen[q.Field] = true
			fields = append(fields, q.Field)
		}
	}
	return fields
}

// overallConfidence maps the classification summary onto the session
// confidence level: (autoFilled + 0.5*suggested) / total, high above 0.7,
// medium above 0.4, low otherwise.
func overallConfidence(summary model.AutoFillSummary, totalFields int) model.ConfidenceLevel {
	if totalFields == 0 {
		return model.ConfidenceLow
	}

	score := (float64(summary.AutoFilledCount) + 0.5*float64(summary.SuggestedCount)) / float64(totalFields)
	switch {
	case score > 0.7:
		return model.ConfidenceHigh
	case score > 0.4:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// stateFor maps the upcoming question's priority onto the conversation
// phase: pressing questions are basic info, routine ones fill gaps, and
// low-priority stragglers are detail confirmation.
func stateFor(priority model.QuestionPriority) model.ConversationState {
	switch priority {
	case model.PriorityCritical, model.PriorityHigh:
		return model.StateGatheringBasicInfo
	case model.PriorityMedium:
		return model.StateFillingGaps
	default:
		return model.StateConfirmingDetails
	}
}
