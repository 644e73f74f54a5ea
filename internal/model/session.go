package model

import "time"

// ConversationState tracks where a session is in its lifecycle.
type ConversationState string

// Conversation state constants.
const (
	StateStarting           ConversationState = "starting"
	StateGatheringBasicInfo ConversationState = "gathering_basic_info"
	StateExtractingFromDocs ConversationState = "extracting_from_documents"
	StateFillingGaps        ConversationState = "filling_gaps"
	StateConfirmingDetails  ConversationState = "confirming_details"
	StateComplete           ConversationState = "complete"
)

// ConfidenceLevel summarizes how much of a session was answered without the
// user's help.
type ConfidenceLevel string

// Confidence level constants.
const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// VendorInfo accumulates the vendor sub-fields into one record as they are
// answered, so downstream consumers see a single vendor entity.
type VendorInfo struct {
	Name    string
	Contact string
	Address string
	TaxID   string
}

// ConversationSession is the single source of truth for one adaptive
// conversation. It is owned by the orchestrator: callers hold it between turns
// but mutate it only through orchestrator operations.
type ConversationSession struct {
	StartTime          time.Time
	CollectedData      map[RequirementField]ResponseValue
	SuggestedAnswers   map[RequirementField]FieldDefault
	Extracted          map[RequirementField]string
	AutoFill           *AutoFillResult
	Vendor             *VendorInfo
	ID                 string
	UserID             string
	OrgID              string
	State              ConversationState
	Confidence         ConfidenceLevel
	AcquisitionType    AcquisitionType
	QuestionHistory    []AskedQuestion
	RemainingQuestions []DynamicQuestion
	HadDocumentContext bool
}

// Complete reports whether the session reached its terminal state.
func (s *ConversationSession) Complete() bool {
	return s.State == StateComplete
}

// Answered reports whether collectedData already holds a value for the field.
// Skipped fields do not count as answered data.
func (s *ConversationSession) Answered(field RequirementField) bool {
	v, ok := s.CollectedData[field]
	return ok && !v.IsSkip()
}

// AnsweredFields returns the fields present in collectedData, in canonical
// field order so callers get a deterministic sequence.
func (s *ConversationSession) AnsweredFields() []RequirementField {
	fields := make([]RequirementField, 0, len(s.CollectedData))
	for _, f := range AllFields() {
		if s.Answered(f) {
			fields = append(fields, f)
		}
	}
	return fields
}
