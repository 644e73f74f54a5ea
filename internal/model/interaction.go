package model

import "time"

// Interaction is one structured learning record: what was suggested for a
// field, what the user finally chose, and how long it took them.
type Interaction struct {
	Timestamp          time.Time
	SuggestedValue     *ResponseValue
	PriorField         *RequirementField
	SessionID          string
	UserID             string
	Field              RequirementField
	FinalValue         ResponseValue
	ResponseLatency    time.Duration
	FiscalQuarter      int
	AcceptedSuggestion bool
	HadDocumentContext bool
}

// AcquisitionType selects which question set a conversation starts from.
type AcquisitionType string

// Acquisition type constants.
const (
	AcquisitionPurchase     AcquisitionType = "purchase"
	AcquisitionService      AcquisitionType = "service"
	AcquisitionSubscription AcquisitionType = "subscription"
	AcquisitionEquipment    AcquisitionType = "equipment"
)

// Document is one uploaded document handed to context extraction.
type Document struct {
	ID   string
	Name string
	Text string
}

// ExtractedContext is the (possibly empty) field data pulled out of uploaded
// documents before a conversation starts.
type ExtractedContext struct {
	Values      map[RequirementField]string
	DocumentIDs []string
}

// Empty reports whether extraction found nothing usable.
func (e ExtractedContext) Empty() bool {
	return len(e.Values) == 0
}
