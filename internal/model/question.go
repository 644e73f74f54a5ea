package model

import (
	"sort"
	"time"
)

// QuestionPriority orders questions when filling remaining gaps.
type QuestionPriority string

// Question priority constants.
const (
	PriorityCritical QuestionPriority = "critical"
	PriorityHigh     QuestionPriority = "high"
	PriorityMedium   QuestionPriority = "medium"
	PriorityLow      QuestionPriority = "low"
)

// rank maps priorities to sortable weights; lower sorts first.
func (p QuestionPriority) rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// ResponseType tells the UI how to collect an answer for a question.
type ResponseType string

// Response type constants.
const (
	ResponseText      ResponseType = "text"
	ResponseSelection ResponseType = "selection"
	ResponseNumber    ResponseType = "number"
	ResponseDate      ResponseType = "date"
	ResponseBoolean   ResponseType = "boolean"
	ResponseDocument  ResponseType = "document"
)

// ValidationRule constrains acceptable answers to a question.
type ValidationRule struct {
	Pattern   string
	MinLength int
	MaxLength int
}

// DynamicQuestion is one candidate question for a conversation. Immutable once
// generated for a session.
type DynamicQuestion struct {
	ID           string
	Field        RequirementField
	Prompt       string
	ResponseType ResponseType
	Options      []string
	Validation   *ValidationRule
	Priority     QuestionPriority
	HelpText     string
	Examples     []string
	Required     bool
}

// AskedQuestion is an append-only history entry for one asked question.
type AskedQuestion struct {
	Timestamp time.Time
	Response  *ResponseValue
	Question  DynamicQuestion
	Skipped   bool
}

// UserResponse is the caller-supplied answer to a pending question.
type UserResponse struct {
	Timestamp  time.Time
	QuestionID string
	Value      ResponseValue
}

// NextPrompt is what the orchestrator hands back after each response: the next
// question to ask, an optional suggested answer, and synthesized help text.
type NextPrompt struct {
	Suggestion *FieldDefault
	Question   DynamicQuestion
	HelpText   string
}

// SortQuestionsByPriority orders questions by priority (critical first),
// preserving the generator's relative order within a priority tier.
func SortQuestionsByPriority(questions []DynamicQuestion) {
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Priority.rank() < questions[j].Priority.rank()
	})
}
