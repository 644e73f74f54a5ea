// Package questions generates the candidate question set for an acquisition
// type. The orchestrator filters and orders the output; templates here only
// decide what could be asked.
package questions

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/smartfill/internal/model"
)

// template is one question blueprint prior to instantiation for a session.
type template struct {
	validation   *model.ValidationRule
	field        model.RequirementField
	prompt       string
	help         string
	responseType model.ResponseType
	priority     model.QuestionPriority
	options      []string
	examples     []string
	required     bool
}

var baseTemplates = []template{
	{
		field:        model.FieldTitle,
		prompt:       "What should this request be called?",
		responseType: model.ResponseText,
		priority:     model.PriorityCritical,
		help:         "A short name that identifies the request to approvers.",
		examples:     []string{"Standing desks for design team", "Annual GitHub renewal"},
		required:     true,
		validation:   &model.ValidationRule{MinLength: 3, MaxLength: 120},
	},
	{
		field:        model.FieldDescription,
		prompt:       "Describe what you're requesting.",
		responseType: model.ResponseText,
		priority:     model.PriorityHigh,
		help:         "What it is, who it's for, and anything approvers should know.",
		required:     true,
	},
	{
		field:        model.FieldAmount,
		prompt:       "What's the total amount?",
		responseType: model.ResponseNumber,
		priority:     model.PriorityCritical,
		help:         "The full cost including tax and shipping.",
		examples:     []string{"1499.99", "250"},
		required:     true,
	},
	{
		field:        model.FieldRequiredDate,
		prompt:       "When do you need this by?",
		responseType: model.ResponseDate,
		priority:     model.PriorityHigh,
		help:         "The date this must be in hand or in effect.",
		required:     true,
	},
	{
		field:        model.FieldJustification,
		prompt:       "Why is this purchase needed?",
		responseType: model.ResponseText,
		priority:     model.PriorityHigh,
		help:         "The business reason approvers will weigh.",
		required:     true,
	},
	{
		field:        model.FieldVendorName,
		prompt:       "Who is the vendor?",
		responseType: model.ResponseText,
		priority:     model.PriorityHigh,
		required:     true,
	},
	{
		field:        model.FieldCategory,
		prompt:       "What category does this fall under?",
		responseType: model.ResponseSelection,
		priority:     model.PriorityMedium,
		options: []string{
			"Hardware", "Software", "Office Supplies", "Professional Services",
			"Travel", "Training", "Facilities", "Other",
		},
		required: true,
	},
	{
		field:        model.FieldDepartment,
		prompt:       "Which department is this for?",
		responseType: model.ResponseSelection,
		priority:     model.PriorityMedium,
		required:     true,
	},
	{
		field:        model.FieldCostCenter,
		prompt:       "Which cost center should be charged?",
		responseType: model.ResponseText,
		priority:     model.PriorityMedium,
	},
	{
		field:        model.FieldPriority,
		prompt:       "How urgent is this request?",
		responseType: model.ResponseSelection,
		priority:     model.PriorityMedium,
		options:      []string{"low", "medium", "high", "critical"},
	},
	{
		field:        model.FieldQuantity,
		prompt:       "How many do you need?",
		responseType: model.ResponseNumber,
		priority:     model.PriorityMedium,
	},
	{
		field:        model.FieldCurrency,
		prompt:       "What currency is the amount in?",
		responseType: model.ResponseSelection,
		priority:     model.PriorityLow,
		options:      []string{"USD", "EUR", "GBP", "CAD"},
	},
	{
		field:        model.FieldApprover,
		prompt:       "Who should approve this request?",
		responseType: model.ResponseText,
		priority:     model.PriorityMedium,
	},
	{
		field:        model.FieldBudgetCode,
		prompt:       "Which budget code does this draw from?",
		responseType: model.ResponseText,
		priority:     model.PriorityMedium,
	},
	{
		field:        model.FieldAttachments,
		prompt:       "Any quotes or supporting documents to attach?",
		responseType: model.ResponseDocument,
		priority:     model.PriorityLow,
	},
}

// typeTemplates extends the base set per acquisition type.
var typeTemplates = map[model.AcquisitionType][]template{
	model.AcquisitionPurchase: {
		{
			field:        model.FieldUnitPrice,
			prompt:       "What's the price per unit?",
			responseType: model.ResponseNumber,
			priority:     model.PriorityMedium,
		},
		{
			field:        model.FieldDeliveryLocation,
			prompt:       "Where should this be delivered?",
			responseType: model.ResponseText,
			priority:     model.PriorityMedium,
		},
	},
	model.AcquisitionService: {
		{
			field:        model.FieldContractNumber,
			prompt:       "Is there an existing contract number?",
			responseType: model.ResponseText,
			priority:     model.PriorityMedium,
		},
		{
			field:        model.FieldPaymentTerms,
			prompt:       "What payment terms apply?",
			responseType: model.ResponseSelection,
			priority:     model.PriorityLow,
			options:      []string{"Net 15", "Net 30", "Net 45", "Net 60", "Due on receipt"},
		},
	},
	model.AcquisitionSubscription: {
		{
			field:        model.FieldPaymentTerms,
			prompt:       "What's the billing cadence?",
			responseType: model.ResponseSelection,
			priority:     model.PriorityMedium,
			options:      []string{"Monthly", "Quarterly", "Annual"},
		},
		{
			field:        model.FieldContractNumber,
			prompt:       "Is there an existing subscription or contract number?",
			responseType: model.ResponseText,
			priority:     model.PriorityLow,
		},
	},
	model.AcquisitionEquipment: {
		{
			field:        model.FieldTechnicalSpecs,
			prompt:       "What are the technical requirements?",
			responseType: model.ResponseText,
			priority:     model.PriorityHigh,
			help:         "Specs the vendor must meet: dimensions, capacity, compatibility.",
		},
		{
			field:        model.FieldWarranty,
			prompt:       "What warranty coverage is required?",
			responseType: model.ResponseText,
			priority:     model.PriorityLow,
		},
		{
			field:        model.FieldDeliveryLocation,
			prompt:       "Where should the equipment be delivered?",
			responseType: model.ResponseText,
			priority:     model.PriorityMedium,
		},
		{
			field:        model.FieldVendorTaxID,
			prompt:       "What's the vendor's tax ID?",
			responseType: model.ResponseText,
			priority:     model.PriorityLow,
		},
	},
}

// Generator produces candidate question sets from the built-in templates.
type Generator struct{}

// NewGenerator creates a question generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateQuestions instantiates the full candidate question set for one
// session: the base questions followed by the acquisition type's additions,
// each with a fresh question id. The list is ordered by the templates'
// declaration order; the caller applies any further filtering and sorting.
func (g *Generator) GenerateQuestions(_ context.Context, acquisitionType model.AcquisitionType, _ model.ExtractedContext) ([]model.DynamicQuestion, error) {
	templates := make([]template, 0, len(baseTemplates)+4)
	templates = append(templates, baseTemplates...)
	templates = append(templates, typeTemplates[acquisitionType]...)

	generated := make([]model.DynamicQuestion, 0, len(templates))
	for _, t := range templates {
		generated = append(generated, model.DynamicQuestion{
			ID:           uuid.New().String(),
			Field:        t.field,
			Prompt:       t.prompt,
			ResponseType: t.responseType,
			Options:      t.options,
			Validation:   t.validation,
			Priority:     t.priority,
			HelpText:     t.help,
			Examples:     t.examples,
			Required:     t.required,
		})
	}

	return generated, nil
}
