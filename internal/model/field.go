// Package model defines the core domain models used throughout the application.
package model

// RequirementField identifies one named data slot required to complete an
// acquisition request. The set is closed: providers, questions and learned
// patterns are all keyed by these tags.
type RequirementField string

// Requirement field constants.
const (
	FieldTitle            RequirementField = "title"
	FieldDescription      RequirementField = "description"
	FieldAmount           RequirementField = "amount"
	FieldRequiredDate     RequirementField = "required_date"
	FieldJustification    RequirementField = "justification"
	FieldVendorName       RequirementField = "vendor_name"
	FieldVendorContact    RequirementField = "vendor_contact"
	FieldVendorAddress    RequirementField = "vendor_address"
	FieldVendorTaxID      RequirementField = "vendor_tax_id"
	FieldCategory         RequirementField = "category"
	FieldDepartment       RequirementField = "department"
	FieldCostCenter       RequirementField = "cost_center"
	FieldProject          RequirementField = "project"
	FieldPriority         RequirementField = "priority"
	FieldQuantity         RequirementField = "quantity"
	FieldUnitPrice        RequirementField = "unit_price"
	FieldCurrency         RequirementField = "currency"
	FieldDeliveryLocation RequirementField = "delivery_location"
	FieldApprover         RequirementField = "approver"
	FieldBudgetCode       RequirementField = "budget_code"
	FieldContractNumber   RequirementField = "contract_number"
	FieldPaymentTerms     RequirementField = "payment_terms"
	FieldWarranty         RequirementField = "warranty"
	FieldTechnicalSpecs   RequirementField = "technical_specs"
	FieldAttachments      RequirementField = "attachments"
)

// AllFields returns every requirement field in canonical order.
func AllFields() []RequirementField {
	return []RequirementField{
		FieldTitle, FieldDescription, FieldAmount, FieldRequiredDate,
		FieldJustification, FieldVendorName, FieldVendorContact,
		FieldVendorAddress, FieldVendorTaxID, FieldCategory, FieldDepartment,
		FieldCostCenter, FieldProject, FieldPriority, FieldQuantity,
		FieldUnitPrice, FieldCurrency, FieldDeliveryLocation, FieldApprover,
		FieldBudgetCode, FieldContractNumber, FieldPaymentTerms, FieldWarranty,
		FieldTechnicalSpecs, FieldAttachments,
	}
}

// criticalFields are never auto-filled silently unless the classifier is
// explicitly configured to allow it.
var criticalFields = map[RequirementField]bool{
	FieldAmount:         true,
	FieldVendorTaxID:    true,
	FieldApprover:       true,
	FieldBudgetCode:     true,
	FieldContractNumber: true,
}

// Critical reports whether silently auto-filling this field is restricted.
func (f RequirementField) Critical() bool {
	return criticalFields[f]
}

// String returns the field tag.
func (f RequirementField) String() string {
	return string(f)
}

// DisplayName returns a human-readable label for the field.
func (f RequirementField) DisplayName() string {
	names := map[RequirementField]string{
		FieldTitle:            "Title",
		FieldDescription:      "Description",
		FieldAmount:           "Total Amount",
		FieldRequiredDate:     "Required By Date",
		FieldJustification:    "Business Justification",
		FieldVendorName:       "Vendor Name",
		FieldVendorContact:    "Vendor Contact",
		FieldVendorAddress:    "Vendor Address",
		FieldVendorTaxID:      "Vendor Tax ID",
		FieldCategory:         "Category",
		FieldDepartment:       "Department",
		FieldCostCenter:       "Cost Center",
		FieldProject:          "Project",
		FieldPriority:         "Priority",
		FieldQuantity:         "Quantity",
		FieldUnitPrice:        "Unit Price",
		FieldCurrency:         "Currency",
		FieldDeliveryLocation: "Delivery Location",
		FieldApprover:         "Approver",
		FieldBudgetCode:       "Budget Code",
		FieldContractNumber:   "Contract Number",
		FieldPaymentTerms:     "Payment Terms",
		FieldWarranty:         "Warranty",
		FieldTechnicalSpecs:   "Technical Specifications",
		FieldAttachments:      "Attachments",
	}
	if name, ok := names[f]; ok {
		return name
	}
	return string(f)
}

// ValidField reports whether f is one of the known requirement fields.
func ValidField(f RequirementField) bool {
	for _, known := range AllFields() {
		if known == f {
			return true
		}
	}
	return false
}
