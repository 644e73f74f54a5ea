package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CoerceExtracted converts a raw document-extracted string into the field's
// native value kind. The second return reports whether a typed (non-text)
// conversion succeeded; an error means the raw value is unusable for a typed
// field.
func CoerceExtracted(field RequirementField, raw string) (ResponseValue, bool, error) {
	raw = strings.TrimSpace(raw)

	switch field {
	case FieldAmount, FieldUnitPrice, FieldQuantity:
		d, err := ParseAmount(raw)
		if err != nil {
			return ResponseValue{}, false, err
		}
		return NumberValue(d), true, nil

	case FieldRequiredDate:
		t, err := ParseFlexibleDate(raw)
		if err != nil {
			return ResponseValue{}, false, err
		}
		return DateValue(t), true, nil

	case FieldCategory, FieldPriority, FieldCurrency, FieldPaymentTerms,
		FieldDepartment:
		return SelectionValue(raw), true, nil

	case FieldAttachments:
		return DocumentRefValue(raw), true, nil
	}

	return TextValue(raw), false, nil
}

// ParseAmount parses a numeric string, tolerating the currency formatting
// documents commonly carry.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	return decimal.NewFromString(cleaned)
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseFlexibleDate tries the date formats documents commonly use.
func ParseFlexibleDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
