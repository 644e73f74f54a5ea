package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the variants of a ResponseValue.
type ValueKind string

// Value kind constants.
const (
	ValueText        ValueKind = "text"
	ValueSelection   ValueKind = "selection"
	ValueNumber      ValueKind = "number"
	ValueDate        ValueKind = "date"
	ValueBoolean     ValueKind = "boolean"
	ValueDocumentRef ValueKind = "document_ref"
	ValueSkip        ValueKind = "skip"
)

// ResponseValue is a tagged union over the payload types a field can hold.
// Exactly one variant is populated, chosen by Kind. Values are compared by
// tag plus payload; construct them through the typed constructors.
type ResponseValue struct {
	Kind        ValueKind
	Text        string
	Selection   string
	Number      decimal.Decimal
	Date        time.Time
	Boolean     bool
	DocumentRef string
}

// TextValue returns a text response value.
func TextValue(s string) ResponseValue {
	return ResponseValue{Kind: ValueText, Text: s}
}

// SelectionValue returns a selection response value.
func SelectionValue(option string) ResponseValue {
	return ResponseValue{Kind: ValueSelection, Selection: option}
}

// NumberValue returns a numeric response value.
func NumberValue(d decimal.Decimal) ResponseValue {
	return ResponseValue{Kind: ValueNumber, Number: d}
}

// DateValue returns a date response value.
func DateValue(t time.Time) ResponseValue {
	return ResponseValue{Kind: ValueDate, Date: t}
}

// BoolValue returns a boolean response value.
func BoolValue(b bool) ResponseValue {
	return ResponseValue{Kind: ValueBoolean, Boolean: b}
}

// DocumentRefValue returns a document reference response value.
func DocumentRefValue(id string) ResponseValue {
	return ResponseValue{Kind: ValueDocumentRef, DocumentRef: id}
}

// SkipValue returns the sentinel value for an explicitly skipped field.
func SkipValue() ResponseValue {
	return ResponseValue{Kind: ValueSkip}
}

// IsZero reports whether the value is the uninitialized zero value.
func (v ResponseValue) IsZero() bool {
	return v.Kind == ""
}

// IsSkip reports whether the user explicitly skipped the field.
func (v ResponseValue) IsSkip() bool {
	return v.Kind == ValueSkip
}

// Equal compares tag and payload. Numbers compare by exact decimal equality,
// dates by instant.
func (v ResponseValue) Equal(other ResponseValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueText:
		return v.Text == other.Text
	case ValueSelection:
		return v.Selection == other.Selection
	case ValueNumber:
		return v.Number.Equal(other.Number)
	case ValueDate:
		return v.Date.Equal(other.Date)
	case ValueBoolean:
		return v.Boolean == other.Boolean
	case ValueDocumentRef:
		return v.DocumentRef == other.DocumentRef
	case ValueSkip:
		return true
	}
	return false
}

// String renders the payload for display and for pattern storage keys.
func (v ResponseValue) String() string {
	switch v.Kind {
	case ValueText:
		return v.Text
	case ValueSelection:
		return v.Selection
	case ValueNumber:
		return v.Number.String()
	case ValueDate:
		return v.Date.Format("2006-01-02")
	case ValueBoolean:
		if v.Boolean {
			return "yes"
		}
		return "no"
	case ValueDocumentRef:
		return fmt.Sprintf("document:%s", v.DocumentRef)
	case ValueSkip:
		return "(skipped)"
	}
	return ""
}

// ParseValue reconstructs a ResponseValue from a stored kind tag and string
// payload, the inverse of String for every variant.
func ParseValue(kind ValueKind, s string) (ResponseValue, error) {
	switch kind {
	case ValueText:
		return TextValue(s), nil
	case ValueSelection:
		return SelectionValue(s), nil
	case ValueNumber:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return ResponseValue{}, fmt.Errorf("invalid numeric payload %q: %w", s, err)
		}
		return NumberValue(d), nil
	case ValueDate:
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return ResponseValue{}, fmt.Errorf("invalid date payload %q: %w", s, err)
		}
		return DateValue(t), nil
	case ValueBoolean:
		return BoolValue(s == "yes" || s == "true"), nil
	case ValueDocumentRef:
		return DocumentRefValue(strings.TrimPrefix(s, "document:")), nil
	case ValueSkip:
		return SkipValue(), nil
	}
	return ResponseValue{}, fmt.Errorf("unknown response value kind %q", kind)
}

// Validate ensures the value carries a known kind.
func (v ResponseValue) Validate() error {
	switch v.Kind {
	case ValueText, ValueSelection, ValueNumber, ValueDate, ValueBoolean,
		ValueDocumentRef, ValueSkip:
		return nil
	case "":
		return fmt.Errorf("response value has no kind")
	}
	return fmt.Errorf("unknown response value kind %q", v.Kind)
}
