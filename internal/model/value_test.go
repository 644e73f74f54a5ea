package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a    ResponseValue
		b    ResponseValue
		want bool
	}{
		{
			name: "equal text",
			a:    TextValue("Dell Technologies"),
			b:    TextValue("Dell Technologies"),
			want: true,
		},
		{
			name: "different text",
			a:    TextValue("Dell Technologies"),
			b:    TextValue("HP Inc"),
			want: false,
		},
		{
			name: "different kinds never equal",
			a:    TextValue("42"),
			b:    NumberValue(decimal.NewFromInt(42)),
			want: false,
		},
		{
			name: "numbers compare by exact decimal value",
			a:    NumberValue(decimal.RequireFromString("1500.00")),
			b:    NumberValue(decimal.RequireFromString("1500")),
			want: true,
		},
		{
			name: "numbers with different values",
			a:    NumberValue(decimal.RequireFromString("1500.00")),
			b:    NumberValue(decimal.RequireFromString("1500.01")),
			want: false,
		},
		{
			name: "dates compare by instant across zones",
			a:    DateValue(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)),
			b:    DateValue(time.Date(2026, 3, 15, 7, 0, 0, 0, time.FixedZone("EST", -5*3600))),
			want: true,
		},
		{
			name: "skips are always equal",
			a:    SkipValue(),
			b:    SkipValue(),
			want: true,
		},
		{
			name: "booleans",
			a:    BoolValue(true),
			b:    BoolValue(false),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestParseValue_InverseOfString(t *testing.T) {
	values := []ResponseValue{
		TextValue("office chairs"),
		SelectionValue("Hardware"),
		NumberValue(decimal.RequireFromString("2499.99")),
		DateValue(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)),
		BoolValue(true),
		BoolValue(false),
		DocumentRefValue("quote-17"),
		SkipValue(),
	}

	for _, v := range values {
		t.Run(string(v.Kind), func(t *testing.T) {
			parsed, err := ParseValue(v.Kind, v.String())
			require.NoError(t, err)
			assert.True(t, v.Equal(parsed), "round trip changed value: %s vs %s", v, parsed)
		})
	}
}

func TestParseValue_Errors(t *testing.T) {
	_, err := ParseValue(ValueNumber, "not a number")
	assert.Error(t, err)

	_, err = ParseValue(ValueDate, "soonish")
	assert.Error(t, err)

	_, err = ParseValue("mystery", "x")
	assert.Error(t, err)
}

func TestCoerceExtracted(t *testing.T) {
	tests := []struct {
		name      string
		field     RequirementField
		raw       string
		want      ResponseValue
		wantTyped bool
		wantErr   bool
	}{
		{
			name:      "amount with currency formatting",
			field:     FieldAmount,
			raw:       "$12,500.00",
			want:      NumberValue(decimal.RequireFromString("12500.00")),
			wantTyped: true,
		},
		{
			name:      "quantity",
			field:     FieldQuantity,
			raw:       "3",
			want:      NumberValue(decimal.NewFromInt(3)),
			wantTyped: true,
		},
		{
			name:    "unparseable amount",
			field:   FieldAmount,
			raw:     "about twelve grand",
			wantErr: true,
		},
		{
			name:      "iso date",
			field:     FieldRequiredDate,
			raw:       "2026-09-01",
			want:      DateValue(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
			wantTyped: true,
		},
		{
			name:      "us slash date",
			field:     FieldRequiredDate,
			raw:       "09/01/2026",
			want:      DateValue(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
			wantTyped: true,
		},
		{
			name:      "long form date",
			field:     FieldRequiredDate,
			raw:       "September 1, 2026",
			want:      DateValue(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)),
			wantTyped: true,
		},
		{
			name:      "selection field",
			field:     FieldPaymentTerms,
			raw:       "Net 30",
			want:      SelectionValue("Net 30"),
			wantTyped: true,
		},
		{
			name:      "plain text field",
			field:     FieldVendorName,
			raw:       "  Acme Corp  ",
			want:      TextValue("Acme Corp"),
			wantTyped: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, typed, err := CoerceExtracted(tt.field, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTyped, typed)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestFiscalCalendar(t *testing.T) {
	tests := []struct {
		name          string
		now           time.Time
		wantYear      int
		wantQuarter   int
		wantEndOfYear bool
	}{
		{
			name:        "october starts the next fiscal year",
			now:         time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC),
			wantYear:    2026,
			wantQuarter: 1,
		},
		{
			name:        "january is second quarter",
			now:         time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
			wantYear:    2026,
			wantQuarter: 2,
		},
		{
			name:        "may is third quarter",
			now:         time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC),
			wantYear:    2026,
			wantQuarter: 3,
		},
		{
			name:          "september is year-end pressure",
			now:           time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC),
			wantYear:      2026,
			wantQuarter:   4,
			wantEndOfYear: true,
		},
		{
			name:        "early july is fourth quarter without pressure",
			now:         time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC),
			wantYear:    2026,
			wantQuarter: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, quarter, daysToEnd, endOfYear := FiscalCalendar(tt.now)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantQuarter, quarter)
			assert.Equal(t, tt.wantEndOfYear, endOfYear)
			assert.GreaterOrEqual(t, daysToEnd, 0)
		})
	}
}

func TestSortQuestionsByPriority_Stable(t *testing.T) {
	questions := []DynamicQuestion{
		{ID: "a", Field: FieldQuantity, Priority: PriorityLow},
		{ID: "b", Field: FieldAmount, Priority: PriorityCritical},
		{ID: "c", Field: FieldDepartment, Priority: PriorityMedium},
		{ID: "d", Field: FieldTitle, Priority: PriorityCritical},
		{ID: "e", Field: FieldVendorName, Priority: PriorityHigh},
	}

	SortQuestionsByPriority(questions)

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	// Critical questions keep their relative order.
	assert.Equal(t, []string{"b", "d", "e", "c", "a"}, ids)
}

func TestSession_Answered(t *testing.T) {
	session := &ConversationSession{
		CollectedData: map[RequirementField]ResponseValue{
			FieldTitle:  TextValue("New laptops"),
			FieldAmount: SkipValue(),
		},
	}

	assert.True(t, session.Answered(FieldTitle))
	assert.False(t, session.Answered(FieldAmount), "a skip is not an answer")
	assert.False(t, session.Answered(FieldVendorName))
}
