package model

import "time"

// SmartDefaultContext carries everything a default source may consult when
// proposing a value. It is passed by value on every provider call; providers
// must treat it as read-only.
type SmartDefaultContext struct {
	SessionID           string
	UserID              string
	OrgID               string
	FiscalYear          int
	FiscalQuarter       int
	EndOfFiscalYear     bool
	DaysToFiscalYearEnd int
	ExtractedData       map[RequirementField]string
	CompletedFields     []RequirementField
	AutoFillThreshold   float64
	PriorResponseTime   *time.Duration
}

// HasDocumentContext reports whether any document-extracted data is available.
func (c SmartDefaultContext) HasDocumentContext() bool {
	return len(c.ExtractedData) > 0
}

// Extracted returns the raw extracted string for a field, if any.
func (c SmartDefaultContext) Extracted(field RequirementField) (string, bool) {
	s, ok := c.ExtractedData[field]
	return s, ok
}

// FiscalCalendar computes US-federal-style fiscal facts for a point in time.
// The fiscal year starts October 1 and is numbered by its ending calendar year.
func FiscalCalendar(now time.Time) (year, quarter, daysToEnd int, endOfYear bool) {
	year = now.Year()
	if now.Month() >= time.October {
		year++
	}

	switch {
	case now.Month() >= time.October:
		quarter = 1
	case now.Month() <= time.March:
		quarter = 2
	case now.Month() <= time.June:
		quarter = 3
	default:
		quarter = 4
	}

	fyEnd := time.Date(year, time.September, 30, 23, 59, 59, 0, now.Location())
	daysToEnd = int(fyEnd.Sub(now).Hours() / 24)

	// Year-end spending pressure starts inside the final 45 days.
	endOfYear = daysToEnd <= 45
	return year, quarter, daysToEnd, endOfYear
}
