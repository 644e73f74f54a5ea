package model

import "time"

// AutoFillSummary carries per-bucket counts for one classification pass.
type AutoFillSummary struct {
	AutoFilledCount int
	SuggestedCount  int
	MustAskCount    int
	Duration        time.Duration
}

// AutoFillResult partitions a field set into the three buckets a
// classification pass can place a field in. The partition is total and
// disjoint; MustAsk preserves the caller's input ordering. Immutable once
// produced.
type AutoFillResult struct {
	AutoFilled map[RequirementField]ResponseValue
	Suggested  map[RequirementField]FieldDefault
	MustAsk    []RequirementField
	Summary    AutoFillSummary
}

// Bucketed reports whether the field landed in any bucket.
func (r *AutoFillResult) Bucketed(field RequirementField) bool {
	if _, ok := r.AutoFilled[field]; ok {
		return true
	}
	if _, ok := r.Suggested[field]; ok {
		return true
	}
	for _, f := range r.MustAsk {
		if f == field {
			return true
		}
	}
	return false
}
