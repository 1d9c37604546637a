// Package model defines the core data types shared across greenlens.
package model

import (
	"fmt"
	"strings"
)

// Band classifies the energy penalty of a diagnostic.
type Band int

const (
	BandA Band = iota
	BandB
	BandC
	BandD
	BandE
	BandUnknown
)

func (b Band) String() string {
	switch b {
	case BandA:
		return "A"
	case BandB:
		return "B"
	case BandC:
		return "C"
	case BandD:
		return "D"
	case BandE:
		return "E"
	default:
		return "unknown"
	}
}

// Known reports whether b is one of the ordered bands A through E.
// BandUnknown is not comparable to the others.
func (b Band) Known() bool {
	return b >= BandA && b <= BandE
}

// AllBands returns every band in display order, Unknown last.
func AllBands() []Band {
	return []Band{BandA, BandB, BandC, BandD, BandE, BandUnknown}
}

// ParseBand accepts "A".."E" (any case) and "unknown".
func ParseBand(s string) (Band, error) {
	s = strings.TrimSpace(s)
	for _, b := range AllBands() {
		if strings.EqualFold(s, b.String()) {
			return b, nil
		}
	}
	return BandUnknown, fmt.Errorf("unknown band %q (want A-E or unknown)", s)
}

// Record is a single diagnostic reported by the analyzer.
// StartLine and EndLine are zero-indexed and inclusive.
type Record struct {
	RuleID       string
	RuleName     string
	Description  string
	Penalty      *float64 // nil when the analyzer gave no usable penalty
	Optimization string
	StartLine    int
	EndLine      int
}

// HasPenalty reports whether the analyzer supplied a numeric penalty.
func (r Record) HasPenalty() bool {
	return r.Penalty != nil
}

// RecordKey is the canonical content of a record as shown to a user.
// Two records with equal keys render identically, whatever their rule id.
type RecordKey struct {
	RuleName     string
	Description  string
	HasPenalty   bool
	Penalty      float64
	Optimization string
}

// Key returns the duplicate-detection key for r.
func (r Record) Key() RecordKey {
	k := RecordKey{
		RuleName:     r.RuleName,
		Description:  r.Description,
		Optimization: r.Optimization,
	}
	if r.Penalty != nil {
		k.HasPenalty = true
		k.Penalty = *r.Penalty
	}
	return k
}

func (r Record) String() string {
	loc := fmt.Sprintf("line %d", r.StartLine+1)
	if r.EndLine != r.StartLine {
		loc = fmt.Sprintf("lines %d-%d", r.StartLine+1, r.EndLine+1)
	}
	return fmt.Sprintf("[%s] %s: %s", r.RuleID, loc, r.RuleName)
}

// LineAnnotation aggregates every distinct record touching one line.
type LineAnnotation struct {
	Line    int
	Records []Record
	Band    Band
}

// Float returns a pointer to v, for building records in code.
func Float(v float64) *float64 {
	return &v
}
