package protocol

import (
	"strings"
	"testing"

	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/score"
)

const singleRecord = "Rule ID: R1, Rule Name: Loop, Description: d, Penalty: 7, Optimization: o, Affected Line(s): Line 5"

func TestParseSingleRecord(t *testing.T) {
	recs := Parse(singleRecord)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(recs), recs)
	}

	r := recs[0]
	if r.RuleID != "R1" || r.RuleName != "Loop" || r.Description != "d" || r.Optimization != "o" {
		t.Errorf("unexpected fields: %+v", r)
	}
	if r.StartLine != 4 || r.EndLine != 4 {
		t.Errorf("expected lines 4-4, got %d-%d", r.StartLine, r.EndLine)
	}
	if !r.HasPenalty() || *r.Penalty != 7 {
		t.Errorf("expected penalty 7, got %v", r.Penalty)
	}
	if b := score.Of(r); b != model.BandB {
		t.Errorf("expected band B, got %s", b)
	}
}

func TestParseRange(t *testing.T) {
	recs := Parse("Rule ID: r, Rule Name: n, Description: d, Penalty: 3.50, Optimization: o, Affected Line(s): Lines 3-5")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].StartLine != 2 || recs[0].EndLine != 4 {
		t.Errorf("expected lines 2-4, got %d-%d", recs[0].StartLine, recs[0].EndLine)
	}
	if *recs[0].Penalty != 3.5 {
		t.Errorf("expected penalty 3.5, got %v", *recs[0].Penalty)
	}
}

func TestParsePenaltyVariants(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		present bool
	}{
		{"omitted", "Rule ID: a, Rule Name: b, Description: c, Optimization: o, Affected Line(s): Line 1", false},
		{"python None", "Rule ID: a, Rule Name: b, Description: c, Penalty: None, Optimization: o, Affected Line(s): Line 1", false},
		{"garbage", "Rule ID: a, Rule Name: b, Description: c, Penalty: lots, Optimization: o, Affected Line(s): Line 1", false},
		{"NaN", "Rule ID: a, Rule Name: b, Description: c, Penalty: NaN, Optimization: o, Affected Line(s): Line 1", false},
		{"negative", "Rule ID: a, Rule Name: b, Description: c, Penalty: -2, Optimization: o, Affected Line(s): Line 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := Parse(tt.text)
			if len(recs) != 1 {
				t.Fatalf("expected 1 record, got %d", len(recs))
			}
			if recs[0].HasPenalty() != tt.present {
				t.Errorf("HasPenalty = %v, want %v", recs[0].HasPenalty(), tt.present)
			}
			if !tt.present && score.Of(recs[0]) != model.BandUnknown {
				t.Errorf("expected unknown band, got %s", score.Of(recs[0]))
			}
		})
	}
}

func TestParseEmbeddedInNoise(t *testing.T) {
	text := `Detected Code Smells:
==============================

Line 5:
  - ` + singleRecord + `
  - Rule ID: R2, Rule Name: Chain Indexing, Description: chained [] lookups, Penalty: 12.00, Optimization: use .loc, Affected Line(s): Lines 8-9
some trailing junk`

	recs := Parse(text)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(recs), recs)
	}
	if recs[0].RuleID != "R1" || recs[1].RuleID != "R2" {
		t.Errorf("records out of order: %v", recs)
	}
	if recs[1].Description != "chained [] lookups" {
		t.Errorf("unexpected description %q", recs[1].Description)
	}
}

func TestParseMalformed(t *testing.T) {
	inputs := []string{
		"",
		"nothing to see here",
		"Rule ID: a, Rule Name: b, Description: c, Affected Line(s): Line 1",
		"Rule ID: a, Rule Name: b, Description: c, Optimization: o, Affected Line(s): Row 1",
		"Rule ID: a, Rule Name: b, Description: c, Optimization: o, Affected Line(s): Lines 9-3",
		"Rule ID: a, Rule Name: b, Description: c, Optimization: o, Affected Line(s): Line 99999999999999999999999",
	}
	for _, in := range inputs {
		if recs := Parse(in); len(recs) != 0 {
			t.Errorf("Parse(%q) = %v, want none", in, recs)
		}
	}
}

func TestParseKeepsOutOfRangeLines(t *testing.T) {
	recs := Parse("Rule ID: a, Rule Name: b, Description: c, Optimization: o, Affected Line(s): Line 0")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].StartLine != -1 {
		t.Errorf("expected start line -1, got %d", recs[0].StartLine)
	}
}

func TestRecordsStopsEarly(t *testing.T) {
	text := strings.Repeat(singleRecord+"\n", 5)

	n := 0
	for range Records(text) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("expected to stop after 2, got %d", n)
	}
	if got := len(Parse(text)); got != 5 {
		t.Errorf("expected 5 records, got %d", got)
	}
}

func TestParseSkipsBadFragmentAndContinues(t *testing.T) {
	text := "Rule ID: x, Rule Name: y, Description: z, Optimization: o, Affected Line(s): Lines 7-2\n" + singleRecord
	recs := Parse(text)
	if len(recs) != 1 || recs[0].RuleID != "R1" {
		t.Errorf("expected only R1, got %v", recs)
	}
}
