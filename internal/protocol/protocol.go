// Package protocol parses the analyzer's line-oriented diagnostic output.
//
// A record looks like:
//
//	Rule ID: <id>, Rule Name: <name>, Description: <text>[, Penalty: <n>],
//	Optimization: <text>, Affected Line(s): Line <n> | Lines <a>-<b>
//
// (on one line). Records may be embedded in arbitrary surrounding text; any
// fragment that does not match is skipped. The parser only accepts complete
// output: callers must buffer the analyzer's stream until it closes.
package protocol

import (
	"iter"
	"math"
	"regexp"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/sprite-ai/greenlens/internal/model"
)

var recordRe = regexp.MustCompile(
	`Rule ID: (.+?), Rule Name: (.+?), Description: (.+?)(?:, Penalty: (.+?))?, Optimization: (.+?), Affected Line\(s\): (?:Line (\d+)|Lines (\d+)-(\d+))`)

// Submatch group indexes into recordRe.
const (
	grpRuleID = iota + 1
	grpRuleName
	grpDescription
	grpPenalty
	grpOptimization
	grpLine
	grpRangeStart
	grpRangeEnd
)

// Records returns the records found in text, in order of appearance.
// Scanning is lazy; stopping the iteration stops the scan.
func Records(text string) iter.Seq[model.Record] {
	return func(yield func(model.Record) bool) {
		pos := 0
		for pos < len(text) {
			loc := recordRe.FindStringSubmatchIndex(text[pos:])
			if loc == nil {
				return
			}
			rec, ok := build(text[pos:], loc)
			pos += loc[1]
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Parse collects every record in text.
func Parse(text string) []model.Record {
	var out []model.Record
	for r := range Records(text) {
		out = append(out, r)
	}
	return out
}

func build(s string, loc []int) (model.Record, bool) {
	group := func(i int) (string, bool) {
		if loc[2*i] < 0 {
			return "", false
		}
		return s[loc[2*i]:loc[2*i+1]], true
	}

	rec := model.Record{}
	rec.RuleID, _ = group(grpRuleID)
	rec.RuleName, _ = group(grpRuleName)
	rec.Description, _ = group(grpDescription)
	rec.Optimization, _ = group(grpOptimization)
	if p, ok := group(grpPenalty); ok {
		rec.Penalty = parsePenalty(p)
	}

	if n, ok := group(grpLine); ok {
		line, ok := zeroIndexed(n)
		if !ok {
			return model.Record{}, false
		}
		rec.StartLine, rec.EndLine = line, line
		return rec, true
	}

	a, _ := group(grpRangeStart)
	b, _ := group(grpRangeEnd)
	start, ok := zeroIndexed(a)
	if !ok {
		return model.Record{}, false
	}
	end, ok := zeroIndexed(b)
	if !ok || end < start {
		return model.Record{}, false
	}
	rec.StartLine, rec.EndLine = start, end
	return rec, true
}

// parsePenalty returns nil for anything that is not a number, including
// the "None" the analyzer prints for rules without a penalty.
func parsePenalty(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// zeroIndexed converts a 1-indexed decimal line number.
func zeroIndexed(s string) (int, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	line, err := safecast.Conv[int](n)
	if err != nil {
		return 0, false
	}
	return line - 1, true
}
