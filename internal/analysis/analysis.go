// Package analysis groups parsed diagnostics into per-line annotations.
package analysis

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/protocol"
)

// Results holds the annotation set produced by one analysis run.
// A new run always produces a new Results; nothing is merged.
type Results struct {
	Lines  map[int]model.LineAnnotation
	Policy string // name of the band policy that colored the lines
}

// Aggregate attaches each record to every line of its range that falls in
// [0, lineCount), drops content-duplicates per line, and colors each line
// with policy. A nil policy means FirstMatch.
func Aggregate(records iter.Seq[model.Record], lineCount int, policy BandPolicy) *Results {
	if policy == nil {
		policy = FirstMatch
	}

	lines := make(map[int]*model.LineAnnotation)
	seen := make(map[int]map[model.RecordKey]bool)

	for r := range records {
		start := max(r.StartLine, 0)
		end := min(r.EndLine, lineCount-1)
		key := r.Key()

		for ln := start; ln <= end; ln++ {
			la, ok := lines[ln]
			if !ok {
				la = &model.LineAnnotation{Line: ln}
				lines[ln] = la
				seen[ln] = make(map[model.RecordKey]bool)
			}
			if seen[ln][key] {
				continue
			}
			seen[ln][key] = true
			la.Records = append(la.Records, r)
		}
	}

	res := &Results{
		Lines:  make(map[int]model.LineAnnotation, len(lines)),
		Policy: policy.Name(),
	}
	for ln, la := range lines {
		la.Band = policy.Band(la.Records)
		res.Lines[ln] = *la
	}
	return res
}

// Run parses complete analyzer output and aggregates it against a document
// with lineCount lines.
func Run(output string, lineCount int, policy BandPolicy) *Results {
	return Aggregate(protocol.Records(output), lineCount, policy)
}

// Sorted returns the annotations in ascending line order.
func (r *Results) Sorted() []model.LineAnnotation {
	out := make([]model.LineAnnotation, 0, len(r.Lines))
	for _, la := range r.Lines {
		out = append(out, la)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// ByBand returns annotations grouped by line band, each group in line order.
func (r *Results) ByBand() map[model.Band][]model.LineAnnotation {
	m := make(map[model.Band][]model.LineAnnotation)
	for _, la := range r.Sorted() {
		m[la.Band] = append(m[la.Band], la)
	}
	return m
}

// Worst returns the highest known line band, or BandUnknown when no line
// carries a known band.
func (r *Results) Worst() model.Band {
	worst := model.BandUnknown
	for _, la := range r.Lines {
		if !la.Band.Known() {
			continue
		}
		if worst == model.BandUnknown || la.Band > worst {
			worst = la.Band
		}
	}
	return worst
}

// RecordCount returns the number of (line, record) attachments.
func (r *Results) RecordCount() int {
	n := 0
	for _, la := range r.Lines {
		n += len(la.Records)
	}
	return n
}

// Summary returns a one-line summary of annotated lines per band.
func (r *Results) Summary() string {
	if len(r.Lines) == 0 {
		return "No issues found"
	}

	counts := make(map[model.Band]int)
	for _, la := range r.Lines {
		counts[la.Band]++
	}

	var parts []string
	for _, b := range []model.Band{model.BandE, model.BandD, model.BandC, model.BandB, model.BandA, model.BandUnknown} {
		if c := counts[b]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, b))
		}
	}
	return strings.Join(parts, ", ")
}

// Restrict returns a copy holding only the given lines.
func (r *Results) Restrict(keep map[int]bool) *Results {
	out := &Results{
		Lines:  make(map[int]model.LineAnnotation),
		Policy: r.Policy,
	}
	for ln, la := range r.Lines {
		if keep[ln] {
			out.Lines[ln] = la
		}
	}
	return out
}
