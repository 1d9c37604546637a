// Package render builds user-facing explanations for diagnostics.
//
// The order and presence of the explanation fields is fixed; only the markup
// varies between renderers.
package render

import (
	"strconv"
	"strings"

	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/score"
)

// Header opens a combined hover message.
const Header = "greenlens"

// FieldKind identifies an explanation field.
type FieldKind int

const (
	FieldRuleName FieldKind = iota
	FieldBand
	FieldDescription
	FieldPenalty
	FieldOptimization
)

func (k FieldKind) String() string {
	switch k {
	case FieldRuleName:
		return "Rule"
	case FieldBand:
		return "NutriScore"
	case FieldDescription:
		return "Description"
	case FieldPenalty:
		return "Penalty"
	case FieldOptimization:
		return "Optimization"
	default:
		return "Field"
	}
}

// Field is one labeled part of an explanation.
type Field struct {
	Kind  FieldKind
	Value string
}

// Fields returns the explanation for r: rule name, band (omitted when
// unknown), description, penalty (omitted when absent), optimization.
func Fields(r model.Record) []Field {
	fields := []Field{{FieldRuleName, r.RuleName}}
	if b := score.Of(r); b.Known() {
		fields = append(fields, Field{FieldBand, b.String()})
	}
	fields = append(fields, Field{FieldDescription, r.Description})
	if r.Penalty != nil {
		fields = append(fields, Field{FieldPenalty, FormatPenalty(*r.Penalty)})
	}
	fields = append(fields, Field{FieldOptimization, r.Optimization})
	return fields
}

// FormatPenalty prints the shortest representation of p ("7", "12.5").
func FormatPenalty(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Markdown renders r as a markdown block.
func Markdown(r model.Record) string {
	var b strings.Builder
	for _, f := range Fields(r) {
		switch f.Kind {
		case FieldRuleName:
			if score.Of(r).Known() {
				b.WriteString("**" + f.Value + "**")
			} else {
				b.WriteString("### " + f.Value + "\n")
			}
		case FieldBand:
			b.WriteString(" (NutriScore: " + f.Value + ")\n\n")
		default:
			b.WriteString("**" + f.Kind.String() + "**: " + f.Value)
			if f.Kind != FieldOptimization {
				b.WriteString("\n\n")
			}
		}
	}
	return b.String()
}

// Plain renders r as "Label: value" lines.
func Plain(r model.Record) string {
	fields := Fields(r)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, f.Kind.String()+": "+f.Value)
	}
	return strings.Join(lines, "\n")
}

// Hover combines every record on a line into one markdown message, in
// attachment order, separated by horizontal rules.
func Hover(records []model.Record) string {
	var b strings.Builder
	b.WriteString("## " + Header + "\n---\n")
	for i, r := range records {
		b.WriteString(Markdown(r))
		if i < len(records)-1 {
			b.WriteString("\n\n---\n\n")
		}
	}
	return b.String()
}
