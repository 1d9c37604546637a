package render

import (
	"strings"
	"testing"

	"github.com/sprite-ai/greenlens/internal/model"
)

func kinds(fs []Field) []FieldKind {
	out := make([]FieldKind, len(fs))
	for i, f := range fs {
		out[i] = f.Kind
	}
	return out
}

func TestFieldsOrder(t *testing.T) {
	r := model.Record{RuleName: "Loop", Description: "d", Penalty: model.Float(12.5), Optimization: "o"}
	got := Fields(r)

	want := []FieldKind{FieldRuleName, FieldBand, FieldDescription, FieldPenalty, FieldOptimization}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i, k := range kinds(got) {
		if k != want[i] {
			t.Errorf("field %d = %s, want %s", i, k, want[i])
		}
	}
	if got[1].Value != "C" {
		t.Errorf("band = %q, want C", got[1].Value)
	}
	if got[3].Value != "12.5" {
		t.Errorf("penalty = %q, want 12.5", got[3].Value)
	}
}

func TestFieldsOmitUnknown(t *testing.T) {
	r := model.Record{RuleName: "Loop", Description: "d", Optimization: "o"}
	got := kinds(Fields(r))
	want := []FieldKind{FieldRuleName, FieldDescription, FieldOptimization}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestMarkdown(t *testing.T) {
	r := model.Record{RuleName: "Loop", Description: "d", Penalty: model.Float(7), Optimization: "o"}
	want := "**Loop** (NutriScore: B)\n\n**Description**: d\n\n**Penalty**: 7\n\n**Optimization**: o"
	if got := Markdown(r); got != want {
		t.Errorf("Markdown() =\n%q\nwant\n%q", got, want)
	}

	r.Penalty = nil
	want = "### Loop\n**Description**: d\n\n**Optimization**: o"
	if got := Markdown(r); got != want {
		t.Errorf("Markdown() unscored =\n%q\nwant\n%q", got, want)
	}
}

func TestPlain(t *testing.T) {
	r := model.Record{RuleName: "Loop", Description: "d", Penalty: model.Float(3), Optimization: "o"}
	want := "Rule: Loop\nNutriScore: A\nDescription: d\nPenalty: 3\nOptimization: o"
	if got := Plain(r); got != want {
		t.Errorf("Plain() =\n%s\nwant\n%s", got, want)
	}
}

func TestHover(t *testing.T) {
	a := model.Record{RuleName: "A", Description: "x", Penalty: model.Float(1), Optimization: "o"}
	b := model.Record{RuleName: "B", Description: "y", Optimization: "p"}

	single := Hover([]model.Record{a})
	if !strings.HasPrefix(single, "## greenlens\n---\n") {
		t.Errorf("missing header: %q", single)
	}
	if strings.Count(single, "\n---\n") != 1 {
		t.Errorf("single record should have no separators: %q", single)
	}

	combined := Hover([]model.Record{a, b})
	if strings.Count(combined, "\n\n---\n\n") != 1 {
		t.Errorf("expected one separator: %q", combined)
	}
	if strings.Index(combined, "**A**") > strings.Index(combined, "### B") {
		t.Error("records out of order")
	}
}
