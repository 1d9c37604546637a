package score

import (
	"math"
	"testing"

	"github.com/sprite-ai/greenlens/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		penalty float64
		want    model.Band
	}{
		{-3, model.BandA},
		{0, model.BandA},
		{5, model.BandA},
		{5.01, model.BandB},
		{7, model.BandB},
		{10, model.BandB},
		{15, model.BandC},
		{15.5, model.BandD},
		{20, model.BandD},
		{20.0001, model.BandE},
		{1000, model.BandE},
		{math.Inf(1), model.BandE},
	}
	for _, tt := range tests {
		if got := Classify(model.Float(tt.penalty)); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.penalty, got, tt.want)
		}
	}
}

func TestClassifyAbsent(t *testing.T) {
	if got := Classify(nil); got != model.BandUnknown {
		t.Errorf("Classify(nil) = %s, want unknown", got)
	}
	if got := Of(model.Record{RuleName: "x"}); got != model.BandUnknown {
		t.Errorf("Of(record without penalty) = %s, want unknown", got)
	}
}
