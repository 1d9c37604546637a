package analysis

import (
	"fmt"
	"sort"

	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/score"
)

// BandPolicy picks the single band shown for a line from the records
// attached to it, given in attachment order.
type BandPolicy interface {
	Name() string
	Band(records []model.Record) model.Band
}

type policyFunc struct {
	name string
	fn   func([]model.Record) model.Band
}

func (p policyFunc) Name() string { return p.name }
func (p policyFunc) Band(records []model.Record) model.Band { return p.fn(records) }

// FirstMatch colors a line by the first record attached to it, even when a
// later record is worse.
var FirstMatch BandPolicy = policyFunc{
	name: "first",
	fn: func(records []model.Record) model.Band {
		if len(records) == 0 {
			return model.BandUnknown
		}
		return score.Of(records[0])
	},
}

// Worst colors a line by its highest known band. Unknown only wins when no
// record on the line has a penalty.
var Worst BandPolicy = policyFunc{
	name: "worst",
	fn: func(records []model.Record) model.Band {
		worst := model.BandUnknown
		for _, r := range records {
			b := score.Of(r)
			if !b.Known() {
				continue
			}
			if worst == model.BandUnknown || b > worst {
				worst = b
			}
		}
		return worst
	},
}

// Policies maps policy names to policies (for --policy and config).
var Policies = map[string]BandPolicy{
	FirstMatch.Name(): FirstMatch,
	Worst.Name():      Worst,
}

// PolicyByName resolves a policy; the empty name selects FirstMatch.
func PolicyByName(name string) (BandPolicy, error) {
	if name == "" {
		return FirstMatch, nil
	}
	p, ok := Policies[name]
	if !ok {
		return nil, fmt.Errorf("unknown band policy %q (want one of %v)", name, PolicyNames())
	}
	return p, nil
}

// PolicyNames returns the registered policy names, sorted.
func PolicyNames() []string {
	names := make([]string, 0, len(Policies))
	for n := range Policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
