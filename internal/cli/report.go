package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/render"
	"github.com/sprite-ai/greenlens/internal/score"
)

var formats = []string{"text", "json", "markdown", "html", "msgpack", "yaml"}

var bandColors = map[model.Band]*color.Color{
	model.BandA:       color.New(color.FgGreen, color.Bold),
	model.BandB:       color.New(color.FgHiGreen),
	model.BandC:       color.New(color.FgYellow),
	model.BandD:       color.New(color.FgHiRed),
	model.BandE:       color.New(color.FgRed, color.Bold),
	model.BandUnknown: color.New(color.FgMagenta),
}

type reportRecord struct {
	RuleID       string   `json:"rule_id" msgpack:"rule_id" yaml:"rule_id"`
	RuleName     string   `json:"rule_name" msgpack:"rule_name" yaml:"rule_name"`
	Description  string   `json:"description" msgpack:"description" yaml:"description"`
	Penalty      *float64 `json:"penalty,omitempty" msgpack:"penalty,omitempty" yaml:"penalty,omitempty"`
	Optimization string   `json:"optimization" msgpack:"optimization" yaml:"optimization"`
	Band         string   `json:"band" msgpack:"band" yaml:"band"`
}

type reportLine struct {
	Line    int            `json:"line" msgpack:"line" yaml:"line"` // zero-based
	Band    string         `json:"band" msgpack:"band" yaml:"band"`
	Records []reportRecord `json:"records" msgpack:"records" yaml:"records"`
}

// report is the serialized form of one annotation set.
type report struct {
	Path    string       `json:"path,omitempty" msgpack:"path,omitempty" yaml:"path,omitempty"`
	Policy  string       `json:"policy" msgpack:"policy" yaml:"policy"`
	Summary string       `json:"summary" msgpack:"summary" yaml:"summary"`
	Worst   string       `json:"worst" msgpack:"worst" yaml:"worst"`
	Total   int          `json:"total" msgpack:"total" yaml:"total"`
	Lines   []reportLine `json:"lines" msgpack:"lines" yaml:"lines"`
}

func newReport(path string, res *analysis.Results) report {
	rep := report{
		Path:    path,
		Policy:  res.Policy,
		Summary: res.Summary(),
		Worst:   res.Worst().String(),
		Total:   res.RecordCount(),
		Lines:   []reportLine{},
	}
	for _, la := range res.Sorted() {
		rl := reportLine{Line: la.Line, Band: la.Band.String()}
		for _, r := range la.Records {
			rl.Records = append(rl.Records, reportRecord{
				RuleID:       r.RuleID,
				RuleName:     r.RuleName,
				Description:  r.Description,
				Penalty:      r.Penalty,
				Optimization: r.Optimization,
				Band:         score.Of(r).String(),
			})
		}
		rep.Lines = append(rep.Lines, rl)
	}
	return rep
}

// writeReport renders res in the named format.
func writeReport(w io.Writer, format, path string, res *analysis.Results) error {
	switch format {
	case "text", "":
		return outputText(w, path, res)
	case "json":
		return outputJSON(w, path, res)
	case "markdown":
		return outputMarkdown(w, path, res)
	case "html":
		return outputHTML(w, path, res)
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(newReport(path, res))
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newReport(path, res)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return checkFormat(format)
	}
}

func checkFormat(format string) error {
	if format == "" || slices.Contains(formats, format) {
		return nil
	}
	return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(formats, ", "))
}

func bandTag(b model.Band) string {
	tag := "?"
	if b.Known() {
		tag = b.String()
	}
	c, ok := bandColors[b]
	if !ok {
		c = bandColors[model.BandUnknown]
	}
	return c.Sprint("[" + tag + "]")
}

func outputText(w io.Writer, path string, res *analysis.Results) error {
	if path != "" {
		fmt.Fprintf(w, "%s\n", path)
	}
	fmt.Fprintf(w, "Analysis: %s (policy %s)\n\n", res.Summary(), res.Policy)

	if len(res.Lines) == 0 {
		return nil
	}

	for _, la := range res.Sorted() {
		for i, r := range la.Records {
			lead := fmt.Sprintf("L%-5d %s", la.Line+1, bandTag(la.Band))
			if i > 0 {
				lead = strings.Repeat(" ", 10)
			}
			msg := r.RuleName + ": " + r.Description
			if r.HasPenalty() {
				msg += fmt.Sprintf(" (penalty %s, %s)", render.FormatPenalty(*r.Penalty), score.Of(r))
			}
			fmt.Fprintf(w, "  %s %s\n", lead, msg)
			fmt.Fprintf(w, "  %s -> %s\n", strings.Repeat(" ", 10), r.Optimization)
		}
	}
	fmt.Fprintln(w)
	return nil
}

func outputJSON(w io.Writer, path string, res *analysis.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newReport(path, res))
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func outputMarkdown(w io.Writer, path string, res *analysis.Results) error {
	fmt.Fprint(w, "## greenlens report")
	if path != "" {
		fmt.Fprintf(w, ": `%s`", path)
	}
	fmt.Fprintf(w, "\n\n**Worst NutriScore:** %s | **Lines:** %d | **Policy:** %s\n\n",
		res.Worst(), len(res.Lines), res.Policy)

	if len(res.Lines) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return nil
	}

	fmt.Fprintln(w, "| Line | NutriScore | Rule | Description | Penalty | Optimization |")
	fmt.Fprintln(w, "|------|------------|------|-------------|---------|--------------|")
	for _, la := range res.Sorted() {
		for _, r := range la.Records {
			penalty := ""
			if r.HasPenalty() {
				penalty = render.FormatPenalty(*r.Penalty)
			}
			fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s |\n",
				la.Line+1, la.Band, mdCell(r.RuleName), mdCell(r.Description), penalty, mdCell(r.Optimization))
		}
	}
	return nil
}

func outputHTML(w io.Writer, path string, res *analysis.Results) error {
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>greenlens Report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; }
  .summary span { margin-right: 24px; }
  .band-A { color: rgb(0,200,0); font-weight: bold; }
  .band-B { color: rgb(180,230,0); }
  .band-C { color: rgb(255,200,0); }
  .band-D { color: rgb(255,100,0); }
  .band-E { color: rgb(255,0,0); font-weight: bold; }
  .band-unknown { color: rgb(255,123,0); }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; }
  tr:hover { background: #343746; }
  .rule { color: #bd93f9; }
  code { background: #343746; padding: 2px 6px; border-radius: 4px; font-size: 0.9em; }
  .clean { color: #50fa7b; font-size: 1.2em; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>greenlens Report</h1>
`)

	worst := res.Worst()
	fmt.Fprintf(w, `<div class="summary">
  <span><code>%s</code></span>
  <span>Worst: <span class="band-%s">%s</span></span>
  <span>Lines: <strong>%d</strong></span>
  <span>%s</span>
</div>
`, htmlEscape(path), worst, worst, len(res.Lines), htmlEscape(res.Summary()))

	if len(res.Lines) == 0 {
		fmt.Fprintln(w, `<p class="clean">No issues found.</p>`)
	} else {
		fmt.Fprintln(w, `<table>
<thead><tr><th>Line</th><th>NutriScore</th><th>Rule</th><th>Description</th><th>Penalty</th><th>Optimization</th></tr></thead>
<tbody>`)
		for _, la := range res.Sorted() {
			for _, r := range la.Records {
				fmt.Fprintf(w, `<tr><td>%d</td><td class="band-%s">%s</td><td class="rule">%s</td><td>%s</td><td>%s</td><td>%s</td></tr>
`, la.Line+1, la.Band, la.Band, htmlEscape(r.RuleName), htmlEscape(r.Description), htmlPenalty(r), htmlEscape(r.Optimization))
			}
		}
		fmt.Fprintln(w, `</tbody></table>`)
	}

	fmt.Fprintln(w, `<footer>Generated by <strong>greenlens</strong></footer>
</body>
</html>`)
	return nil
}

// htmlPenalty renders a record's penalty with the band it classifies to.
func htmlPenalty(r model.Record) string {
	if !r.HasPenalty() {
		return ""
	}
	b := score.Of(r)
	return fmt.Sprintf(`%s <span class="band-%s">(%s)</span>`, render.FormatPenalty(*r.Penalty), b, b)
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
