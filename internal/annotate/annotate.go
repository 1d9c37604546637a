// Package annotate ties the pieces of one analysis together: load the
// document, consult the cache, run the analyzer and aggregate its output.
package annotate

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/cache"
	"github.com/sprite-ai/greenlens/internal/source"
)

// Runner produces raw analyzer output for a file.
type Runner interface {
	Run(ctx context.Context, path string) (string, error)
	Identity() string
}

// Annotator runs the whole pipeline for a path.
type Annotator struct {
	Runner Runner
	Cache  *cache.DiskCache // nil disables caching
	Policy analysis.BandPolicy
}

// Outcome is the result of one annotation run.
type Outcome struct {
	Doc     *source.Document
	Output  string
	Results *analysis.Results
	Cached  bool
}

// New returns an Annotator. A nil policy means FirstMatch.
func New(r Runner, c *cache.DiskCache, policy analysis.BandPolicy) *Annotator {
	if policy == nil {
		policy = analysis.FirstMatch
	}
	return &Annotator{Runner: r, Cache: c, Policy: policy}
}

// Annotate loads path and annotates it.
func (a *Annotator) Annotate(ctx context.Context, path string) (*Outcome, error) {
	doc, err := source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return a.AnnotateDocument(ctx, doc)
}

// AnnotateDocument annotates an already loaded document. The analyzer reads
// the file from disk, so doc.Content should match what is there.
func (a *Annotator) AnnotateDocument(ctx context.Context, doc *source.Document) (*Outcome, error) {
	start := time.Now()
	entry := log.WithField("path", doc.Path)

	key := cache.KeyFor(a.Runner.Identity(), doc.Digest())
	if p, ok, err := a.Cache.Get(key); err != nil {
		entry.WithError(err).Warn("cache read failed")
	} else if ok {
		res := analysis.Run(p.Output, doc.LineCount(), a.Policy)
		entry.WithFields(log.Fields{
			"cache":   "hit",
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("annotated")
		return &Outcome{Doc: doc, Output: p.Output, Results: res, Cached: true}, nil
	}

	out, err := a.Runner.Run(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	if a.Cache != nil {
		payload := &cache.Payload{
			Analyzer:  a.Runner.Identity(),
			Path:      doc.Path,
			Output:    out,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.Cache.Put(key, payload); err != nil {
			entry.WithError(err).Warn("cache write failed")
		}
	}

	res := analysis.Run(out, doc.LineCount(), a.Policy)
	entry.WithFields(log.Fields{
		"cache":   "miss",
		"lines":   len(res.Lines),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("annotated")
	return &Outcome{Doc: doc, Output: out, Results: res}, nil
}
