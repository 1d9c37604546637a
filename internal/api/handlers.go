package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/sprite-ai/greenlens/internal/analysis"
	"github.com/sprite-ai/greenlens/internal/model"
	"github.com/sprite-ai/greenlens/internal/protocol"
	"github.com/sprite-ai/greenlens/internal/render"
	"github.com/sprite-ai/greenlens/internal/runner"
	"github.com/sprite-ai/greenlens/internal/score"
	"github.com/sprite-ai/greenlens/internal/session"
)

// --- Shared payloads ---

type errorJSON struct {
	Error    string `json:"error"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

type recordJSON struct {
	RuleID       string   `json:"rule_id"`
	RuleName     string   `json:"rule_name"`
	Description  string   `json:"description"`
	Penalty      *float64 `json:"penalty,omitempty"`
	Optimization string   `json:"optimization"`
	StartLine    int      `json:"start_line"`
	EndLine      int      `json:"end_line"`
	Band         string   `json:"band"`
}

type lineJSON struct {
	Line    int          `json:"line"`
	Band    string       `json:"band"`
	Records []recordJSON `json:"records"`
	Hover   string       `json:"hover"`
}

type annotationsJSON struct {
	Path    string     `json:"path,omitempty"`
	Policy  string     `json:"policy"`
	Summary string     `json:"summary"`
	Worst   string     `json:"worst"`
	Cached  bool       `json:"cached,omitempty"`
	Lines   []lineJSON `json:"lines"`
}

func toRecordJSON(r model.Record) recordJSON {
	return recordJSON{
		RuleID:       r.RuleID,
		RuleName:     r.RuleName,
		Description:  r.Description,
		Penalty:      r.Penalty,
		Optimization: r.Optimization,
		StartLine:    r.StartLine,
		EndLine:      r.EndLine,
		Band:         score.Of(r).String(),
	}
}

func toAnnotationsJSON(path string, res *analysis.Results) annotationsJSON {
	out := annotationsJSON{
		Path:    path,
		Policy:  res.Policy,
		Summary: res.Summary(),
		Worst:   res.Worst().String(),
		Lines:   []lineJSON{},
	}
	for _, la := range res.Sorted() {
		lj := lineJSON{
			Line:  la.Line,
			Band:  la.Band.String(),
			Hover: render.Hover(la.Records),
		}
		for _, r := range la.Records {
			lj.Records = append(lj.Records, toRecordJSON(r))
		}
		out.Lines = append(out.Lines, lj)
	}
	return out
}

// analyzeFailure maps an analysis error to a status and response body.
func analyzeFailure(err error) (int, errorJSON) {
	var rerr *runner.Error
	if errors.As(err, &rerr) {
		code := rerr.ExitCode
		return http.StatusBadGateway, errorJSON{Error: rerr.Error(), Stderr: rerr.Stderr, ExitCode: &code}
	}
	if errors.Is(err, os.ErrNotExist) {
		return http.StatusNotFound, errorJSON{Error: err.Error()}
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, errorJSON{Error: err.Error()}
	}
	return http.StatusInternalServerError, errorJSON{Error: err.Error()}
}

// analyze runs the analyzer for path through the session store, so
// concurrent requests for one document share a single run.
func (s *Server) analyze(ctx context.Context, path, policyName string) (string, *analysis.Results, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, false, err
	}
	policy, err := analysis.PolicyByName(policyName)
	if err != nil {
		return abs, nil, false, err
	}

	a := *s.annotator
	if policyName != "" {
		a.Policy = policy
	}

	run, err := s.store.Analyze(ctx, abs, func(ctx context.Context) (session.Run, error) {
		out, err := a.Annotate(ctx, abs)
		if err != nil {
			return session.Run{}, err
		}
		return session.Run{Results: out.Results, Cached: out.Cached}, nil
	})
	return abs, run.Results, run.Cached, err
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Parse ---

type parseRequest struct {
	Output string `json:"output"`
}

type parseResponse struct {
	Count   int          `json:"count"`
	Records []recordJSON `json:"records"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp := parseResponse{Records: []recordJSON{}}
	for rec := range protocol.Records(req.Output) {
		resp.Records = append(resp.Records, toRecordJSON(rec))
	}
	resp.Count = len(resp.Records)

	writeJSON(w, http.StatusOK, resp)
}

// --- Annotate ---

type annotateRequest struct {
	Output    string `json:"output"`
	LineCount int    `json:"line_count"`
	Policy    string `json:"policy,omitempty"`
}

func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	res, err := annotateOutput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toAnnotationsJSON("", res))
}

func annotateOutput(req annotateRequest) (*analysis.Results, error) {
	if req.LineCount < 0 {
		return nil, errors.New("line_count must not be negative")
	}
	policy, err := analysis.PolicyByName(req.Policy)
	if err != nil {
		return nil, err
	}
	return analysis.Run(req.Output, req.LineCount, policy), nil
}

// --- Analyze ---

type analyzeRequest struct {
	Path   string `json:"path"`
	Policy string `json:"policy,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.annotator == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer not configured")
		return
	}

	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := analysis.PolicyByName(req.Policy); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	path, res, cached, err := s.analyze(r.Context(), req.Path, req.Policy)
	if err != nil {
		status, body := analyzeFailure(err)
		log.WithField("path", path).WithError(err).Warn("analyze failed")
		writeJSON(w, status, body)
		return
	}

	resp := toAnnotationsJSON(path, res)
	resp.Cached = cached
	writeJSON(w, http.StatusOK, resp)
}

// --- Annotations ---

func (s *Server) handleGetAnnotations(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusOK, map[string][]string{"paths": nonNil(s.store.Paths())})
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.store.Current(abs)
	if res == nil {
		writeError(w, http.StatusNotFound, "no annotations for "+abs)
		return
	}
	writeJSON(w, http.StatusOK, toAnnotationsJSON(abs, res))
}

func (s *Server) handleClearAnnotations(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.store.ClearAll()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.store.Clear(abs)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "path": abs})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
