package viewer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/companysim/cosim/internal/company"
	"github.com/companysim/cosim/internal/similarity"
)

// Limits for /api/companies.
const (
	DefaultCompanyLimit = 20
	MaxCompanyLimit     = 100
)

const missingChartTitle = "Missing Data Before Processing"

var errBadParam = errors.New("invalid parameter")

// similarResponse is the JSON body of /api/similar and /api/query.
type similarResponse struct {
	Source  string             `json:"source,omitempty"`
	Query   string             `json:"query,omitempty"`
	Metric  string             `json:"metric"`
	Total   int                `json:"total"`
	Similar []similarity.Match `json:"similar"`
}

type companiesResponse struct {
	Query string   `json:"query,omitempty"`
	Total int      `json:"total"`
	Names []string `json:"names"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Companies int    `json:"companies"`
	Metric    string `json:"metric"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := s.newPage()

	topN, err := parseIntParam(q.Get("n"), "n", s.opts.DefaultTopN, s.opts.MaxTopN)
	if err != nil {
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, "index", data)
		return
	}
	data.TopN = topN
	data.Company = q.Get("company")
	data.Query = strings.TrimSpace(q.Get("q"))

	var matches []similarity.Match
	switch {
	case data.Company != "":
		if rec, ok := s.svc.Lookup(data.Company); ok {
			selected := newMatchView(rec, 1)
			data.Selected = &selected
		}
		matches, err = s.findSimilar(data.Company, topN)
		data.Heading = fmt.Sprintf("Top %d Similar Companies to '%s':", topN, data.Company)
	case data.Query != "":
		matches, err = s.queryText(data.Query, topN)
		data.Heading = fmt.Sprintf("Top %d Companies Matching '%s':", topN, data.Query)
	default:
		s.render(w, http.StatusOK, "index", data)
		return
	}
	if err != nil {
		data.Heading = ""
		data.Selected = nil
		data.Error = err.Error()
		s.render(w, errorStatus(err), "index", data)
		return
	}

	data.Results = make([]matchView, len(matches))
	for i, m := range matches {
		data.Results[i] = newMatchView(m.Record, m.Score)
	}
	s.render(w, http.StatusOK, "index", data)
}

func newMatchView(rec company.Record, score float64) matchView {
	return matchView{
		Name:              rec.Name,
		Score:             score,
		Description:       rec.Description,
		TopLevelCategory:  rec.TopLevelCategory,
		SecondaryCategory: rec.SecondaryCategory,
		EmployeeCount:     rec.EmployeeCount.String(),
	}
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	data := s.newPage()
	data.Title = "Missing Data | Company Similarity Viewer"

	report, err := s.report()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoRawData) {
			status = http.StatusNotFound
			data.Error = "No raw data file is configured. Set raw_data to an .xlsx or .csv file."
		} else {
			s.log.WithError(err).Error("missing-value report failed")
			data.Error = "Could not read the raw data file."
		}
		s.render(w, status, "missing", data)
		return
	}

	chart := newBarChart(missingChartTitle, report.WithMissing())
	data.Chart = &chart
	view := &reportView{Source: report.Source, Rows: report.Rows}
	for _, c := range report.Columns {
		view.Columns = append(view.Columns, columnView{Name: c.Name, Missing: c.Missing})
	}
	data.Report = view
	s.render(w, http.StatusOK, "missing", data)
}

func (s *Server) handleAPISimilar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("company")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "company parameter is required")
		return
	}
	topN, err := parseIntParam(q.Get("n"), "n", s.opts.DefaultTopN, s.opts.MaxTopN)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.findSimilar(name, topN)
	if err != nil {
		writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{
		Source:  name,
		Metric:  string(s.svc.Metric()),
		Total:   len(matches),
		Similar: matches,
	})
}

func (s *Server) handleAPIQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.TrimSpace(q.Get("q"))
	if text == "" {
		writeJSONError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	topN, err := parseIntParam(q.Get("n"), "n", s.opts.DefaultTopN, s.opts.MaxTopN)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := s.queryText(text, topN)
	if err != nil {
		writeJSONError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{
		Query:   text,
		Metric:  string(s.svc.Metric()),
		Total:   len(matches),
		Similar: matches,
	})
}

func (s *Server) handleAPICompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := parseIntParam(q.Get("limit"), "limit", DefaultCompanyLimit, MaxCompanyLimit)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := strings.TrimSpace(q.Get("q"))
	names, err := s.catalog.Names(query, limit)
	if err != nil {
		s.log.WithError(err).Error("catalog search failed")
		writeJSONError(w, http.StatusInternalServerError, "company search failed")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, companiesResponse{Query: query, Total: len(names), Names: names})
}

func (s *Server) handleAPIMissing(w http.ResponseWriter, r *http.Request) {
	report, err := s.report()
	if err != nil {
		if errors.Is(err, ErrNoRawData) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.WithError(err).Error("missing-value report failed")
		writeJSONError(w, http.StatusInternalServerError, "could not read raw data")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Companies: s.svc.Len(),
		Metric:    string(s.svc.Metric()),
	})
}

func (s *Server) findSimilar(name string, topN int) ([]similarity.Match, error) {
	start := time.Now()
	matches, err := s.svc.FindSimilar(name, topN)
	s.metrics.observeLookup("similar", time.Since(start), err)
	return matches, err
}

func (s *Server) queryText(text string, topN int) ([]similarity.Match, error) {
	start := time.Now()
	matches, err := s.svc.QueryText(text, topN)
	s.metrics.observeLookup("query", time.Since(start), err)
	return matches, err
}

func (s *Server) newPage() pageData {
	most := s.opts.MaxTopN
	if n := s.svc.Len(); n < most {
		most = n
	}
	counts := make([]int, most)
	for i := range counts {
		counts[i] = i + 1
	}
	return pageData{
		Title:     "Company Similarity Viewer",
		Companies: s.svc.Companies(),
		Counts:    counts,
		TopN:      s.opts.DefaultTopN,
	}
}

// render executes a page template into a buffer so template failures can
// still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.WithError(err).WithField("template", name).Error("rendering page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// parseIntParam parses an optional positive integer query parameter.
func parseIntParam(raw, name string, def, upper int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadParam, name, raw)
	}
	if n < 1 || n > upper {
		return 0, fmt.Errorf("%w: %s must be between 1 and %d, got %d", errBadParam, name, upper, n)
	}
	return n, nil
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, similarity.ErrCompanyNotFound):
		return http.StatusNotFound
	case errors.Is(err, similarity.ErrTopNOutOfRange),
		errors.Is(err, similarity.ErrEmptyQuery),
		errors.Is(err, errBadParam):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
