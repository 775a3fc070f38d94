package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/services"
	"github.com/custodia-labs/litsearch/internal/logger"
	"github.com/custodia-labs/litsearch/internal/normalisers/html"
)

// QueryResponse is the data payload of GET /v1/query.
type QueryResponse struct {
	Query   string            `json:"query"`
	Filters FiltersView       `json:"filters"`
	Results []map[string]any  `json:"results"`
	Stats   domain.QueryStats `json:"stats"`
}

// FiltersView echoes the filters that were applied, including parsed date hints.
type FiltersView struct {
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
	Display  string `json:"display"`
	Limit    int    `json:"limit,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest accepts a single RawArticle object or an array of them.
// A single article answers 201 when synced, 202 when partially synced.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: reading body: %w", domain.ErrInvalidInput, err))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		writeError(w, fmt.Errorf("%w: empty body", domain.ErrInvalidInput))
		return
	}

	if body[0] == '[' {
		var raws []domain.RawArticle
		if err := json.Unmarshal(body, &raws); err != nil {
			writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
			return
		}
		for i := range raws {
			raws[i] = html.Article(raws[i])
		}
		report := s.ingest.IngestBatch(r.Context(), raws, s.cfg.Workers)
		writeData(w, http.StatusOK, report)
		return
	}

	var raw domain.RawArticle
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}
	outcome := s.ingest.IngestRaw(r.Context(), html.Article(raw))
	switch outcome.Status {
	case domain.StatusSynced:
		writeData(w, http.StatusCreated, outcome)
	case domain.StatusPartiallySynced:
		writeData(w, http.StatusAccepted, outcome)
	default:
		status, code := classify(outcome.Error())
		writeJSON(w, status, Response{
			Data:  outcome,
			Error: &APIError{Code: code, Message: outcome.Error().Error()},
		})
	}
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.ingest.Get(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, article)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	text, filters, err := s.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, stats, err := s.query.QueryWithStats(r.Context(), text, filters)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := QueryResponse{
		Query:   text,
		Filters: viewFilters(filters),
		Results: make([]map[string]any, len(results)),
		Stats:   stats,
	}
	columns := filters.Display.Columns()
	for i, res := range results {
		resp.Results[i] = projectJSON(res, filters.Display, columns)
	}
	writeData(w, http.StatusOK, resp)
}

// handleQueryCSV streams the projected results. No results answers 204.
func (s *Server) handleQueryCSV(w http.ResponseWriter, r *http.Request) {
	if s.export == nil {
		writeJSON(w, http.StatusNotImplemented, Response{Error: &APIError{
			Code:    "export_unavailable",
			Message: "csv export is not configured",
		}})
		return
	}
	text, filters, err := s.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := s.query.Query(r.Context(), text, filters)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(results) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="results.csv"`)
	tw := &trackingWriter{w: w}
	if err := s.export.WriteResults(r.Context(), tw, results, filters.Display); err != nil {
		if !tw.wrote {
			w.Header().Del("Content-Disposition")
			writeError(w, err)
			return
		}
		// The status line has gone out; all that is left is to log.
		logger.Error("streaming csv for %q: %v", text, err)
	}
}

// trackingWriter records whether any body bytes reached the client.
type trackingWriter struct {
	w     io.Writer
	wrote bool
}

func (t *trackingWriter) Write(p []byte) (int, error) {
	t.wrote = true
	return t.w.Write(p)
}

func (s *Server) parseQuery(r *http.Request) (string, domain.QueryFilters, error) {
	q := r.URL.Query()
	text := q.Get("q")

	display, err := domain.ParseDisplayMode(q.Get("display"))
	if err != nil {
		return "", domain.QueryFilters{}, err
	}
	filters := domain.QueryFilters{Display: display}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return "", domain.QueryFilters{}, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidQuery)
		}
		filters.Limit = n
	}
	if v := q.Get("from"); v != "" {
		from, err := domain.ParseDate(v)
		if err != nil {
			return "", domain.QueryFilters{}, err
		}
		filters.DateFrom = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := domain.ParseDate(v)
		if err != nil {
			return "", domain.QueryFilters{}, err
		}
		filters.DateTo = &to
	}
	if parse, _ := strconv.ParseBool(q.Get("parse_dates")); parse {
		filters, _ = services.ApplyDateHint(text, filters, s.now())
	}
	return text, filters, nil
}

func viewFilters(f domain.QueryFilters) FiltersView {
	v := FiltersView{Display: f.Display.String(), Limit: f.Limit}
	if f.DateFrom != nil {
		v.DateFrom = f.DateFrom.Format(domain.DateLayout)
	}
	if f.DateTo != nil {
		v.DateTo = f.DateTo.Format(domain.DateLayout)
	}
	return v
}

// projectJSON keys a projected row by snake_case column name.
func projectJSON(r domain.QueryResult, mode domain.DisplayMode, columns []string) map[string]any {
	row := r.Row(mode)
	out := make(map[string]any, len(columns))
	for i, col := range columns {
		out[jsonName(col)] = row[i]
	}
	out["score"] = r.Score
	return out
}

func jsonName(column string) string {
	b := []byte(column)
	for i, c := range b {
		switch {
		case c == ' ':
			b[i] = '_'
		case c >= 'A' && c <= 'Z':
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
