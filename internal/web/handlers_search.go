package web

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/go-chi/chi/v5"
)

// searchRequest is the body of POST /api/search. Filter values may be keys
// as strings or numbers, or "all".
type searchRequest struct {
	Filters  map[core.Dimension]flexString `json:"filters"`
	PriceMin flexString                    `json:"priceMin"`
	PriceMax flexString                    `json:"priceMax"`
	Mode     core.SearchMode               `json:"mode"`
	Limit    int                           `json:"limit"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := readJSON(w, r, &req); err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	filters := make(map[core.Dimension]string, len(req.Filters))
	for d, v := range req.Filters {
		filters[d] = string(v)
	}

	results, err := s.catalog.Search(r.Context(), core.SearchRequest{
		Filters:  filters,
		PriceMin: string(req.PriceMin),
		PriceMax: string(req.PriceMax),
		Mode:     req.Mode,
		Limit:    req.Limit,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(results), "devices": results})
}

// handleFacets returns the values of {target} that co-occur with the
// filters given as query parameters, e.g. /api/facets/country?category=2.
func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	target := core.Dimension(chi.URLParam(r, "target"))

	query := r.URL.Query()
	filters := make(map[core.Dimension]string)
	for _, d := range core.SearchDimensions() {
		if v := query.Get(string(d)); v != "" {
			filters[d] = v
		}
	}

	opts, err := s.catalog.FacetOptions(r.Context(), target, filters)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dimension": target, "options": opts})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	d := core.Dimension(chi.URLParam(r, "dimension"))
	opts, err := s.catalog.Options(r.Context(), d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dimension": d, "options": opts})
}

func (s *Server) handleFormOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.catalog.FormOptions(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	d := core.Dimension(chi.URLParam(r, "dimension"))
	stats, err := s.catalog.StatsByDimension(r.Context(), d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dimension": d, "groups": stats})
}

func (s *Server) handleTableStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.TableStatistics(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": stats})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"reports": core.ReportNames()})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)
	report, err := s.catalog.RunReport(r.Context(), chi.URLParam(r, "name"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleAuditLog lists audit entries, newest first. since takes a date.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.AuditLogFilter{
		Table:  query.Get("table"),
		Action: core.AuditAction(query.Get("action")),
		Limit:  parseIntParam(r, "limit", core.DefaultAuditLimit),
		Offset: parseIntParam(r, "offset", 0),
	}
	if since := query.Get("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			s.respondBadRequest(w, r, "since must be a date (YYYY-MM-DD)")
			return
		}
		filter.Since = t
	}

	entries, err := s.catalog.GetAuditLog(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
