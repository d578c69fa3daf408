package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.catalog.ListTables(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleDescribeTable(w http.ResponseWriter, r *http.Request) {
	desc, err := s.catalog.DescribeTable(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

func (s *Server) handleNextKey(w http.ResponseWriter, r *http.Request) {
	next, err := s.catalog.NextKey(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"nextKey": next})
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "page_size", 0)

	result, err := s.catalog.ListRows(r.Context(), chi.URLParam(r, "table"), page, pageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "key")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	row, err := s.catalog.GetRow(r.Context(), chi.URLParam(r, "table"), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	fs, err := readFields(w, r)
	if err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	key, err := s.catalog.Insert(requestContext(r), chi.URLParam(r, "table"), fs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"key": key})
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "key")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	fs, err := readFields(w, r)
	if err != nil {
		s.respondBadRequest(w, r, "invalid request body: "+err.Error())
		return
	}

	if err := s.catalog.Update(requestContext(r), chi.URLParam(r, "table"), key, fs); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "updated": fs.Columns()})
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "key")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.catalog.Delete(requestContext(r), chi.URLParam(r, "table"), key); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	key, err := keyParam(r, "key")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	inUse, where, err := s.catalog.IsReferenced(r.Context(), chi.URLParam(r, "table"), key)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"referenced": inUse, "by": where})
}
