package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
	"github.com/koustreak/dbdesk/internal/export"
	"github.com/koustreak/dbdesk/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 100
)

// --- connection ---

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var cfg database.ConnectionConfig
	if err := decodeBody(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.backend.Connect(r.Context(), cfg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.backend.Disconnect()
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Status())
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var cfg database.ConnectionConfig
	if err := decodeBody(w, r, &cfg); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TestConnectionResponse{OK: s.backend.TestConnection(r.Context(), cfg)})
}

// --- schema ---

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	names, err := s.backend.ListDatabases(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.backend.ListTables(r.Context(), chi.URLParam(r, "db"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tables)
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := s.backend.ListColumns(r.Context(), chi.URLParam(r, "db"), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, columns)
}

func (s *Server) handleDDL(w http.ResponseWriter, r *http.Request) {
	ddl, err := s.backend.GetCreateStatement(r.Context(), chi.URLParam(r, "db"), chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DDLResponse{DDL: ddl})
}

// --- statements ---

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), "page", defaultPage)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := intParam(q.Get("pageSize"), "pageSize", defaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, s.backend.GetPageData(r.Context(), service.PageRequest{
		Database: chi.URLParam(r, "db"),
		Table:    chi.URLParam(r, "table"),
		Page:     page,
		PageSize: size,
		Where:    q.Get("where"),
		OrderBy:  q.Get("orderBy"),
	}))
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.backend.Execute(r.Context(), req.SQL))
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	statements := append([]string(nil), req.Statements...)
	if strings.TrimSpace(req.Script) != "" {
		statements = append(statements, service.SplitStatements(req.Script)...)
	}
	if len(statements) == 0 {
		writeError(w, r, errs.New(errs.ErrKindInvalidInput, "batch needs statements or a script"))
		return
	}
	writeJSON(w, http.StatusOK, BatchResponse{Results: s.backend.ExecuteBatch(r.Context(), statements)})
}

// --- transactions ---

func (s *Server) handleBracket(op func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, s.backend.Status())
	}
}

// --- export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, r, errs.New(errs.ErrKindNotFound, "export is not configured"))
		return
	}

	var req ExportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := s.backend.Execute(r.Context(), req.SQL)
	if !result.Success {
		writeError(w, r, errs.Label("export query failed", result.Err, errs.ErrKindStatementFailed))
		return
	}

	published, err := s.exporter.Export(r.Context(), req.Key, format, result.Columns, result.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// the rows live in the exported file
	result.Rows = []database.Row{}
	writeJSON(w, http.StatusOK, ExportResponse{Result: &result, Export: published})
}

func intParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.Wrap(errs.ErrKindInvalidInput, "invalid "+name, err)
	}
	return n, nil
}
