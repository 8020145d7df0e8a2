package service

import (
	"encoding/json"
	"fmt"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// QueryResult is the envelope returned for every statement execution.
// It is the only error channel of Execute, GetPageData and ExecuteBatch:
// callers check Success instead of a returned error.
type QueryResult struct {
	Success         bool           `json:"success"`
	Columns         []string       `json:"columns"`
	Rows            []database.Row `json:"rows"`
	AffectedRows    int64          `json:"affectedRows"`
	LastInsertID    int64          `json:"lastInsertId,omitempty"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	Message         string         `json:"message"`
	Err             error          `json:"-"`
	Pagination      *PageInfo      `json:"pagination,omitempty"`
}

// PageInfo describes the window returned by GetPageData.
type PageInfo struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// MarshalJSON adds the error text and kind for failed results.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	type plain QueryResult
	out := struct {
		plain
		Error     string `json:"error,omitempty"`
		ErrorKind string `json:"errorKind,omitempty"`
	}{plain: plain(r)}

	if r.Err != nil {
		out.Error = r.Err.Error()
		out.ErrorKind = errs.KindOf(r.Err).String()
	}
	return json.Marshal(out)
}

func readResult(rs *database.ResultSet, elapsedMs int64) QueryResult {
	return QueryResult{
		Success:         true,
		Columns:         rs.Columns,
		Rows:            rs.Rows,
		ExecutionTimeMs: elapsedMs,
		Message:         fmt.Sprintf("query succeeded, %d rows", len(rs.Rows)),
	}
}

func writeResult(res database.ExecResult, elapsedMs int64) QueryResult {
	return QueryResult{
		Success:         true,
		Columns:         []string{},
		Rows:            []database.Row{},
		AffectedRows:    res.RowsAffected,
		LastInsertID:    res.LastInsertID,
		ExecutionTimeMs: elapsedMs,
		Message:         fmt.Sprintf("operation succeeded, %d rows affected", res.RowsAffected),
	}
}

func failedResult(prefix string, err error) QueryResult {
	return QueryResult{
		Success: false,
		Columns: []string{},
		Rows:    []database.Row{},
		Message: fmt.Sprintf("%s: %v", prefix, err),
		Err:     err,
	}
}
