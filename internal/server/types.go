package server

import (
	"github.com/koustreak/dbdesk/internal/export"
	"github.com/koustreak/dbdesk/internal/service"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	SQL string `json:"sql"`
}

// BatchRequest is the body of POST /batch. Script is split into
// statements and appended after Statements.
type BatchRequest struct {
	Statements []string `json:"statements,omitempty"`
	Script     string   `json:"script,omitempty"`
}

// BatchResponse carries one result per executed statement.
type BatchResponse struct {
	Results []service.QueryResult `json:"results"`
}

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format"`
	Key    string `json:"key,omitempty"`
}

// ExportResponse describes a published export.
type ExportResponse struct {
	Result *service.QueryResult `json:"result"`
	Export *export.Result       `json:"export"`
}

// TestConnectionResponse is returned by POST /connections/test.
type TestConnectionResponse struct {
	OK bool `json:"ok"`
}

// DDLResponse is returned by GET .../ddl.
type DDLResponse struct {
	DDL string `json:"ddl"`
}

// ErrorResponse is the body of every out-of-band failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
