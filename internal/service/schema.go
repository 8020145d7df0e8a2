package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// Catalog queries. Schema and table names are always bound, never
// interpolated; SHOW CREATE TABLE cannot take binds and validates instead.
// Bound names only have to be non-blank.
const (
	queryListDatabases = `SHOW DATABASES`

	queryListTables = `
		SELECT
			TABLE_NAME    AS name,
			TABLE_TYPE    AS type,
			ENGINE        AS engine,
			TABLE_ROWS    AS row_count,
			TABLE_COMMENT AS comment
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME`

	queryListColumns = `
		SELECT
			COLUMN_NAME              AS name,
			DATA_TYPE                AS type,
			COLUMN_TYPE              AS column_type,
			IS_NULLABLE              AS nullable,
			COLUMN_KEY               AS ` + "`key`" + `,
			COLUMN_DEFAULT           AS default_value,
			EXTRA                    AS extra,
			COLUMN_COMMENT           AS comment,
			CHARACTER_MAXIMUM_LENGTH AS max_length,
			NUMERIC_PRECISION        AS ` + "`precision`" + `,
			NUMERIC_SCALE            AS ` + "`scale`" + `,
			ORDINAL_POSITION         AS position
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	queryShowCreate = `SHOW CREATE TABLE %s`
)

// TableKind distinguishes base tables from views.
type TableKind string

const (
	KindTable TableKind = "table"
	KindView  TableKind = "view"
)

// TableInfo is a snapshot of one entry of information_schema.TABLES.
type TableInfo struct {
	Name     string    `json:"name"`
	Kind     TableKind `json:"kind"`
	Engine   string    `json:"engine,omitempty"`
	RowCount int64     `json:"rowCount"` // estimate; 0 when unknown
	Comment  string    `json:"comment"`
}

// ColumnInfo is a snapshot of one entry of information_schema.COLUMNS.
type ColumnInfo struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	ColumnType   string  `json:"columnType"`
	Nullable     bool    `json:"nullable"`
	Key          string  `json:"key"`
	DefaultValue *string `json:"defaultValue"`
	Extra        string  `json:"extra"`
	Comment      string  `json:"comment"`
	MaxLength    *int64  `json:"maxLength,omitempty"`
	Precision    *int64  `json:"precision,omitempty"`
	Scale        *int64  `json:"scale,omitempty"`
	Position     int64   `json:"position"`
}

// ListDatabases returns the names of every schema visible to the session.
func (s *Service) ListDatabases(ctx context.Context) ([]string, error) {
	rs, err := s.catalogQuery(ctx, "list databases", queryListDatabases)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		values := row.Values()
		if len(values) == 0 {
			continue
		}
		names = append(names, values[0].String())
	}
	return names, nil
}

// ListTables returns the tables and views of schema db.
func (s *Service) ListTables(ctx context.Context, db string) ([]TableInfo, error) {
	if err := requireNames("list tables", db); err != nil {
		return nil, err
	}
	rs, err := s.catalogQuery(ctx, "list tables", queryListTables, db)
	if err != nil {
		return nil, err
	}

	tables := make([]TableInfo, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		kind := KindView
		if text(row, "type") == "BASE TABLE" {
			kind = KindTable
		}
		var count int64
		if n := optInt(row, "row_count"); n != nil {
			count = *n
		}
		tables = append(tables, TableInfo{
			Name:     text(row, "name"),
			Kind:     kind,
			Engine:   text(row, "engine"),
			RowCount: count,
			Comment:  text(row, "comment"),
		})
	}
	return tables, nil
}

// ListColumns returns the columns of db.table in ordinal order.
func (s *Service) ListColumns(ctx context.Context, db, table string) ([]ColumnInfo, error) {
	if err := requireNames("list columns", db, table); err != nil {
		return nil, err
	}
	rs, err := s.catalogQuery(ctx, "list columns", queryListColumns, db, table)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnInfo, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		var position int64
		if n := optInt(row, "position"); n != nil {
			position = *n
		}
		columns = append(columns, ColumnInfo{
			Name:         text(row, "name"),
			Type:         text(row, "type"),
			ColumnType:   text(row, "column_type"),
			Nullable:     text(row, "nullable") == "YES",
			Key:          text(row, "key"),
			DefaultValue: optText(row, "default_value"),
			Extra:        text(row, "extra"),
			Comment:      text(row, "comment"),
			MaxLength:    optInt(row, "max_length"),
			Precision:    optInt(row, "precision"),
			Scale:        optInt(row, "scale"),
			Position:     position,
		})
	}
	return columns, nil
}

// GetCreateStatement returns the DDL of db.table (or of a view).
// It fails with NotFound when the server returns no row or reports the
// schema or table as unknown.
func (s *Service) GetCreateStatement(ctx context.Context, db, table string) (string, error) {
	const op = "get create statement"

	qualified, err := database.QualifiedTable(db, table)
	if err != nil {
		return "", errs.Label(op+" failed", err, errs.ErrKindInvalidInput)
	}
	rs, err := s.catalogQuery(ctx, op, fmt.Sprintf(queryShowCreate, qualified))
	if err != nil {
		return "", err
	}

	if len(rs.Rows) > 0 {
		row := rs.Rows[0]
		for _, col := range []string{"Create Table", "Create View"} {
			if v, ok := row.Get(col); ok && !v.IsNull() {
				return v.String(), nil
			}
		}
	}
	return "", errs.Label(op+" failed",
		errs.New(errs.ErrKindNotFound, fmt.Sprintf("no create statement for %s", qualified)),
		errs.ErrKindNotFound)
}

// catalogQuery runs a read-only catalog statement on the current session.
func (s *Service) catalogQuery(ctx context.Context, op, query string, args ...any) (*database.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.requireConnected()
	if err != nil {
		return nil, errs.Label(op+" failed", err, errs.ErrKindNotConnected)
	}

	rs, err := session.Query(ctx, query, args...)
	if err != nil {
		s.sessionLog.WarnWith(op+" failed", err, nil)
		s.dropIfLost(ctx, err)
		return nil, errs.Label(op+" failed", err, errs.ErrKindStatementFailed)
	}
	return rs, nil
}

func requireNames(op string, names ...string) error {
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return errs.New(errs.ErrKindInvalidInput, op+" failed: name must not be empty")
		}
	}
	return nil
}

// --- row accessors ---

func text(row database.Row, col string) string {
	v, ok := row.Get(col)
	if !ok || v.IsNull() {
		return ""
	}
	return v.String()
}

func optText(row database.Row, col string) *string {
	v, ok := row.Get(col)
	if !ok || v.IsNull() {
		return nil
	}
	s := v.String()
	return &s
}

func optInt(row database.Row, col string) *int64 {
	v, ok := row.Get(col)
	if !ok || v.IsNull() {
		return nil
	}
	n, ok := v.Int()
	if !ok {
		return nil
	}
	return &n
}
