package database

import (
	"fmt"
	"math"
	"strings"

	"github.com/koustreak/dbdesk/internal/errs"
)

// PageBuilder constructs the data and count statements for one page of a
// table scan. The numeric LIMIT / OFFSET values are always bound as
// arguments; WHERE and ORDER BY are trusted raw fragments appended verbatim.
//
// Usage:
//
//	q, err := Page("shop", "orders").
//	    Where("status = 'open'").
//	    OrderBy("created_at DESC").
//	    Window(2, 50).
//	    Build()
type PageBuilder struct {
	database string
	table    string
	where    string
	orderBy  string
	page     int
	pageSize int
}

// PageQuery is the output of PageBuilder.Build.
type PageQuery struct {
	DataSQL  string
	DataArgs []any
	CountSQL string
	Offset   int
}

// Page starts a PageBuilder for database.table, defaulting to page 1 of 100 rows.
func Page(database, table string) *PageBuilder {
	return &PageBuilder{database: database, table: table, page: 1, pageSize: 100}
}

// Where sets the raw filter fragment. Blank fragments are ignored.
func (b *PageBuilder) Where(clause string) *PageBuilder {
	b.where = strings.TrimSpace(clause)
	return b
}

// OrderBy sets the raw ordering fragment. Blank fragments are ignored.
func (b *PageBuilder) OrderBy(clause string) *PageBuilder {
	b.orderBy = strings.TrimSpace(clause)
	return b
}

// Window selects which page to read; page 1 is the first page.
func (b *PageBuilder) Window(page, pageSize int) *PageBuilder {
	b.page = page
	b.pageSize = pageSize
	return b
}

// Build validates the identifiers and the window and renders both statements.
func (b *PageBuilder) Build() (*PageQuery, error) {
	if b.page < 1 {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("page must be >= 1, got %d", b.page))
	}
	if b.pageSize < 1 {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("page size must be >= 1, got %d", b.pageSize))
	}
	if b.page-1 > math.MaxInt/b.pageSize {
		return nil, errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("page %d of size %d is out of range", b.page, b.pageSize))
	}

	from, err := QualifiedTable(b.database, b.table)
	if err != nil {
		return nil, err
	}

	var data strings.Builder
	data.WriteString("SELECT * FROM ")
	data.WriteString(from)

	var count strings.Builder
	count.WriteString("SELECT COUNT(*) AS total FROM ")
	count.WriteString(from)

	// --- WHERE ---
	if b.where != "" {
		data.WriteString(" WHERE ")
		data.WriteString(b.where)
		count.WriteString(" WHERE ")
		count.WriteString(b.where)
	}

	// --- ORDER BY ---
	if b.orderBy != "" {
		data.WriteString(" ORDER BY ")
		data.WriteString(b.orderBy)
	}

	// --- LIMIT / OFFSET ---
	offset := (b.page - 1) * b.pageSize
	data.WriteString(" LIMIT ? OFFSET ?")

	return &PageQuery{
		DataSQL:  data.String(),
		DataArgs: []any{b.pageSize, offset},
		CountSQL: count.String(),
		Offset:   offset,
	}, nil
}

// TotalPages is ceil(total / pageSize), zero when there are no rows.
func TotalPages(total int64, pageSize int) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}
