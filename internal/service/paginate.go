package service

import (
	"context"
	"fmt"
	"time"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

// PageRequest selects one page of a table scan.
// Where and OrderBy are raw SQL fragments appended verbatim; callers are
// responsible for their safety.
type PageRequest struct {
	Database string
	Table    string
	Page     int
	PageSize int
	Where    string
	OrderBy  string
}

const pageFailure = "failed to load table data"

// GetPageData reads one page of Database.Table together with the total
// row count of the filtered table. Like Execute, it reports failures
// in-band.
func (s *Service) GetPageData(ctx context.Context, req PageRequest) QueryResult {
	q, err := database.Page(req.Database, req.Table).
		Where(req.Where).
		OrderBy(req.OrderBy).
		Window(req.Page, req.PageSize).
		Build()
	if err != nil {
		return failedResult(pageFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.requireConnected()
	if err != nil {
		return failedResult(pageFailure, err)
	}

	log := s.sessionLog.With().
		Str("database", req.Database).
		Str("table", req.Table).
		Logger()

	start := time.Now()
	data, err := session.Query(ctx, q.DataSQL, q.DataArgs...)
	if err != nil {
		log.WarnWith("page query failed", err, nil)
		s.dropIfLost(ctx, err)
		return failedResult(pageFailure, err)
	}
	elapsed := time.Since(start).Milliseconds()

	count, err := session.Query(ctx, q.CountSQL)
	if err != nil {
		log.WarnWith("count query failed", err, nil)
		s.dropIfLost(ctx, err)
		return failedResult(pageFailure, err)
	}
	total, err := readTotal(count)
	if err != nil {
		return failedResult(pageFailure, err)
	}

	result := readResult(data, elapsed)
	result.Pagination = &PageInfo{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: database.TotalPages(total, req.PageSize),
	}

	log.DebugWith("page loaded", map[string]interface{}{
		"page":  req.Page,
		"rows":  len(data.Rows),
		"total": total,
	})
	return result
}

// readTotal extracts COUNT(*) from the first row, tolerating drivers that
// name the column differently.
func readTotal(rs *database.ResultSet) (int64, error) {
	if len(rs.Rows) == 0 {
		return 0, nil
	}
	row := rs.Rows[0]
	v, ok := row.Get("total")
	if !ok {
		values := row.Values()
		if len(values) == 0 {
			return 0, nil
		}
		v = values[0]
	}
	if v.IsNull() {
		return 0, nil
	}
	n, ok := v.Int()
	if !ok {
		return 0, errs.New(errs.ErrKindStatementFailed, fmt.Sprintf("unexpected row count %q", v.String()))
	}
	return n, nil
}
