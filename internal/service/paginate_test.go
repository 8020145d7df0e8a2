package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

func seededItems(t *testing.T, n int) *Service {
	t.Helper()
	svc := connectedSQLite(t, `CREATE TABLE items (id INTEGER PRIMARY KEY, label TEXT, qty INTEGER)`)
	for i := 1; i <= n; i++ {
		r := svc.Execute(context.Background(),
			fmt.Sprintf(`INSERT INTO items (id, label, qty) VALUES (%d, 'item-%02d', %d)`, i, i, i%5))
		require.True(t, r.Success, r.Message)
	}
	return svc
}

func TestGetPageData(t *testing.T) {
	svc := seededItems(t, 25)
	ctx := context.Background()

	r := svc.GetPageData(ctx, PageRequest{Database: "main", Table: "items", Page: 1, PageSize: 10, OrderBy: "id"})
	require.True(t, r.Success, r.Message)
	require.Len(t, r.Rows, 10)
	require.NotNil(t, r.Pagination)
	assert.Equal(t, PageInfo{Page: 1, PageSize: 10, Total: 25, TotalPages: 3}, *r.Pagination)
	assert.Equal(t, []string{"id", "label", "qty"}, r.Columns)

	first, _ := r.Rows[0].Get("id")
	assert.Equal(t, database.Integer(1), first)

	last := svc.GetPageData(ctx, PageRequest{Database: "main", Table: "items", Page: 3, PageSize: 10, OrderBy: "id"})
	require.True(t, last.Success, last.Message)
	require.Len(t, last.Rows, 5)
	id, _ := last.Rows[0].Get("id")
	assert.Equal(t, database.Integer(21), id)
	assert.Equal(t, int64(25), last.Pagination.Total)
}

func TestGetPageData_PastLastPage(t *testing.T) {
	svc := seededItems(t, 25)

	r := svc.GetPageData(context.Background(), PageRequest{Database: "main", Table: "items", Page: 9, PageSize: 10})
	require.True(t, r.Success, r.Message)
	assert.Empty(t, r.Rows)
	assert.Equal(t, int64(25), r.Pagination.Total)
	assert.Equal(t, int64(3), r.Pagination.TotalPages)
}

func TestGetPageData_WhereFiltersCount(t *testing.T) {
	svc := seededItems(t, 25)

	r := svc.GetPageData(context.Background(), PageRequest{
		Database: "main",
		Table:    "items",
		Page:     1,
		PageSize: 2,
		Where:    "qty = 0",
		OrderBy:  "id DESC",
	})
	require.True(t, r.Success, r.Message)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, int64(5), r.Pagination.Total)
	assert.Equal(t, int64(3), r.Pagination.TotalPages)

	id, _ := r.Rows[0].Get("id")
	assert.Equal(t, database.Integer(25), id)
}

func TestGetPageData_EmptyTable(t *testing.T) {
	svc := seededItems(t, 0)

	r := svc.GetPageData(context.Background(), PageRequest{Database: "main", Table: "items", Page: 1, PageSize: 10})
	require.True(t, r.Success, r.Message)
	assert.NotNil(t, r.Rows)
	assert.Empty(t, r.Rows)
	assert.Equal(t, PageInfo{Page: 1, PageSize: 10, Total: 0, TotalPages: 0}, *r.Pagination)
}

func TestGetPageData_InvalidRequest(t *testing.T) {
	svc, sess := connectedFake(t, Options{})

	tests := []struct {
		name string
		req  PageRequest
	}{
		{"zero page", PageRequest{Database: "shop", Table: "t", Page: 0, PageSize: 10}},
		{"zero page size", PageRequest{Database: "shop", Table: "t", Page: 1, PageSize: 0}},
		{"backtick table", PageRequest{Database: "shop", Table: "t`x", Page: 1, PageSize: 10}},
		{"empty database", PageRequest{Table: "t", Page: 1, PageSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := svc.GetPageData(context.Background(), tt.req)
			assert.False(t, r.Success)
			assert.True(t, errs.IsInvalidInput(r.Err))
			assert.Contains(t, r.Message, "failed to load table data")
		})
	}
	assert.Empty(t, sess.Queries())
}

func TestGetPageData_NotConnected(t *testing.T) {
	svc := New(&fakeOpener{}, Options{})

	r := svc.GetPageData(context.Background(), PageRequest{Database: "shop", Table: "t", Page: 1, PageSize: 10})
	assert.False(t, r.Success)
	assert.True(t, errs.IsNotConnected(r.Err))
}

func TestGetPageData_QueryShape(t *testing.T) {
	svc, sess := connectedFake(t, Options{})
	var args []any
	sess.queryFn = func(q string, a []any) (*database.ResultSet, error) {
		if contains(q, "COUNT(*)") {
			return resultSet([]string{"total"}, []database.Value{database.Integer(42)}), nil
		}
		args = a
		return resultSet([]string{"id"}), nil
	}

	r := svc.GetPageData(context.Background(), PageRequest{Database: "shop", Table: "orders", Page: 3, PageSize: 20})
	require.True(t, r.Success, r.Message)
	assert.Equal(t, []string{
		"SELECT * FROM `shop`.`orders` LIMIT ? OFFSET ?",
		"SELECT COUNT(*) AS total FROM `shop`.`orders`",
	}, sess.Queries())
	assert.Equal(t, []any{20, 40}, args)
	assert.Equal(t, int64(42), r.Pagination.Total)
	assert.Equal(t, int64(3), r.Pagination.TotalPages)
}

func TestGetPageData_CountFailure(t *testing.T) {
	svc, sess := connectedFake(t, Options{})
	sess.queryFn = func(q string, _ []any) (*database.ResultSet, error) {
		if contains(q, "COUNT(*)") {
			return nil, errs.New(errs.ErrKindTimeout, "count timed out")
		}
		return resultSet([]string{"id"}), nil
	}

	r := svc.GetPageData(context.Background(), PageRequest{Database: "shop", Table: "orders", Page: 1, PageSize: 20})
	assert.False(t, r.Success)
	assert.True(t, errs.IsTimeout(r.Err))

	// A timeout on a connection that still answers pings keeps the session.
	assert.Equal(t, 1, sess.pings)
	assert.True(t, svc.IsConnected())
}

func TestReadTotal(t *testing.T) {
	n, err := readTotal(resultSet([]string{"COUNT(*)"}, []database.Value{database.String("17")}))
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)

	n, err = readTotal(resultSet([]string{"total"}))
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = readTotal(resultSet([]string{"total"}, []database.Value{database.String("many")}))
	assert.True(t, errs.IsStatementFailed(err))
}
