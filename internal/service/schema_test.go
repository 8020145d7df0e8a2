package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/dbdesk/internal/database"
	"github.com/koustreak/dbdesk/internal/errs"
)

var (
	str = database.String
	num = database.Integer
	nul = database.Null()
)

func catalogFake(t *testing.T) (*Service, *fakeSession, *[][]any) {
	t.Helper()
	svc, sess := connectedFake(t, Options{})
	var argLog [][]any

	sess.queryFn = func(q string, args []any) (*database.ResultSet, error) {
		argLog = append(argLog, args)
		switch {
		case q == queryListDatabases:
			return resultSet([]string{"Database"},
				[]database.Value{str("information_schema")},
				[]database.Value{str("shop")},
			), nil
		case q == queryListTables:
			return resultSet([]string{"name", "type", "engine", "row_count", "comment"},
				[]database.Value{str("orders"), str("BASE TABLE"), str("InnoDB"), num(120), str("")},
				[]database.Value{str("open_orders"), str("VIEW"), nul, nul, str("VIEW")},
			), nil
		case q == queryListColumns:
			cols := []string{"name", "type", "column_type", "nullable", "key", "default_value",
				"extra", "comment", "max_length", "precision", "scale", "position"}
			return resultSet(cols,
				[]database.Value{str("id"), str("int"), str("int unsigned"), str("NO"), str("PRI"), nul,
					str("auto_increment"), str(""), nul, num(10), num(0), num(1)},
				[]database.Value{str("email"), str("varchar"), str("varchar(255)"), str("YES"), str("UNI"), nul,
					str(""), str("contact"), num(255), nul, nul, num(2)},
				[]database.Value{str("status"), str("enum"), str("enum('open','closed')"), str("NO"), str(""), str("open"),
					str(""), str(""), num(6), nul, nul, num(3)},
			), nil
		case q == "SHOW CREATE TABLE `shop`.`orders`":
			return resultSet([]string{"Table", "Create Table"},
				[]database.Value{str("orders"), str("CREATE TABLE `orders` (\n  `id` int NOT NULL\n)")},
			), nil
		case q == "SHOW CREATE TABLE `shop`.`open_orders`":
			return resultSet([]string{"View", "Create View", "character_set_client", "collation_connection"},
				[]database.Value{str("open_orders"), str("CREATE VIEW `open_orders` AS select 1"), str("utf8mb4"), str("utf8mb4_0900_ai_ci")},
			), nil
		case q == "SHOW CREATE TABLE `shop`.`ghost`":
			return resultSet([]string{"Table", "Create Table"}), nil
		case q == "SHOW CREATE TABLE `shop`.`dropped`":
			return nil, errs.New(errs.ErrKindNotFound, "Table 'shop.dropped' doesn't exist")
		}
		return nil, errs.New(errs.ErrKindStatementFailed, "unexpected query")
	}
	return svc, sess, &argLog
}

func TestListDatabases(t *testing.T) {
	svc, _, _ := catalogFake(t)

	names, err := svc.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"information_schema", "shop"}, names)
}

func TestListTables(t *testing.T) {
	svc, _, args := catalogFake(t)

	tables, err := svc.ListTables(context.Background(), "shop")
	require.NoError(t, err)
	assert.Equal(t, []any{"shop"}, (*args)[0])
	assert.Equal(t, []TableInfo{
		{Name: "orders", Kind: KindTable, Engine: "InnoDB", RowCount: 120},
		{Name: "open_orders", Kind: KindView, Comment: "VIEW"},
	}, tables)
}

func TestListColumns(t *testing.T) {
	svc, _, args := catalogFake(t)

	columns, err := svc.ListColumns(context.Background(), "shop", "orders")
	require.NoError(t, err)
	assert.Equal(t, []any{"shop", "orders"}, (*args)[0])
	require.Len(t, columns, 3)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		assert.Equal(t, int64(i+1), c.Position)
	}
	assert.Equal(t, []string{"id", "email", "status"}, names)

	id := columns[0]
	assert.False(t, id.Nullable)
	assert.Equal(t, "PRI", id.Key)
	assert.Equal(t, "int unsigned", id.ColumnType)
	assert.Equal(t, "auto_increment", id.Extra)
	assert.Nil(t, id.DefaultValue)
	assert.Nil(t, id.MaxLength)
	require.NotNil(t, id.Precision)
	assert.Equal(t, int64(10), *id.Precision)

	email := columns[1]
	assert.True(t, email.Nullable)
	assert.Equal(t, "contact", email.Comment)
	require.NotNil(t, email.MaxLength)
	assert.Equal(t, int64(255), *email.MaxLength)

	status := columns[2]
	require.NotNil(t, status.DefaultValue)
	assert.Equal(t, "open", *status.DefaultValue)
}

func TestGetCreateStatement(t *testing.T) {
	svc, _, _ := catalogFake(t)
	ctx := context.Background()

	ddl, err := svc.GetCreateStatement(ctx, "shop", "orders")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE `orders`")

	ddl, err = svc.GetCreateStatement(ctx, "shop", "open_orders")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE VIEW")
}

func TestGetCreateStatement_NotFound(t *testing.T) {
	svc, _, _ := catalogFake(t)

	_, err := svc.GetCreateStatement(context.Background(), "shop", "ghost")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestGetCreateStatement_RejectsUnsafeNames(t *testing.T) {
	svc, sess, _ := catalogFake(t)

	for _, name := range []string{"a`b", "orders; DROP TABLE x", "", "x.y"} {
		_, err := svc.GetCreateStatement(context.Background(), "shop", name)
		require.Error(t, err, name)
		assert.True(t, errs.IsInvalidInput(err), name)
	}
	assert.Empty(t, sess.Queries())
}

func TestCatalog_BlankNames(t *testing.T) {
	svc, sess, _ := catalogFake(t)
	ctx := context.Background()

	_, err := svc.ListTables(ctx, "  ")
	assert.True(t, errs.IsInvalidInput(err))

	_, err = svc.ListColumns(ctx, "shop", "")
	assert.True(t, errs.IsInvalidInput(err))

	assert.Empty(t, sess.Queries())
}

func TestCatalog_BoundNamesAreNotValidated(t *testing.T) {
	svc, _, args := catalogFake(t)
	ctx := context.Background()

	_, err := svc.ListTables(ctx, "my reports.2024")
	require.NoError(t, err)

	_, err = svc.ListColumns(ctx, "sh`op", "order items")
	require.NoError(t, err)

	assert.Equal(t, [][]any{{"my reports.2024"}, {"sh`op", "order items"}}, *args)
}

func TestGetCreateStatement_UnknownTable(t *testing.T) {
	svc, _, _ := catalogFake(t)

	_, err := svc.GetCreateStatement(context.Background(), "shop", "dropped")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
	assert.Contains(t, err.Error(), "get create statement failed")
	assert.True(t, svc.IsConnected())
}

func TestCatalog_NotConnected(t *testing.T) {
	svc := New(&fakeOpener{}, Options{})
	ctx := context.Background()

	_, err := svc.ListDatabases(ctx)
	assert.True(t, errs.IsNotConnected(err))

	_, err = svc.ListTables(ctx, "shop")
	assert.True(t, errs.IsNotConnected(err))

	_, err = svc.ListColumns(ctx, "shop", "orders")
	assert.True(t, errs.IsNotConnected(err))

	_, err = svc.GetCreateStatement(ctx, "shop", "orders")
	assert.True(t, errs.IsNotConnected(err))
}

func TestCatalog_ServerErrorKeepsKind(t *testing.T) {
	svc, sess := connectedFake(t, Options{})
	sess.queryFn = func(string, []any) (*database.ResultSet, error) {
		return nil, errs.New(errs.ErrKindPermissionDenied, "access denied")
	}

	_, err := svc.ListDatabases(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Contains(t, err.Error(), "list databases failed")
}
