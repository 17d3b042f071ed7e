package mysqlstore

import (
	"context"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("gluedb"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	store, err := Open(ctx, dsn, nil)
	require.NoError(t, err, "failed to open mysqlstore")
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func usersSchema() *schema.Table {
	return &schema.Table{
		Name:       "users",
		PrimaryKey: "id",
		Columns: []schema.Column{
			{Name: "id", Type: value.I64, Nullable: false, Unique: true},
			{Name: "name", Type: value.Str, Nullable: false},
		},
	}
}

func TestStoreCreateAndScanTable(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.InsertSchema(usersSchema()))

	got, ok, err := store.FetchSchema("users")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "id", got.PrimaryKey)
	require.Len(t, got.Columns, 2)

	keys, err := store.AppendData("users", [][]value.Value{
		{value.NewI64(1), value.NewStr("ada")},
		{value.NewI64(2), value.NewStr("grace")},
	})
	require.NoError(t, err)
	require.Len(t, keys, 2)

	iter, err := store.ScanData("users")
	require.NoError(t, err)
	var rows []storage.Row
	for {
		row, ok, err := iter.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	require.Len(t, rows, 2)

	name, ok := rows[0].Values[1].Str()
	require.True(t, ok)
	require.Contains(t, []string{"ada", "grace"}, name)
}

func TestStoreFetchAndDeleteData(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.InsertSchema(usersSchema()))

	keys, err := store.AppendData("users", [][]value.Value{{value.NewI64(7), value.NewStr("lin")}})
	require.NoError(t, err)

	vs, ok, err := store.FetchData("users", keys[0])
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := vs[1].Str()
	require.Equal(t, "lin", name)

	require.NoError(t, store.DeleteData("users", keys))
	_, ok, err = store.FetchData("users", keys[0])
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreTransactionRollback(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.InsertSchema(usersSchema()))

	tx, err := store.Begin(false)
	require.NoError(t, err)
	_, err = store.AppendData("users", [][]value.Value{{value.NewI64(1), value.NewStr("temp")}})
	require.NoError(t, err)
	require.NoError(t, store.Rollback(tx))

	iter, err := store.ScanData("users")
	require.NoError(t, err)
	_, ok, err := iter.Next()
	require.NoError(t, err)
	require.False(t, ok, "rolled-back insert should not be visible")
}

func TestStoreDropSchemaDropsDataTable(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.InsertSchema(usersSchema()))
	require.NoError(t, store.DeleteSchema("users"))

	_, ok, err := store.FetchSchema("users")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenLogsServerVersion(t *testing.T) {
	// Open itself queries SELECT VERSION() and logs it; setupStore already
	// exercises Open, so a successful connection is the behavior under test.
	store := setupStore(t)
	var version string
	require.NoError(t, store.db.QueryRowContext(context.Background(), "SELECT VERSION()").Scan(&version))
	require.NotEmpty(t, version)
}
