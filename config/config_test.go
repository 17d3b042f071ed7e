package config

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeAppliesDefaults(t *testing.T) {
	e, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, BackendMemory, e.Storage.Backend)
	require.Equal(t, defaultReservedDocColumn, e.Storage.ReservedDocName)
	require.Equal(t, "info", e.Logging.Level)
}

func TestDecodeMySQLRequiresDSN(t *testing.T) {
	_, err := Decode(strings.NewReader(`
[storage]
backend = "mysql"
`))
	require.Error(t, err)
}

func TestDecodeMySQLWithDSN(t *testing.T) {
	e, err := Decode(strings.NewReader(`
[storage]
backend = "mysql"
mysql_dsn = "root:pass@tcp(127.0.0.1:3306)/gluedb"

[logging]
level = "debug"
development = true
`))
	require.NoError(t, err)
	require.Equal(t, BackendMySQL, e.Storage.Backend)
	require.Equal(t, "root:pass@tcp(127.0.0.1:3306)/gluedb", e.Storage.MySQLDSN)
	require.Equal(t, "debug", e.Logging.Level)
	require.True(t, e.Logging.Development)
}

func TestDecodeRejectsUnknownBackend(t *testing.T) {
	_, err := Decode(strings.NewReader(`
[storage]
backend = "sqlite"
`))
	require.Error(t, err)
}

func TestDecodeRejectsUnknownLoggingLevel(t *testing.T) {
	_, err := Decode(strings.NewReader(`
[logging]
level = "verbose"
`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/gluedb.toml")
	require.Error(t, err)
}

func TestOpenMemoryBackend(t *testing.T) {
	e, err := Decode(strings.NewReader(""))
	require.NoError(t, err)

	s, err := e.Open(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestNewLoggerBuildsFromLevel(t *testing.T) {
	e, err := Decode(strings.NewReader(`
[logging]
level = "debug"
development = true
`))
	require.NoError(t, err)

	log, err := e.NewLogger()
	require.NoError(t, err)
	require.NotNil(t, log)
}
