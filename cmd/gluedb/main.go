// Package main contains the cli implementation of the engine. It uses the
// cobra package for cli tool implementation, the same way the migration
// tool this one was grown from does.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gluedb/config"
	"gluedb/executor"
	"gluedb/translate"
)

type queryFlags struct {
	configFile string
	dsn        string
	format     string
	timeout    int
	file       string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "gluedb",
		Short: "Embeddable SQL engine query runner",
	}

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func queryCmd() *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run one or more SQL statements against a storage backend",
		Long: `Runs SQL text against the configured storage backend and prints every
statement's result.

Examples:
  gluedb query --config gluedb.toml "SELECT * FROM users"
  gluedb query --dsn "user:pass@tcp(localhost:3306)/mydb" --file queries.sql
  echo "SELECT 1" | gluedb query --config gluedb.toml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var sql string
			if len(args) == 1 {
				sql = args[0]
			}
			return runQuery(sql, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to a gluedb.toml configuration file")
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL DSN; overrides the config file's storage backend with mysql")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "Output format: table, json, or summary")
	cmd.Flags().StringVar(&flags.file, "file", "", "Read SQL statements from this file instead of the argument/stdin")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 30, "Connection timeout in seconds")

	return cmd
}

func runQuery(arg string, flags *queryFlags) error {
	format, err := parseResultFormat(flags.format)
	if err != nil {
		return err
	}

	sql, err := readQueryText(arg, flags.file)
	if err != nil {
		return err
	}
	if strings.TrimSpace(sql) == "" {
		return fmt.Errorf("no SQL statements given")
	}

	eng, err := loadEngine(flags.configFile, flags.dsn)
	if err != nil {
		return err
	}

	log, err := eng.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flags.timeout)*time.Second)
	defer cancel()

	store, err := eng.Open(ctx, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	stmts, err := translate.NewTranslator().Translate(sql)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	ex := executor.New(store, log)
	for _, stmt := range stmts {
		payload, err := ex.Execute(stmt)
		if err != nil {
			return fmt.Errorf("execute: %w", err)
		}
		out, err := formatPayload(payload, format)
		if err != nil {
			return err
		}
		fmt.Print(out)
	}
	return nil
}

// loadEngine builds a config.Engine either from configFile, or (with no
// config file) a bare in-memory-backed default, optionally upgraded to the
// mysql backend when dsn is set.
func loadEngine(configFile, dsn string) (*config.Engine, error) {
	var eng *config.Engine
	var err error
	if configFile != "" {
		eng, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		eng, err = config.Decode(strings.NewReader(""))
		if err != nil {
			return nil, err
		}
	}
	if dsn != "" {
		eng.Storage.Backend = config.BackendMySQL
		eng.Storage.MySQLDSN = dsn
	}
	return eng, nil
}

func readQueryText(arg, filePath string) (string, error) {
	if filePath != "" {
		b, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("read query file: %w", err)
		}
		return string(b), nil
	}
	if arg != "" {
		return arg, nil
	}
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return "", nil
}

type migrateFlags struct {
	configFile string
	dsn        string
}

func migrateCmd() *cobra.Command {
	flags := &migrateFlags{}
	cmd := &cobra.Command{
		Use:   "migrate-storage",
		Short: "Bring a storage backend's on-disk row format up to date",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMigrateStorage(flags)
		},
	}
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to a gluedb.toml configuration file")
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL DSN; overrides the config file's storage backend with mysql")
	return cmd
}

func runMigrateStorage(flags *migrateFlags) error {
	eng, err := loadEngine(flags.configFile, flags.dsn)
	if err != nil {
		return err
	}
	log, err := eng.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Opening the store already runs migrate.MigrateToLatest; this command
	// exists to surface that as an explicit, nameable operation rather than
	// a side effect users only trigger by accident via `query`.
	store, err := eng.Open(ctx, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	fmt.Println("storage format is up to date")
	return nil
}
