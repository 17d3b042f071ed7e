// Package config loads the engine's TOML configuration file: which storage
// backend to open, the reserved schemaless document column name, and
// logging verbosity. It follows the same open-file/decode/validate shape
// the teacher's schema TOML parser uses, generalized from a schema
// definition file to an engine settings file.
package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"gluedb/errs"
	"gluedb/migrate"
	"gluedb/storage"
	"gluedb/storage/memory"
	"gluedb/storage/mysqlstore"
)

// Backend names the storage.Storage implementation Engine.Open should
// construct.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendMySQL  Backend = "mysql"
)

// Engine is the top-level decoded configuration document.
type Engine struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	Backend         Backend `toml:"backend"`
	MySQLDSN        string  `toml:"mysql_dsn"`
	ReservedDocName string  `toml:"reserved_doc_column"`
}

// LoggingConfig controls the zap logger the engine constructs at startup.
type LoggingConfig struct {
	Level       string `toml:"level"`       // debug, info, warn, error; default info
	Development bool   `toml:"development"` // use zap's development encoder
}

const defaultReservedDocColumn = "_doc"

// Load opens path and decodes it as an Engine configuration.
func Load(path string) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "config: open file %q", path)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML content from r and validates it into an Engine.
func Decode(r io.Reader) (*Engine, error) {
	var e Engine
	if _, err := toml.NewDecoder(r).Decode(&e); err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "config: decode error")
	}
	e.applyDefaults()
	if err := e.validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

func (e *Engine) applyDefaults() {
	if e.Storage.Backend == "" {
		e.Storage.Backend = BackendMemory
	}
	if e.Storage.ReservedDocName == "" {
		e.Storage.ReservedDocName = defaultReservedDocColumn
	}
	if e.Logging.Level == "" {
		e.Logging.Level = "info"
	}
}

func (e *Engine) validate() error {
	switch e.Storage.Backend {
	case BackendMemory:
	case BackendMySQL:
		if e.Storage.MySQLDSN == "" {
			return errs.New(errs.KindUnsupportedSyntax, "config: storage.backend = %q requires storage.mysql_dsn", e.Storage.Backend)
		}
	default:
		return errs.New(errs.KindUnsupportedSyntax, "config: unknown storage.backend %q", e.Storage.Backend)
	}
	switch e.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.New(errs.KindUnsupportedSyntax, "config: unknown logging.level %q", e.Logging.Level)
	}
	return nil
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine{backend=%s, logging=%s}", e.Storage.Backend, e.Logging.Level)
}

// NewLogger builds the zap.Logger the Logging section describes.
func (e *Engine) NewLogger() (*zap.Logger, error) {
	var cfg zap.Config
	if e.Logging.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(e.Logging.Level)
	if err != nil {
		return nil, errs.Wrap(errs.KindUnsupportedSyntax, err, "config: parse logging.level")
	}
	cfg.Level = level
	logger, err := cfg.Build()
	if err != nil {
		return nil, errs.Wrap(errs.KindStorageIO, err, "config: build logger")
	}
	return logger, nil
}

// Open constructs the storage.Storage backend this configuration names,
// applying any pending migration before handing it back.
func (e *Engine) Open(ctx context.Context, log *zap.Logger) (storage.Storage, error) {
	switch e.Storage.Backend {
	case BackendMySQL:
		return mysqlstore.Open(ctx, e.Storage.MySQLDSN, log)
	case BackendMemory, "":
		s := memory.New()
		if err := migrate.MigrateToLatest(s, log); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errs.New(errs.KindUnsupportedSyntax, "config: unknown storage.backend %q", e.Storage.Backend)
	}
}
