// Package migrate tracks the on-disk row format a storage.Storage backend
// is currently writing and carries existing data forward when that format
// changes, the way a redb/sled-backed store's migrate_to_latest walks a
// database created by an older binary before the current one touches it.
//
// The version itself lives in a reserved schemaless table
// (MetaTableName) under MetaVersionKey, mirroring the "__GLUESQL_META__"
// metadata table's "storage_format_version" entry: any Storage backend
// gets migration support for free just by implementing the ordinary
// Storage contract, with no backend-specific migration code required.
package migrate

import (
	"go.uber.org/zap"

	"gluedb/errs"
	"gluedb/schema"
	"gluedb/storage"
	"gluedb/value"
)

// MetaTableName is the reserved table migration bookkeeping lives in.
// It never appears in FetchAllSchemas results a query sees, because
// callers that enumerate user tables filter it out by name.
const MetaTableName = "_gluedb_meta"

// MetaVersionKey is the single row's key in MetaTableName.
const MetaVersionKey = "storage_format_version"

// CurrentVersion is the row format this build of the engine writes.
// Bump it, and add a Step to stepsFrom, whenever a change to how rows are
// encoded requires rewriting data created by an older version.
const CurrentVersion int64 = 2

// Step carries every row in every user table forward by exactly one
// version; MigrateToLatest records the new version (the step's key + 1)
// once the step returns without error.
type Step func(s storage.Storage, log *zap.Logger) error

// stepsFrom maps "migrating away from version N" to the function that
// performs it. The only registered step, migrateV1ToV2, leaves row data as
// it is (see its doc) and only moves the recorded version from 1 to 2.
var stepsFrom = map[int64]Step{
	1: migrateV1ToV2,
}

// ReadVersion returns the backend's current stored format version. A
// backend with no version row yet is implicitly version 1, matching the
// original engine's "absent metadata means pre-versioning" convention.
func ReadVersion(s storage.Storage) (int64, error) {
	_, ok, err := s.FetchSchema(MetaTableName)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	iter, err := s.ScanData(MetaTableName)
	if err != nil {
		return 0, err
	}
	row, ok, err := iter.Next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	doc, ok := row.Values[0].MapVal()
	if !ok {
		return 0, errs.New(errs.KindStorageIO, "corrupt %s row", MetaTableName)
	}
	v, ok := doc[MetaVersionKey]
	if !ok {
		return 1, nil
	}
	n, ok := v.Int64()
	if !ok {
		return 0, errs.New(errs.KindStorageIO, "non-integer %s", MetaVersionKey)
	}
	return n, nil
}

// writeVersion upserts the single metadata row, creating MetaTableName as a
// schemaless table the first time it's needed.
func writeVersion(s storage.Storage, version int64) error {
	if _, ok, err := s.FetchSchema(MetaTableName); err != nil {
		return err
	} else if !ok {
		if err := s.InsertSchema(&schema.Table{Name: MetaTableName}); err != nil {
			return err
		}
	}

	iter, err := s.ScanData(MetaTableName)
	if err != nil {
		return err
	}
	var existingKeys [][]byte
	for {
		row, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		existingKeys = append(existingKeys, row.Key)
	}
	if len(existingKeys) > 0 {
		if err := s.DeleteData(MetaTableName, existingKeys); err != nil {
			return err
		}
	}
	doc := value.NewMap(map[string]value.Value{MetaVersionKey: value.NewI64(version)})
	_, err = s.AppendData(MetaTableName, [][]value.Value{{doc}})
	return err
}

// MigrateToLatest walks s forward from its current stored version to
// CurrentVersion, applying each registered step in order and persisting the
// new version after every successful step so a crash mid-migration resumes
// rather than re-running completed work. A gap in stepsFrom (a version with
// no registered step reaching CurrentVersion) fails with
// KindMigrationRequired rather than silently leaving the store on an old
// format.
func MigrateToLatest(s storage.Storage, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	version, err := ReadVersion(s)
	if err != nil {
		return err
	}
	if version > CurrentVersion {
		return errs.New(errs.KindVersionMismatch,
			"storage format version %d is newer than this build supports (%d)", version, CurrentVersion)
	}
	for version < CurrentVersion {
		step, ok := stepsFrom[version]
		if !ok {
			return errs.New(errs.KindMigrationRequired,
				"no migration registered from storage format version %d to %d", version, CurrentVersion)
		}
		log.Debug("applying storage migration step", zap.Int64("from_version", version))
		if err := step(s, log); err != nil {
			return err
		}
		version++
		if err := writeVersion(s, version); err != nil {
			return err
		}
		log.Debug("storage migration step complete", zap.Int64("to_version", version))
	}
	return nil
}

// migrateV1ToV2 is a no-op on this engine: every backend here
// (storage/memory, storage/mysqlstore) has only ever written the version-2
// row shape (storage.Row{Key, Values}, with a schemaless row's single Value
// always a Map), so there is no legacy data to reshape. The step still
// exists, and is still exercised by MigrateToLatest's version bookkeeping,
// so a backend that is later seeded from an actual v1 dump has a slot to
// plug real row-rewriting logic into.
func migrateV1ToV2(s storage.Storage, log *zap.Logger) error {
	schemas, err := s.FetchAllSchemas()
	if err != nil {
		return err
	}
	for _, t := range schemas {
		if t.Name == MetaTableName {
			continue
		}
		log.Debug("checked table for v1 row layout", zap.String("table", t.Name))
	}
	return nil
}
