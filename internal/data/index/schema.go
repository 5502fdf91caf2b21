package index

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

func migrateSchema(db *sql.DB) error {
	var version int
	_ = db.QueryRow(`PRAGMA user_version`).Scan(&version)
	if version >= schemaVersion {
		return nil
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS types (
  project_key TEXT NOT NULL,
  qualified_name TEXT NOT NULL,
  kind TEXT NOT NULL,
  package TEXT NOT NULL DEFAULT '',
  file_path TEXT NOT NULL DEFAULT '',
  line_number INTEGER NOT NULL DEFAULT 0,
  superclass TEXT NOT NULL DEFAULT '',
  interfaces TEXT NOT NULL DEFAULT '',
  level INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (project_key, qualified_name)
);

CREATE TABLE IF NOT EXISTS members (
  project_key TEXT NOT NULL,
  owner TEXT NOT NULL,
  kind TEXT NOT NULL,
  name TEXT NOT NULL,
  signature TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT '',
  declared_in TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_members_project_owner ON members(project_key, owner);

CREATE TABLE IF NOT EXISTS refs (
  project_key TEXT NOT NULL,
  file_path TEXT NOT NULL,
  line_number INTEGER NOT NULL,
  column_number INTEGER NOT NULL,
  text TEXT NOT NULL,
  kind TEXT NOT NULL,
  target TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_refs_project_target ON refs(project_key, target);

PRAGMA user_version = 1;
`)
	if err != nil {
		return fmt.Errorf("create v%d schema: %w", schemaVersion, err)
	}
	return nil
}
