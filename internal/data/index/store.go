// Package index exports a resolved run into SQLite so editors and scripts
// can query declarations, member tables and name bindings.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"joosc/internal/engine/ast"
	"joosc/internal/engine/members"
	"joosc/internal/engine/pipeline"
	"joosc/internal/engine/symbols"
	"joosc/internal/shared/observability"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

type TypeRecord struct {
	QualifiedName string
	Kind          string
	Package       string
	FilePath      string
	Line          int
	Superclass    string
	Interfaces    []string
	Level         int
}

type MemberRecord struct {
	Owner      string
	Kind       string // field, method or constructor
	Name       string
	Signature  string
	Type       string
	DeclaredIn string
}

type RefRecord struct {
	FilePath string
	Line     int
	Column   int
	Text     string
	Kind     string
	Target   string
}

// Store is a project-scoped view of one SQLite index file. Rows of other
// projects in the same file are left alone.
type Store struct {
	db         *sql.DB
	projectKey string
	lookupStmt *sql.Stmt
	refsStmt   *sql.Stmt
	cache      *lookupCache
}

func Open(path, projectKey string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("index path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("index path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite index %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite index %q: %w", cleanPath, err)
	}
	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	key := strings.TrimSpace(projectKey)
	if key == "" {
		key = "default"
	}

	lookupStmt, err := db.Prepare(`SELECT
  qualified_name,
  kind,
  package,
  file_path,
  line_number,
  superclass,
  interfaces,
  level
FROM types
WHERE project_key = ? AND qualified_name = ?`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare lookup stmt: %w", err)
	}

	refsStmt, err := db.Prepare(`SELECT file_path, line_number, column_number, text, kind, target
FROM refs
WHERE project_key = ? AND (target = ? OR target LIKE ? || '.%' OR target LIKE ? || '/%')
ORDER BY file_path, line_number, column_number`)
	if err != nil {
		_ = lookupStmt.Close()
		_ = db.Close()
		return nil, fmt.Errorf("prepare refs stmt: %w", err)
	}

	return &Store{
		db:         db,
		projectKey: key,
		lookupStmt: lookupStmt,
		refsStmt:   refsStmt,
		cache:      newLookupCache(defaultLookupCacheSize),
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	_ = s.lookupStmt.Close()
	_ = s.refsStmt.Close()
	return s.db.Close()
}

// Write replaces the project's rows with the declarations, member tables and
// bindings of res in one transaction.
func (s *Store) Write(ctx context.Context, res *pipeline.Result) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("index not initialized")
	}
	start := time.Now()
	defer func() { observability.IndexWriteDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"types", "members", "refs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project_key = ?`, s.projectKey); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := s.writeTypes(ctx, tx, res); err != nil {
		return err
	}
	if err := s.writeMembers(ctx, tx, res); err != nil {
		return err
	}
	if err := s.writeRefs(ctx, tx, res.Units); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index write: %w", err)
	}
	s.cache.clear()
	return nil
}

func (s *Store) writeTypes(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO types
  (project_key, qualified_name, kind, package, file_path, line_number, superclass, interfaces, level)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare type insert: %w", err)
	}
	defer stmt.Close()

	for _, decl := range res.Table.Types() {
		h := res.Table.Handle(decl)
		rec := TypeRecord{
			QualifiedName: decl.QualifiedName(),
			Kind:          decl.Kind.String(),
			Level:         res.Graph.Level(h),
		}
		if decl.Unit != nil {
			rec.Package = decl.Unit.PackageName()
			rec.FilePath = decl.Unit.Path
			rec.Line = decl.Loc.Line
		}
		if super := res.Graph.Superclass(h); super != symbols.NoHandle {
			rec.Superclass = res.Table.Decl(super).QualifiedName()
		}
		for _, i := range res.Graph.Interfaces(h) {
			rec.Interfaces = append(rec.Interfaces, res.Table.Decl(i).QualifiedName())
		}
		if _, err := stmt.ExecContext(ctx, s.projectKey, rec.QualifiedName, rec.Kind, rec.Package,
			rec.FilePath, rec.Line, rec.Superclass, strings.Join(rec.Interfaces, ","), rec.Level); err != nil {
			return fmt.Errorf("insert type %s: %w", rec.QualifiedName, err)
		}
	}
	return nil
}

func (s *Store) writeMembers(ctx context.Context, tx *sql.Tx, res *pipeline.Result) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO members
  (project_key, owner, kind, name, signature, type, declared_in)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare member insert: %w", err)
	}
	defer stmt.Close()

	for _, decl := range res.Table.Types() {
		for _, rec := range memberRecords(res.Members.Table(decl)) {
			if _, err := stmt.ExecContext(ctx, s.projectKey, rec.Owner, rec.Kind, rec.Name,
				rec.Signature, rec.Type, rec.DeclaredIn); err != nil {
				return fmt.Errorf("insert member %s of %s: %w", rec.Signature, rec.Owner, err)
			}
		}
	}
	return nil
}

func memberRecords(table *members.Table) []MemberRecord {
	if table == nil {
		return nil
	}
	owner := table.Type.QualifiedName()
	var out []MemberRecord
	for _, name := range table.FieldNames() {
		f := table.Fields[name]
		out = append(out, MemberRecord{
			Owner: owner, Kind: "field", Name: name, Signature: name,
			Type: members.TypeString(f.Type), DeclaredIn: f.Owner.QualifiedName(),
		})
	}
	for _, sig := range table.Signatures() {
		m, _ := table.Signature(sig)
		out = append(out, MemberRecord{
			Owner: owner, Kind: "method", Name: m.Decl.Name, Signature: sig,
			Type: m.Return, DeclaredIn: m.Decl.Owner.QualifiedName(),
		})
	}
	for _, ctor := range table.Constructors {
		out = append(out, MemberRecord{
			Owner: owner, Kind: "constructor", Name: ctor.Name,
			Signature: members.Signature(ctor.Name, ctor.Params), DeclaredIn: owner,
		})
	}
	return out
}

func (s *Store) writeRefs(ctx context.Context, tx *sql.Tx, units []*ast.CompilationUnit) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO refs
  (project_key, file_path, line_number, column_number, text, kind, target)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare ref insert: %w", err)
	}
	defer stmt.Close()

	for _, unit := range units {
		for _, ref := range ast.Refs(unit) {
			kind := "unbound"
			if ref.Binding != nil {
				kind = ref.Binding.Kind.String()
			}
			if _, err := stmt.ExecContext(ctx, s.projectKey, unit.Path, ref.Loc.Line, ref.Loc.Column,
				ref.Text, kind, ref.Binding.Target()); err != nil {
				return fmt.Errorf("insert ref %s at %s: %w", ref.Text, ref.Loc, err)
			}
		}
	}
	return nil
}

// LookupType returns the indexed declaration named qname.
func (s *Store) LookupType(qname string) (TypeRecord, bool, error) {
	key := strings.TrimSpace(qname)
	if rec, ok := s.cache.get(key); ok {
		return rec, true, nil
	}

	var rec TypeRecord
	var interfaces string
	err := s.lookupStmt.QueryRow(s.projectKey, key).Scan(&rec.QualifiedName, &rec.Kind, &rec.Package,
		&rec.FilePath, &rec.Line, &rec.Superclass, &interfaces, &rec.Level)
	if err == sql.ErrNoRows {
		return TypeRecord{}, false, nil
	}
	if err != nil {
		return TypeRecord{}, false, fmt.Errorf("lookup type %s: %w", key, err)
	}
	if interfaces != "" {
		rec.Interfaces = strings.Split(interfaces, ",")
	}

	s.cache.put(key, rec)
	return rec, true, nil
}

// References lists reference sites bound to target or to one of its
// members or constructors (target "p.A" also matches "p.A.f" and "p.A/0").
func (s *Store) References(target string) ([]RefRecord, error) {
	rows, err := s.refsStmt.Query(s.projectKey, target, target, target)
	if err != nil {
		return nil, fmt.Errorf("query refs of %s: %w", target, err)
	}
	defer rows.Close()

	var out []RefRecord
	for rows.Next() {
		var rec RefRecord
		if err := rows.Scan(&rec.FilePath, &rec.Line, &rec.Column, &rec.Text, &rec.Kind, &rec.Target); err != nil {
			return nil, fmt.Errorf("scan ref: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Members returns the flattened member table of owner.
func (s *Store) Members(owner string) ([]MemberRecord, error) {
	rows, err := s.db.Query(`SELECT owner, kind, name, signature, type, declared_in
FROM members
WHERE project_key = ? AND owner = ?
ORDER BY kind, signature`, s.projectKey, owner)
	if err != nil {
		return nil, fmt.Errorf("query members of %s: %w", owner, err)
	}
	defer rows.Close()

	var out []MemberRecord
	for rows.Next() {
		var rec MemberRecord
		if err := rows.Scan(&rec.Owner, &rec.Kind, &rec.Name, &rec.Signature, &rec.Type, &rec.DeclaredIn); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
