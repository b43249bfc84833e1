package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries provides access to named SQL statements loaded from embedded
// .sql files. dotsql handles the name-to-statement mapping; sqlx Rebind
// converts ? placeholders for the active driver, so one statement text
// serves both SQLite and PostgreSQL.
type Queries struct {
	dot *dotsql.DotSql
	db  *sqlx.DB
}

// LoadQueries loads every embedded .sql file and returns a Queries bound to
// the connection. Statements are addressed by their -- name: header.
func LoadQueries(conn *sqlx.DB) (*Queries, error) {
	var combined string
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		combined += string(content) + "\n"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load query files: %w", err)
	}

	dot, err := dotsql.LoadFromString(combined)
	if err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return &Queries{dot: dot, db: conn}, nil
}

// raw looks up a named statement rebound for the active driver.
func (q *Queries) raw(name string) (string, error) {
	stmt, err := q.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return q.db.Rebind(stmt), nil
}

// Exec executes a named statement.
func (q *Queries) Exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	stmt, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, stmt, args...)
}

// Get retrieves a single row into dest.
func (q *Queries) Get(ctx context.Context, name string, dest any, args ...any) error {
	stmt, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, stmt, args...)
}

// Select retrieves multiple rows into a dest slice.
func (q *Queries) Select(ctx context.Context, name string, dest any, args ...any) error {
	stmt, err := q.raw(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, stmt, args...)
}

// Query runs a named statement and returns the row cursor for streaming
// consumption; the caller owns closing it.
func (q *Queries) Query(ctx context.Context, name string, args ...any) (*sqlx.Rows, error) {
	stmt, err := q.raw(name)
	if err != nil {
		return nil, err
	}
	return q.db.QueryxContext(ctx, stmt, args...)
}
