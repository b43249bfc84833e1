package db

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	embedded "github.com/fastgtd/smartfolder/migrations"
)

// MigrationStatus reports one migration's state for the status command.
type MigrationStatus struct {
	ID        string
	Checksum  string
	Applied   bool
	AppliedAt *time.Time
}

// migration is a parsed migration file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// MigrateUp applies all pending migrations for the connection's dialect.
// Already-applied migrations are checksum-validated first: an edited
// migration file fails loudly instead of silently diverging the schema.
func MigrateUp(conn *sqlx.DB) error {
	migrations, err := loadMigrations(conn)
	if err != nil {
		return err
	}
	if err := ensureMigrationsTable(conn); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	applied, err := appliedChecksums(conn)
	if err != nil {
		return fmt.Errorf("query applied migrations: %w", err)
	}
	for _, m := range migrations {
		checksum, ok := applied[m.ID]
		if !ok {
			continue
		}
		if checksum != m.Checksum {
			return fmt.Errorf("checksum mismatch for migration %s: embedded file changed after it was applied", m.ID)
		}
	}

	for _, m := range migrations {
		if _, ok := applied[m.ID]; ok {
			continue
		}
		if err := applyMigration(conn, m); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.ID, err)
		}
	}
	return nil
}

// MigrateStatus returns applied and pending migrations in order.
func MigrateStatus(conn *sqlx.DB) ([]MigrationStatus, error) {
	migrations, err := loadMigrations(conn)
	if err != nil {
		return nil, err
	}
	if err := ensureMigrationsTable(conn); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	rows, err := conn.Queryx("SELECT migration_id, checksum, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]MigrationStatus)
	for rows.Next() {
		var (
			status    MigrationStatus
			appliedAt string
		)
		if err := rows.Scan(&status.ID, &status.Checksum, &appliedAt); err != nil {
			return nil, err
		}
		status.Applied = true
		if t, err := time.Parse(time.RFC3339, appliedAt); err == nil {
			status.AppliedAt = &t
		}
		applied[status.ID] = status
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		if s, ok := applied[m.ID]; ok {
			statuses = append(statuses, s)
			continue
		}
		statuses = append(statuses, MigrationStatus{ID: m.ID, Checksum: m.Checksum})
	}
	return statuses, nil
}

// loadMigrations parses the embedded migration files for the dialect,
// sorted by filename for deterministic ordering.
func loadMigrations(conn *sqlx.DB) ([]migration, error) {
	var (
		fsys embed.FS
		dir  string
	)
	switch conn.DriverName() {
	case "sqlite3":
		fsys, dir = embedded.Sqlite, "sqlite"
	case "postgres":
		fsys, dir = embedded.Postgres, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", conn.DriverName())
	}

	var migrations []migration
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		content, err := fsys.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		migrations = append(migrations, migration{
			ID:       filepath.Base(path),
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
			SQL:      string(content),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

func ensureMigrationsTable(conn *sqlx.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`)
	return err
}

func appliedChecksums(conn *sqlx.DB) (map[string]string, error) {
	rows, err := conn.Queryx("SELECT migration_id, checksum FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var id, checksum string
		if err := rows.Scan(&id, &checksum); err != nil {
			return nil, err
		}
		applied[id] = checksum
	}
	return applied, rows.Err()
}

// applyMigration executes one migration and records it in a single
// transaction, so a failure leaves neither a half-applied schema nor an
// unrecorded migration. Statements are split on semicolons because lib/pq
// rejects multi-statement Exec.
func applyMigration(conn *sqlx.DB, m migration) error {
	tx, err := conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(m.SQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		tx.Rebind("INSERT INTO schema_migrations (migration_id, checksum, applied_at) VALUES (?, ?, ?)"),
		m.ID, m.Checksum, appliedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}
