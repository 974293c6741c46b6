package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mastercactapus/gcpath/diag"
	"github.com/mastercactapus/gcpath/path"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores runs in a SQLite database. Runs are keyed by id.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the database at file. ":memory:" keeps it in
// memory for the life of the SQLite value.
func OpenSQLite(file string) (*SQLite, error) {
	dsn := ":memory:"
	if file != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		dsn = file + "?_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection: every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		segments INTEGER NOT NULL,
		diagnostics INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS segments (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		line INTEGER NOT NULL,
		kind TEXT NOT NULL,
		rapid INTEGER NOT NULL,
		x0 REAL NOT NULL, y0 REAL NOT NULL, z0 REAL NOT NULL,
		x1 REAL NOT NULL, y1 REAL NOT NULL, z1 REAL NOT NULL,
		cx REAL, cy REAL, cz REAL,
		radius REAL, sweep REAL, plane TEXT,
		feed REAL NOT NULL,
		extrude REAL NOT NULL,
		layer INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		run_id TEXT NOT NULL,
		line INTEGER NOT NULL,
		severity TEXT NOT NULL,
		code TEXT NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_segments_layer ON segments(run_id, layer);
	CREATE INDEX IF NOT EXISTS idx_diagnostics_run ON diagnostics(run_id, line);
	`)
	return err
}

// Save writes src under id in a single transaction, replacing any run
// already stored with that id.
func (s *SQLite) Save(ctx context.Context, id string, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"runs", "segments", "diagnostics"} {
		col := "run_id"
		if table == "runs" {
			col = "id"
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+col+" = ?", id); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (run_id, seq, line, kind, rapid, x0, y0, z0, x1, y1, z1, cx, cy, cz, radius, sweep, plane, feed, extrude, layer)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare segment insert: %w", err)
	}
	defer stmt.Close()

	var n int
	for seg := range src.Segments() {
		r := NewRecord(seg)
		var cx, cy, cz, radius, sweep, plane any
		if r.Center != nil {
			cx, cy, cz = r.Center[0], r.Center[1], r.Center[2]
			radius, sweep, plane = r.Radius, r.Sweep, r.Plane
		}
		_, err := stmt.ExecContext(ctx, id, n, r.Line, r.Kind.String(), r.Rapid,
			r.Start[0], r.Start[1], r.Start[2], r.End[0], r.End[1], r.End[2],
			cx, cy, cz, radius, sweep, plane, r.Feed, r.Extrude, r.Layer)
		if err != nil {
			return fmt.Errorf("insert segment %d: %w", n, err)
		}
		n++
	}

	diags := src.Diagnostics()
	for _, d := range diags {
		_, err := tx.ExecContext(ctx, `INSERT INTO diagnostics (run_id, line, severity, code, detail) VALUES (?, ?, ?, ?, ?)`,
			id, d.Line, d.Severity.String(), string(d.Code), d.Detail)
		if err != nil {
			return fmt.Errorf("insert diagnostic: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (id, segments, diagnostics) VALUES (?, ?, ?)`, id, n, len(diags)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return tx.Commit()
}

// Segments loads the records of run id in order.
func (s *SQLite) Segments(ctx context.Context, id string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT line, kind, rapid, x0, y0, z0, x1, y1, z1, cx, cy, cz, radius, sweep, plane, feed, extrude, layer
		FROM segments WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var (
			r             Record
			kind          string
			cx, cy, cz    sql.NullFloat64
			radius, sweep sql.NullFloat64
			plane         sql.NullString
		)
		err := rows.Scan(&r.Line, &kind, &r.Rapid,
			&r.Start[0], &r.Start[1], &r.Start[2], &r.End[0], &r.End[1], &r.End[2],
			&cx, &cy, &cz, &radius, &sweep, &plane, &r.Feed, &r.Extrude, &r.Layer)
		if err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if err := r.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, err
		}
		if r.Kind == path.KindArc {
			r.Center = &[3]float64{cx.Float64, cy.Float64, cz.Float64}
			r.Radius, r.Sweep, r.Plane = radius.Float64, sweep.Float64, plane.String
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Diagnostics loads the diagnostics of run id ordered by line.
func (s *SQLite) Diagnostics(ctx context.Context, id string) ([]diag.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT line, severity, code, detail FROM diagnostics WHERE run_id = ? ORDER BY line, rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var res []diag.Diagnostic
	for rows.Next() {
		var d diag.Diagnostic
		var sev, code string
		if err := rows.Scan(&d.Line, &sev, &code, &d.Detail); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if err := d.Severity.UnmarshalText([]byte(sev)); err != nil {
			return nil, err
		}
		d.Code = diag.Code(code)
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
