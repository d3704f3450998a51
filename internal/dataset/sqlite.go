package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/starmap/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS points (
	id TEXT PRIMARY KEY,
	x REAL,
	y REAL,
	token_count INTEGER NOT NULL DEFAULT 0,
	label TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS clusters (
	id INTEGER PRIMARY KEY,
	label TEXT NOT NULL,
	x REAL,
	y REAL
);

CREATE TABLE IF NOT EXISTS cluster_members (
	cluster_id INTEGER NOT NULL,
	point_id TEXT NOT NULL,
	FOREIGN KEY (cluster_id) REFERENCES clusters(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cluster_members_cluster ON cluster_members(cluster_id);
`

// SQLiteSource reads the points, clusters and cluster_members tables of a projection database.
// The database is opened read-only.
type SQLiteSource struct {
	path string
}

// NewSQLiteSource returns a source for the database at path.
func NewSQLiteSource(path string) *SQLiteSource { return &SQLiteSource{path: path} }

// Path returns the database path.
func (s *SQLiteSource) Path() string { return s.path }

func readOnlyDSN(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

// Load reads every point in rowid order and every cluster with its members.
func (s *SQLiteSource) Load(ctx context.Context) (*models.Dataset, error) {
	started := time.Now()
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("sqlite3", readOnlyDSN(s.path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ds := &models.Dataset{}
	if ds.Points, err = loadPoints(ctx, db); err != nil {
		return nil, err
	}
	if ds.Clusters, err = loadClusters(ctx, db); err != nil {
		return nil, err
	}
	return finish(ds, s.path, started), nil
}

func loadPoints(ctx context.Context, db *sql.DB) ([]models.Point, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, x, y, token_count, label FROM points ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var out []models.Point
	for rows.Next() {
		var p models.Point
		var x, y sql.NullFloat64
		if err := rows.Scan(&p.ID, &x, &y, &p.TokenCount, &p.Label); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.X, p.Y = nullCoord(x), nullCoord(y)
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadClusters(ctx context.Context, db *sql.DB) ([]models.Cluster, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.id, c.label, c.x, c.y, m.point_id
		 FROM clusters c LEFT JOIN cluster_members m ON m.cluster_id = c.id
		 ORDER BY c.id, m.rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer rows.Close()

	var out []models.Cluster
	lastID := int64(-1)
	for rows.Next() {
		var id int64
		var label string
		var x, y sql.NullFloat64
		var member sql.NullString
		if err := rows.Scan(&id, &label, &x, &y, &member); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		if len(out) == 0 || id != lastID {
			out = append(out, models.Cluster{Label: label, X: nullCoord(x), Y: nullCoord(y)})
			lastID = id
		}
		if member.Valid {
			c := &out[len(out)-1]
			c.PointIDs = append(c.PointIDs, member.String)
		}
	}
	return out, rows.Err()
}

func nullCoord(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// WriteSQLite writes ds into a new or existing database at path, replacing its contents.
// Parent directories are created if they do not exist.
func WriteSQLite(ctx context.Context, path string, ds *models.Dataset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM cluster_members`, `DELETE FROM clusters`, `DELETE FROM points`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}
	}
	for _, p := range ds.Points {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO points (id, x, y, token_count, label) VALUES (?, ?, ?, ?, ?)`,
			p.ID, nullable(p.X), nullable(p.Y), p.TokenCount, p.Label,
		); err != nil {
			return fmt.Errorf("failed to insert point %s: %w", p.ID, err)
		}
	}
	for i, c := range ds.Clusters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (id, label, x, y) VALUES (?, ?, ?, ?)`,
			i+1, c.Label, nullable(c.X), nullable(c.Y),
		); err != nil {
			return fmt.Errorf("failed to insert cluster %s: %w", c.Label, err)
		}
		for _, id := range c.PointIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cluster_members (cluster_id, point_id) VALUES (?, ?)`, i+1, id,
			); err != nil {
				return fmt.Errorf("failed to insert cluster member: %w", err)
			}
		}
	}
	return tx.Commit()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
