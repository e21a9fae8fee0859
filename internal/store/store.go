// Package store keeps a history of voxelisation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/strata/internal/store/migrations"
	"github.com/conneroisu/strata/internal/world"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// DBName is the database file created inside the store directory.
const DBName = "runs.db"

// ErrNotFound is returned by Get for an unknown run.
var ErrNotFound = errors.New("run not found")

// Run records one voxelisation.
type Run struct {
	ID          uuid.UUID
	WorldFile   string
	Property    string
	Resolution  [3]int
	Supersample int
	Output      string
	Min         float64
	Max         float64
	Mean        float64
	CreatedAt   time.Time
}

// NewRun describes a voxelisation of prop over vs whose volume is values.
func NewRun(worldFile, prop, output string, vs world.VoxelSpec, values []float64) *Run {
	lo, hi, mean := Summarise(values)
	return &Run{
		WorldFile:   worldFile,
		Property:    prop,
		Resolution:  [3]int{vs.XResolution, vs.YResolution, vs.ZResolution},
		Supersample: vs.Supersample,
		Output:      output,
		Min:         lo,
		Max:         hi,
		Mean:        mean,
	}
}

// Summarise returns the minimum, maximum and mean of values, all zero for
// an empty slice.
func Summarise(values []float64) (lo, hi, mean float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	return lo, hi, sum / float64(len(values))
}

// Store is the run history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	path := filepath.Join(dir, DBName)

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Path returns the database file name.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// Version returns the highest applied migration.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// Record saves r, assigning an ID and creation time when unset.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, world_file, property, x_res, y_res, z_res, supersample, output,
			min_value, max_value, mean_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID.String(), r.WorldFile, r.Property, r.Resolution[0], r.Resolution[1], r.Resolution[2],
		r.Supersample, r.Output, r.Min, r.Max, r.Mean, r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

const selectRuns = `
	SELECT id, world_file, property, x_res, y_res, z_res, supersample, output,
		min_value, max_value, mean_value, created_at
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		id      string
		created int64
	)
	err := sc.Scan(&id, &r.WorldFile, &r.Property, &r.Resolution[0], &r.Resolution[1], &r.Resolution[2],
		&r.Supersample, &r.Output, &r.Min, &r.Max, &r.Mean, &created)
	if err != nil {
		return Run{}, err
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("run id %q: %w", id, err)
	}
	r.CreatedAt = time.Unix(0, created)
	return r, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRuns+" WHERE id = ?", id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("getting run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := selectRuns + " ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
