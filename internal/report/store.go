package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"forestsim/internal/config"
	"forestsim/internal/forest"
	"forestsim/internal/report/migrations"
)

const migrationTable = "schema_migrations"

// Run describes one stored batch.
type Run struct {
	ID        string
	CreatedAt time.Time
	Seed      int64
	Area      float64
	Trials    int
	Years     int
}

// Store persists trial series in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite result store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun stores the parameters and every trial series of a batch under a
// new run id.
func (s *Store) SaveRun(ctx context.Context, p *config.Parameters, seed int64, area float64, results []forest.TrialResult) (string, error) {
	if s == nil || s.sqlDB == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no trial results")
	}
	params, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode parameters: %w", err)
	}

	id := uuid.New().String()
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, seed, area, trials, years, params) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().UnixMilli(), seed, area, len(results), results[0].Series.Len(), string(params),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trial_years
		(run_id, trial, year, stocking_density, mean_height, survival_rate, carbon_sequestration, beating_up_costs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare trial rows: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		se := r.Series
		for y := 0; y < se.Len(); y++ {
			if _, err := stmt.ExecContext(ctx, id, r.Trial, y,
				se.StockingDensity[y], se.MeanHeight[y], se.SurvivalRate[y],
				se.CarbonSequestration[y], se.BeatingUpCosts[y],
			); err != nil {
				return "", fmt.Errorf("insert trial %d year %d: %w", r.Trial, y, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetRun returns the run header and its trial series ordered by trial.
func (s *Store) GetRun(ctx context.Context, id string) (Run, []forest.TrialResult, error) {
	if s == nil || s.sqlDB == nil {
		return Run{}, nil, fmt.Errorf("storage is not configured")
	}
	var run Run
	var created int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, created_at, seed, area, trials, years FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &created, &run.Seed, &run.Area, &run.Trials, &run.Years)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("get run: %w", err)
	}
	run.CreatedAt = time.UnixMilli(created).UTC()

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT trial, stocking_density, mean_height, survival_rate,
		carbon_sequestration, beating_up_costs FROM trial_years WHERE run_id = ? ORDER BY trial, year`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("list trial rows: %w", err)
	}
	defer rows.Close()

	byTrial := map[int]*forest.TrialResult{}
	for rows.Next() {
		var trial int
		var sd, mh, sr, cs, bc float64
		if err := rows.Scan(&trial, &sd, &mh, &sr, &cs, &bc); err != nil {
			return Run{}, nil, fmt.Errorf("scan trial row: %w", err)
		}
		r, ok := byTrial[trial]
		if !ok {
			r = &forest.TrialResult{Trial: trial, Series: forest.NewSeries(run.Years)}
			byTrial[trial] = r
		}
		r.Series.StockingDensity = append(r.Series.StockingDensity, sd)
		r.Series.MeanHeight = append(r.Series.MeanHeight, mh)
		r.Series.SurvivalRate = append(r.Series.SurvivalRate, sr)
		r.Series.CarbonSequestration = append(r.Series.CarbonSequestration, cs)
		r.Series.BeatingUpCosts = append(r.Series.BeatingUpCosts, bc)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate trial rows: %w", err)
	}

	trials := make([]int, 0, len(byTrial))
	for k := range byTrial {
		trials = append(trials, k)
	}
	sort.Ints(trials)
	results := make([]forest.TrialResult, 0, len(trials))
	for _, k := range trials {
		results = append(results, *byTrial[k])
	}
	return run, results, nil
}

// applyMigrations executes the Up section of each embedded migration at most
// once.
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS ` + migrationTable + ` (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		var found int
		err := sqlDB.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", file).Scan(&found)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %s: %w", file, err)
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(upSection(string(content))); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec("INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?)",
			file, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// upSection returns the SQL between "-- +migrate Up" and "-- +migrate Down".
func upSection(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	content = content[upIdx+len("-- +migrate Up"):]
	if downIdx := strings.Index(content, "-- +migrate Down"); downIdx != -1 {
		content = content[:downIdx]
	}
	return content
}
