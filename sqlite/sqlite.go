// Package sqlite stores simulations in a SQLite database.
//
// A database holds any number of runs. Each run is a row of the runs table
// with its configuration, and each recorded step adds one row per particle
// to the particles table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PrincetonUniversity/vicsek"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	swarm_size    INTEGER NOT NULL,
	speed         REAL    NOT NULL,
	search_radius REAL    NOT NULL,
	noise         REAL    NOT NULL,
	radius        REAL    NOT NULL,
	separation    REAL    NOT NULL,
	steps         INTEGER NOT NULL,
	seed          INTEGER NOT NULL,
	created       TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS particles (
	run   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	step  INTEGER NOT NULL,
	idx   INTEGER NOT NULL,
	x     REAL    NOT NULL,
	y     REAL    NOT NULL,
	theta REAL    NOT NULL,
	PRIMARY KEY (run, step, idx)
);
`

// Open opens (creating if needed) the database at path and initializes its schema.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// A Sink records the steps of one run.
type Sink struct {
	db  *sql.DB
	ctx context.Context
	run int64
}

// NewSink registers a new run with configuration c and returns its sink.
func NewSink(ctx context.Context, db *sql.DB, c vicsek.Config) (*Sink, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO runs (swarm_size, speed, search_radius, noise, radius, separation, steps, seed, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.SwarmSize, c.Speed, c.SearchRadius, c.Noise, c.Domain.Radius, c.Domain.Separation,
		c.Steps, int64(c.Seed), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Sink{db: db, ctx: ctx, run: id}, nil
}

// Run returns the id of the run recorded by the sink.
func (s *Sink) Run() int64 {
	return s.run
}

// Record writes the swarm of one step in a single transaction.
func (s *Sink) Record(step int, swarm []vicsek.Particle) (err error) {
	tx, err := s.db.BeginTx(s.ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(s.ctx, `INSERT INTO particles (run, step, idx, x, y, theta) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range swarm {
		if _, err := stmt.ExecContext(s.ctx, s.run, step, i, p.X, p.Y, p.Theta); err != nil {
			return fmt.Errorf("failed to insert particle %d of step %d: %w", i, step, err)
		}
	}
	return tx.Commit()
}

// Load reads the swarm recorded for a step of a run.
func Load(ctx context.Context, db *sql.DB, run int64, step int) ([]vicsek.Particle, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT x, y, theta FROM particles WHERE run = ? AND step = ? ORDER BY idx`, run, step)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swarm []vicsek.Particle
	for rows.Next() {
		var p vicsek.Particle
		if err := rows.Scan(&p.X, &p.Y, &p.Theta); err != nil {
			return nil, err
		}
		swarm = append(swarm, p)
	}
	return swarm, rows.Err()
}

// Steps returns the number of steps recorded for a run.
func Steps(ctx context.Context, db *sql.DB, run int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT step) FROM particles WHERE run = ?`, run).Scan(&n)
	return n, err
}

// LoadConfig reads the configuration of a run.
func LoadConfig(ctx context.Context, db *sql.DB, run int64) (vicsek.Config, error) {
	var c vicsek.Config
	var seed int64
	err := db.QueryRowContext(ctx, `
		SELECT swarm_size, speed, search_radius, noise, radius, separation, steps, seed
		FROM runs WHERE id = ?`, run).Scan(
		&c.SwarmSize, &c.Speed, &c.SearchRadius, &c.Noise,
		&c.Domain.Radius, &c.Domain.Separation, &c.Steps, &seed)
	if err != nil {
		return c, fmt.Errorf("failed to load run %d: %w", run, err)
	}
	c.Seed = uint64(seed)
	return c, nil
}
