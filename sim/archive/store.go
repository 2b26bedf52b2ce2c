// Package archive persists finished simulation runs in a SQLite database.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/watersupply-sim/watersupply-sim/sim"
	"github.com/watersupply-sim/watersupply-sim/sim/trace"
)

// ErrNotFound is returned when a run ID is not in the archive.
var ErrNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	created_at       INTEGER NOT NULL, -- unix nanoseconds, UTC
	horizon          INTEGER NOT NULL,
	config_yaml      TEXT NOT NULL,
	well_starts      INTEGER NOT NULL,
	well_hours       INTEGER NOT NULL,
	treatment_starts INTEGER NOT NULL,
	treatment_hours  INTEGER NOT NULL,
	transfer_starts  INTEGER NOT NULL,
	transfer_hours   INTEGER NOT NULL,
	unmet_demand     REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS blockages (
	run_id          TEXT NOT NULL REFERENCES runs(id),
	seq             INTEGER NOT NULL,
	hour            INTEGER NOT NULL,
	principal_level REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// RunSummary is the archived view of a run.
type RunSummary struct {
	ID          string
	CreatedAt   time.Time
	Horizon     int
	ConfigYAML  string
	Well        sim.UnitCounters
	Treatment   sim.UnitCounters
	Transfer    sim.UnitCounters
	UnmetDemand float64
}

// Store is a SQLite-backed run archive.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the archive at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Store{db: db, dbPath: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a fresh identifier for a run.
func NewRunID() string {
	return uuid.NewString()
}

// Save stores the run's configuration, counters and blockages under id.
func (s *Store) Save(ctx context.Context, id string, result *sim.Result) error {
	cfgYAML, err := result.Config.YAML()
	if err != nil {
		return err
	}
	m := result.Metrics

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, horizon, config_yaml,
		                  well_starts, well_hours, treatment_starts, treatment_hours,
		                  transfer_starts, transfer_hours, unmet_demand)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().UnixNano(), result.Config.HorizonHours, cfgYAML,
		m.Well.Starts, m.Well.HoursRunning, m.Treatment.Starts, m.Treatment.HoursRunning,
		m.Transfer.Starts, m.Transfer.HoursRunning, m.UnmetDemand)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", id, err)
	}

	for i, b := range m.Blockages {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO blockages (run_id, seq, hour, principal_level) VALUES (?, ?, ?, ?)`,
			id, i, b.Hour, b.PrincipalLevel)
		if err != nil {
			return fmt.Errorf("failed to insert blockage %d of run %s: %w", i, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", id, err)
	}
	logrus.Debugf("archived run %s (%d blockages) in %s", id, len(m.Blockages), s.dbPath)
	return nil
}

// Get returns the archived summary of a run.
func (s *Store) Get(ctx context.Context, id string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, horizon, config_yaml,
		       well_starts, well_hours, treatment_starts, treatment_hours,
		       transfer_starts, transfer_hours, unmet_demand
		FROM runs WHERE id = ?`, id)

	var rs RunSummary
	var createdAt int64
	err := row.Scan(&rs.ID, &createdAt, &rs.Horizon, &rs.ConfigYAML,
		&rs.Well.Starts, &rs.Well.HoursRunning, &rs.Treatment.Starts, &rs.Treatment.HoursRunning,
		&rs.Transfer.Starts, &rs.Transfer.HoursRunning, &rs.UnmetDemand)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run %s: %w", id, err)
	}
	rs.CreatedAt = time.Unix(0, createdAt).UTC()
	return &rs, nil
}

// Blockages returns the archived blockage events of a run in hour order.
func (s *Store) Blockages(ctx context.Context, id string) ([]trace.BlockageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT hour, principal_level FROM blockages WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query blockages: %w", err)
	}
	defer rows.Close()

	blockages := make([]trace.BlockageRecord, 0)
	for rows.Next() {
		var b trace.BlockageRecord
		if err := rows.Scan(&b.Hour, &b.PrincipalLevel); err != nil {
			return nil, fmt.Errorf("failed to scan blockage row: %w", err)
		}
		blockages = append(blockages, b)
	}
	return blockages, rows.Err()
}

// ListIDs returns the archived run IDs, newest first.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
