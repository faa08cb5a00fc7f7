// Package store persists finalized trigger records to SQLite, one row
// per trigger plus a row of per-run metadata, so downstream ranking and
// coincidence tools can query them without re-running the search.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-gw/gw/events"
)

// ErrUnknownRun is returned when querying triggers for a run id that was
// never written.
var ErrUnknownRun = errors.New("store: unknown run")

// RunInfo is the per-run metadata stored next to the triggers.
type RunInfo struct {
	ID         uuid.UUID
	IFO        string
	StartTime  float64
	EndTime    float64
	SampleRate float64
}

// DB is a trigger database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if needed) a trigger database at path. Use
// ":memory:" for an ephemeral database in tests.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			ifo TEXT,
			start_time DOUBLE,
			end_time DOUBLE,
			sample_rate DOUBLE
		);
		CREATE TABLE IF NOT EXISTS triggers (
			id TEXT PRIMARY KEY,
			run_id TEXT,
			template_id INTEGER,
			time_index INTEGER,
			end_time_sec BIGINT,
			end_time_ns BIGINT,
			snr_real DOUBLE,
			snr_imag DOUBLE,
			snr DOUBLE,
			phase DOUBLE,
			chisq DOUBLE,
			chisq_dof INTEGER,
			bank_chisq DOUBLE,
			bank_chisq_dof INTEGER,
			auto_chisq DOUBLE,
			auto_chisq_dof INTEGER,
			sigma_sq DOUBLE,
			eff_distance DOUBLE,
			FOREIGN KEY(run_id) REFERENCES runs(id)
		);
		CREATE INDEX IF NOT EXISTS triggers_by_run ON triggers(run_id, end_time_sec, end_time_ns);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &DB{db}, nil
}

// WriteRun stores the run metadata and its triggers in one transaction.
func (db *DB) WriteRun(run RunInfo, records []events.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO runs (id, ifo, start_time, end_time, sample_rate) VALUES (?, ?, ?, ?, ?)",
		run.ID.String(), run.IFO, run.StartTime, run.EndTime, run.SampleRate,
	); err != nil {
		return fmt.Errorf("store: write run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO triggers (
			id, run_id, template_id, time_index, end_time_sec, end_time_ns,
			snr_real, snr_imag, snr, phase,
			chisq, chisq_dof, bank_chisq, bank_chisq_dof,
			auto_chisq, auto_chisq_dof, sigma_sq, eff_distance
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(
			r.ID.String(), run.ID.String(), r.TemplateID, r.TimeIndex,
			r.EndTimeSec, r.EndTimeNS,
			real(r.SNR), imag(r.SNR), r.SNRMag, r.Phase,
			r.Chisq, r.ChisqDOF, r.BankChisq, r.BankChisqDOF,
			r.AutoChisq, r.AutoChisqDOF, r.SigmaSq, r.EffDistance,
		); err != nil {
			return fmt.Errorf("store: write trigger %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Run reads the metadata of a stored run.
func (db *DB) Run(id uuid.UUID) (RunInfo, error) {
	var (
		run RunInfo
		raw string
	)
	err := db.QueryRow(
		"SELECT id, ifo, start_time, end_time, sample_rate FROM runs WHERE id = ?",
		id.String(),
	).Scan(&raw, &run.IFO, &run.StartTime, &run.EndTime, &run.SampleRate)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}
	if err != nil {
		return RunInfo{}, err
	}
	run.ID, err = uuid.Parse(raw)
	return run, err
}

// Triggers reads a run's triggers ordered by end time.
func (db *DB) Triggers(runID uuid.UUID) ([]events.Record, error) {
	if _, err := db.Run(runID); err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, template_id, time_index, end_time_sec, end_time_ns,
			snr_real, snr_imag, snr, phase,
			chisq, chisq_dof, bank_chisq, bank_chisq_dof,
			auto_chisq, auto_chisq_dof, sigma_sq, eff_distance
		FROM triggers WHERE run_id = ? ORDER BY end_time_sec, end_time_ns
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []events.Record
	for rows.Next() {
		var (
			r            events.Record
			raw          string
			snrRe, snrIm float64
		)
		if err := rows.Scan(
			&raw, &r.TemplateID, &r.TimeIndex, &r.EndTimeSec, &r.EndTimeNS,
			&snrRe, &snrIm, &r.SNRMag, &r.Phase,
			&r.Chisq, &r.ChisqDOF, &r.BankChisq, &r.BankChisqDOF,
			&r.AutoChisq, &r.AutoChisqDOF, &r.SigmaSq, &r.EffDistance,
		); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(raw); err != nil {
			return nil, err
		}
		r.SNR = complex(snrRe, snrIm)
		records = append(records, r)
	}
	return records, rows.Err()
}
