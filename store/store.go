// Package store persists run history to SQLite so successive runs of the
// same book of work can be compared.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"contact-waterfall/models"
)

// RunRecord is one persisted run summary.
type RunRecord struct {
	RunID          string
	CreatedAt      time.Time
	TotalNPV       float64
	TotalSaving    float64
	TotalReduction float64
	Investment     float64
	ROIPct         float64
	IRRPct         float64
	PaybackMonths  float64
	Degraded       int
}

// InitDB opens (creating if needed) the run-history database.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id          TEXT NOT NULL UNIQUE,
		total_npv       REAL NOT NULL,
		total_saving    REAL NOT NULL,
		total_reduction REAL NOT NULL,
		investment      REAL NOT NULL,
		roi_pct         REAL NOT NULL,
		irr_pct         REAL NOT NULL,
		payback_months  REAL NOT NULL,
		degraded_count  INTEGER NOT NULL DEFAULT 0,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS run_outcomes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id         TEXT NOT NULL,
		initiative_id  TEXT NOT NULL,
		name           TEXT NOT NULL,
		layer          TEXT DEFAULT '',
		lever          TEXT DEFAULT '',
		fte_impact     REAL NOT NULL,
		annual_saving  REAL NOT NULL,
		pool_capped    INTEGER NOT NULL DEFAULT 0,
		safety_capped  INTEGER NOT NULL DEFAULT 0,
		mechanism      TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_run_outcomes_run ON run_outcomes(run_id);

	CREATE TABLE IF NOT EXISTS run_pools (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		lever         TEXT NOT NULL,
		ceiling_fte   REAL NOT NULL,
		consumed_fte  REAL NOT NULL,
		remaining_fte REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_pools_run ON run_pools(run_id);

	CREATE TABLE IF NOT EXISTS run_yearly (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id        TEXT NOT NULL,
		year          INTEGER NOT NULL,
		fte_reduction REAL NOT NULL,
		annual_saving REAL NOT NULL,
		npv           REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_yearly_run ON run_yearly(run_id);

	CREATE TABLE IF NOT EXISTS run_payloads (
		run_id     TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err = db.Exec(schema); err != nil {
		return nil, err
	}

	return db, nil
}

// SaveRun persists the run summary, per-initiative outcomes, pool
// utilization, the yearly projection and the full JSON payload in one
// transaction.
func SaveRun(db *sql.DB, res *models.RunResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, total_npv, total_saving, total_reduction, investment, roi_pct, irr_pct, payback_months, degraded_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.TotalNPV, res.TotalSaving, res.TotalReduction,
		res.TotalInvestment, res.ROIPct, res.IRRPct, res.PaybackMonths, len(res.Degraded),
	); err != nil {
		return err
	}

	for _, o := range res.Outcomes {
		if _, err := tx.Exec(
			`INSERT INTO run_outcomes (run_id, initiative_id, name, layer, lever, fte_impact, annual_saving, pool_capped, safety_capped, mechanism)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, o.ID, o.Name, o.Layer, string(o.Lever),
			o.FTEImpact, o.AnnualSaving, boolToInt(o.PoolCapped), boolToInt(o.SafetyCapped), o.Mechanism,
		); err != nil {
			return err
		}
	}

	for lever, u := range res.Utilization {
		if _, err := tx.Exec(
			`INSERT INTO run_pools (run_id, lever, ceiling_fte, consumed_fte, remaining_fte)
			 VALUES (?, ?, ?, ?, ?)`,
			res.RunID, string(lever), u.CeilingFTE, u.ConsumedFTE, u.RemainingFTE,
		); err != nil {
			return err
		}
	}

	for _, y := range res.Yearly {
		if _, err := tx.Exec(
			`INSERT INTO run_yearly (run_id, year, fte_reduction, annual_saving, npv)
			 VALUES (?, ?, ?, ?, ?)`,
			res.RunID, y.Year, y.FTEReduction, y.AnnualSaving, y.NPV,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(
		`INSERT INTO run_payloads (run_id, payload) VALUES (?, ?)`,
		res.RunID, string(payload),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetRecentRuns returns the newest run summaries, most recent first.
func GetRecentRuns(db *sql.DB, limit int) ([]RunRecord, error) {
	rows, err := db.Query(
		`SELECT run_id, total_npv, total_saving, total_reduction, investment, roi_pct, irr_pct, payback_months, degraded_count, created_at
		 FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.TotalNPV, &r.TotalSaving, &r.TotalReduction,
			&r.Investment, &r.ROIPct, &r.IRRPct, &r.PaybackMonths, &r.Degraded, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetRunPayload loads the full JSON result of a stored run.
func GetRunPayload(db *sql.DB, runID string) (*models.RunResult, error) {
	var payload string
	if err := db.QueryRow(`SELECT payload FROM run_payloads WHERE run_id = ?`, runID).Scan(&payload); err != nil {
		return nil, err
	}
	var res models.RunResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
