/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements all persistence interfaces (WorkerStore, WorkRecordStore,
  EnrollmentStore, OverrideStore, EventLog) using SQLite. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  workers:              Worker identity and classification
  work_records:         Raw attendance and registration rows
  insurance_enrollments: Per (worker, site, month) rows with per-type
                        acquisition/loss dates and status
  manual_overrides:     Persisted manual eligibility decisions
  enrollment_events:    Append-only acquisition/loss audit trail

MONTH LOOKUPS:
  Month queries take the union of the date range [start, nextStart) and
  the registration_month tag in one WHERE clause, so rows saved without
  canonical dates are still found.

WRITE SEMANTICS:
  ReplaceMonth is delete-then-insert and deliberately NOT wrapped in a
  database transaction: the accepted recovery for a partial failure is an
  idempotent re-save of the whole month. Enrollments are upserted via
  INSERT OR REPLACE; enrollment_events has no UPDATE or DELETE path.

PRECISION:
  Hours, wages and tax figures are stored as decimal strings, never
  floats. Dates are stored as "2006-01-02" strings at day granularity.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL for
  better read concurrency and crash recovery.

USAGE:
  st, err := sqlite.New("./data/insurance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - insurance/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/insurance-engine/insurance"
)

const dateLayout = "2006-01-02"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		worker_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		resident_number TEXT NOT NULL,
		nationality_code TEXT,
		residence_status_code TEXT,
		worker_type TEXT NOT NULL DEFAULT 'daily',
		job_code TEXT,
		contact_number TEXT
	);

	CREATE TABLE IF NOT EXISTS work_records (
		record_id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		work_hours TEXT NOT NULL DEFAULT '0',
		daily_wage TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'attendance',
		registration_month TEXT NOT NULL
	);

	-- Month lookups union the date range and the registration_month tag.
	CREATE INDEX IF NOT EXISTS idx_work_records_worker_site_date
		ON work_records(worker_id, site_id, work_date);
	CREATE INDEX IF NOT EXISTS idx_work_records_worker_site_month
		ON work_records(worker_id, site_id, registration_month);
	CREATE INDEX IF NOT EXISTS idx_work_records_site_date
		ON work_records(site_id, work_date);

	CREATE TABLE IF NOT EXISTS insurance_enrollments (
		worker_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		national_pension_acquisition_date TEXT,
		national_pension_loss_date TEXT,
		national_pension_status TEXT,
		health_insurance_acquisition_date TEXT,
		health_insurance_loss_date TEXT,
		health_insurance_status TEXT,
		employment_insurance_acquisition_date TEXT,
		employment_insurance_loss_date TEXT,
		employment_insurance_status TEXT,
		industrial_accident_acquisition_date TEXT,
		industrial_accident_loss_date TEXT,
		industrial_accident_status TEXT,
		monthly_wage TEXT NOT NULL DEFAULT '0',
		manual_reason TEXT,
		enrollment_status TEXT,
		user_confirmed INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT,
		PRIMARY KEY (worker_id, site_id, year_month)
	);

	CREATE INDEX IF NOT EXISTS idx_enrollments_site
		ON insurance_enrollments(site_id);

	CREATE TABLE IF NOT EXISTS manual_overrides (
		worker_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		national_pension_status TEXT,
		health_insurance_status TEXT,
		employment_insurance_status TEXT,
		industrial_accident_status TEXT,
		reason TEXT,
		updated_at TEXT,
		PRIMARY KEY (worker_id, site_id, year_month)
	);

	-- Append-only: no UPDATE or DELETE path exists for this table.
	CREATE TABLE IF NOT EXISTS enrollment_events (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		site_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		insurance_type TEXT NOT NULL,
		action TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		status TEXT,
		reason TEXT,
		recorded_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_worker_site
		ON enrollment_events(worker_id, site_id, recorded_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Compile-time interface checks.
var (
	_ insurance.WorkerStore     = (*Store)(nil)
	_ insurance.WorkRecordStore = (*Store)(nil)
	_ insurance.EnrollmentStore = (*Store)(nil)
	_ insurance.OverrideStore   = (*Store)(nil)
	_ insurance.EventLog        = (*Store)(nil)
)

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func parseDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// WORKER STORE
// =============================================================================

func (s *Store) GetWorker(ctx context.Context, id insurance.WorkerID) (*insurance.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT worker_id, name, resident_number, COALESCE(nationality_code, ''),
		       COALESCE(residence_status_code, ''), worker_type,
		       COALESCE(job_code, ''), COALESCE(contact_number, '')
		FROM workers WHERE worker_id = ?`, id)

	var w insurance.Worker
	err := row.Scan(&w.ID, &w.Name, &w.ResidentNumber, &w.Nationality,
		&w.ResidenceCode, &w.Category, &w.JobCode, &w.ContactNumber)
	if err == sql.ErrNoRows {
		return nil, insurance.ErrWorkerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) PutWorker(ctx context.Context, w *insurance.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO workers
		(worker_id, name, resident_number, nationality_code, residence_status_code,
		 worker_type, job_code, contact_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.ResidentNumber, nullString(w.Nationality),
		nullString(w.ResidenceCode), w.Category, nullString(w.JobCode),
		nullString(w.ContactNumber))
	return err
}

func (s *Store) ListWorkers(ctx context.Context) ([]*insurance.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT worker_id, name, resident_number, COALESCE(nationality_code, ''),
		       COALESCE(residence_status_code, ''), worker_type,
		       COALESCE(job_code, ''), COALESCE(contact_number, '')
		FROM workers ORDER BY worker_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*insurance.Worker
	for rows.Next() {
		var w insurance.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.ResidentNumber, &w.Nationality,
			&w.ResidenceCode, &w.Category, &w.JobCode, &w.ContactNumber); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, rows.Err()
}

// =============================================================================
// WORK RECORD STORE
// =============================================================================

func (s *Store) ListMonth(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) ([]insurance.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, worker_id, site_id, work_date, work_hours, daily_wage,
		       status, registration_month
		FROM work_records
		WHERE worker_id = ? AND site_id = ?
		  AND ((work_date >= ? AND work_date < ?) OR registration_month = ?)
		ORDER BY work_date`,
		workerID, siteID,
		month.Start().Format(dateLayout), month.NextStart().Format(dateLayout),
		month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]insurance.WorkRecord, error) {
	var out []insurance.WorkRecord
	for rows.Next() {
		var (
			r        insurance.WorkRecord
			date     string
			hours    string
			wage     string
			monthTag string
		)
		if err := rows.Scan(&r.ID, &r.WorkerID, &r.SiteID, &date, &hours, &wage, &r.Kind, &monthTag); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bad work_date %q: %w", date, err)
		}
		r.Date = d
		r.Hours = parseDecimal(hours)
		r.Wage = parseDecimal(wage)
		if ym, err := insurance.ParseYearMonth(monthTag); err == nil {
			r.RegistrationMonth = ym
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) FirstWorkDate(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT MIN(work_date) FROM work_records
		WHERE worker_id = ? AND site_id = ? AND status != ?`,
		workerID, siteID, insurance.KindRegistration)

	var ns sql.NullString
	if err := row.Scan(&ns); err != nil {
		return nil, err
	}
	return parseDate(ns)
}

func (s *Store) WorkersForMonth(ctx context.Context, siteID insurance.SiteID, month insurance.YearMonth) ([]insurance.WorkerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT worker_id FROM work_records
		WHERE site_id = ?
		  AND ((work_date >= ? AND work_date < ?) OR registration_month = ?)
		ORDER BY worker_id`,
		siteID,
		month.Start().Format(dateLayout), month.NextStart().Format(dateLayout),
		month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []insurance.WorkerID
	for rows.Next() {
		var id insurance.WorkerID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// ReplaceMonth deletes then inserts. Deliberately not wrapped in a
// database transaction: recovery from a partial failure is an idempotent
// re-save of the whole month.
func (s *Store) ReplaceMonth(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth, records []insurance.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM work_records
		WHERE worker_id = ? AND site_id = ?
		  AND ((work_date >= ? AND work_date < ?) OR registration_month = ?)`,
		workerID, siteID,
		month.Start().Format(dateLayout), month.NextStart().Format(dateLayout),
		month.String())
	if err != nil {
		return err
	}

	for _, r := range records {
		tag := r.RegistrationMonth
		if tag.IsZero() {
			tag = month
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO work_records
			(record_id, worker_id, site_id, work_date, work_hours, daily_wage,
			 status, registration_month)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.WorkerID, r.SiteID, r.Date.Format(dateLayout),
			r.Hours.String(), r.Wage.String(), r.Kind, tag.String())
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// ENROLLMENT STORE
// =============================================================================

const enrollmentColumns = `
	worker_id, site_id, year_month,
	national_pension_acquisition_date, national_pension_loss_date, national_pension_status,
	health_insurance_acquisition_date, health_insurance_loss_date, health_insurance_status,
	employment_insurance_acquisition_date, employment_insurance_loss_date, employment_insurance_status,
	industrial_accident_acquisition_date, industrial_accident_loss_date, industrial_accident_status,
	monthly_wage, manual_reason, enrollment_status, user_confirmed, updated_at`

func (s *Store) GetEnrollment(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) (*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM insurance_enrollments
		WHERE worker_id = ? AND site_id = ? AND year_month = ?`,
		workerID, siteID, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanEnrollments(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpsertEnrollment(ctx context.Context, e *insurance.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []any{e.WorkerID, e.SiteID, e.Month.String()}
	for _, t := range insurance.AllInsuranceTypes() {
		line := e.Line(t)
		args = append(args, nullDate(line.AcquisitionDate), nullDate(line.LossDate), nullString(string(line.Status)))
	}
	args = append(args,
		e.MonthlyWage.String(), nullString(e.ManualReason),
		nullString(string(e.Status)), e.UserConfirmed,
		e.UpdatedAt.UTC().Format(time.RFC3339))

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO insurance_enrollments (`+enrollmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...)
	return err
}

func (s *Store) ListEnrollments(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) ([]*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM insurance_enrollments
		WHERE worker_id = ? AND site_id = ?
		ORDER BY year_month`,
		workerID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnrollments(rows)
}

func (s *Store) ListSiteEnrollments(ctx context.Context, siteID insurance.SiteID) ([]*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+enrollmentColumns+`
		FROM insurance_enrollments
		WHERE site_id = ?
		ORDER BY year_month, worker_id`,
		siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnrollments(rows)
}

func scanEnrollments(rows *sql.Rows) ([]*insurance.Enrollment, error) {
	var out []*insurance.Enrollment
	for rows.Next() {
		var (
			e         insurance.Enrollment
			monthStr  string
			wage      string
			reason    sql.NullString
			status    sql.NullString
			updatedAt sql.NullString
			dates     [4][2]sql.NullString
			codes     [4]sql.NullString
		)
		if err := rows.Scan(&e.WorkerID, &e.SiteID, &monthStr,
			&dates[0][0], &dates[0][1], &codes[0],
			&dates[1][0], &dates[1][1], &codes[1],
			&dates[2][0], &dates[2][1], &codes[2],
			&dates[3][0], &dates[3][1], &codes[3],
			&wage, &reason, &status, &e.UserConfirmed, &updatedAt); err != nil {
			return nil, err
		}

		ym, err := insurance.ParseYearMonth(monthStr)
		if err != nil {
			return nil, err
		}
		e.Month = ym
		e.MonthlyWage = parseDecimal(wage)
		e.ManualReason = reason.String
		e.Status = insurance.EnrollmentStatus(status.String)
		if updatedAt.Valid {
			if ts, err := time.Parse(time.RFC3339, updatedAt.String); err == nil {
				e.UpdatedAt = ts
			}
		}

		e.Lines = make(map[insurance.InsuranceType]insurance.EnrollmentLine)
		for i, t := range insurance.AllInsuranceTypes() {
			acq, err := parseDate(dates[i][0])
			if err != nil {
				return nil, err
			}
			loss, err := parseDate(dates[i][1])
			if err != nil {
				return nil, err
			}
			if acq == nil && loss == nil && !codes[i].Valid {
				continue
			}
			e.Lines[t] = insurance.EnrollmentLine{
				AcquisitionDate: acq,
				LossDate:        loss,
				Status:          insurance.StatusCode(codes[i].String),
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// =============================================================================
// OVERRIDE STORE
// =============================================================================

func (s *Store) GetOverride(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) (*insurance.ManualOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT national_pension_status, health_insurance_status,
		       employment_insurance_status, industrial_accident_status,
		       COALESCE(reason, ''), COALESCE(updated_at, '')
		FROM manual_overrides
		WHERE worker_id = ? AND site_id = ? AND year_month = ?`,
		workerID, siteID, month.String())

	var (
		codes     [4]sql.NullString
		reason    string
		updatedAt string
	)
	err := row.Scan(&codes[0], &codes[1], &codes[2], &codes[3], &reason, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	o := &insurance.ManualOverride{
		WorkerID: workerID,
		SiteID:   siteID,
		Month:    month,
		Statuses: make(map[insurance.InsuranceType]insurance.StatusCode),
		Reason:   reason,
	}
	for i, t := range insurance.AllInsuranceTypes() {
		if codes[i].Valid && codes[i].String != "" {
			o.Statuses[t] = insurance.StatusCode(codes[i].String)
		}
	}
	if updatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
			o.UpdatedAt = ts
		}
	}
	return o, nil
}

func (s *Store) PutOverride(ctx context.Context, o *insurance.ManualOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := []any{o.WorkerID, o.SiteID, o.Month.String()}
	for _, t := range insurance.AllInsuranceTypes() {
		if code, ok := o.Statuses[t]; ok {
			args = append(args, string(code))
		} else {
			args = append(args, nil)
		}
	}
	args = append(args, nullString(o.Reason), o.UpdatedAt.UTC().Format(time.RFC3339))

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO manual_overrides
		(worker_id, site_id, year_month,
		 national_pension_status, health_insurance_status,
		 employment_insurance_status, industrial_accident_status,
		 reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...)
	return err
}

func (s *Store) DeleteOverride(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM manual_overrides
		WHERE worker_id = ? AND site_id = ? AND year_month = ?`,
		workerID, siteID, month.String())
	return err
}

// =============================================================================
// EVENT LOG - Append-only
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, ev insurance.EnrollmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollment_events
		(id, worker_id, site_id, year_month, insurance_type, action,
		 effective_date, status, reason, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.WorkerID, ev.SiteID, ev.Month.String(), ev.Type, ev.Action,
		ev.EffectiveDate.Format(dateLayout), nullString(string(ev.Status)),
		nullString(ev.Reason), ev.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *Store) ListEvents(ctx context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) ([]insurance.EnrollmentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, worker_id, site_id, year_month, insurance_type, action,
		       effective_date, COALESCE(status, ''), COALESCE(reason, ''), recorded_at
		FROM enrollment_events
		WHERE worker_id = ? AND site_id = ?
		ORDER BY recorded_at, id`,
		workerID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []insurance.EnrollmentEvent
	for rows.Next() {
		var (
			ev        insurance.EnrollmentEvent
			monthStr  string
			effective string
			recorded  string
		)
		if err := rows.Scan(&ev.ID, &ev.WorkerID, &ev.SiteID, &monthStr, &ev.Type,
			&ev.Action, &effective, &ev.Status, &ev.Reason, &recorded); err != nil {
			return nil, err
		}
		if ym, err := insurance.ParseYearMonth(monthStr); err == nil {
			ev.Month = ym
		}
		if d, err := time.Parse(dateLayout, effective); err == nil {
			ev.EffectiveDate = d
		}
		if ts, err := time.Parse(time.RFC3339, recorded); err == nil {
			ev.RecordedAt = ts
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
