package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ellisbray/homebase/internal/model"
)

// PeriodStore persists work periods, per-user period ledgers, and the
// immutable chore-log entries aggregated by the balance engine.
type PeriodStore struct {
	db *sql.DB
}

func NewPeriodStore(db *sql.DB) *PeriodStore {
	return &PeriodStore{db: db}
}

func scanWorkPeriod(scanner interface{ Scan(...any) error }) (*model.WorkPeriod, error) {
	var p model.WorkPeriod
	var userID, houseID sql.NullInt64
	var processedAt sql.NullTime

	err := scanner.Scan(
		&p.ID, &p.Name, &p.StartDate, &p.EndDate, &userID, &houseID,
		&processedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		p.UserID = &userID.Int64
	}
	if houseID.Valid {
		p.HouseID = &houseID.Int64
	}
	if processedAt.Valid {
		p.CarryOverProcessedAt = &processedAt.Time
	}
	return &p, nil
}

func scanUserWorkPeriod(scanner interface{ Scan(...any) error }) (*model.UserWorkPeriod, error) {
	var u model.UserWorkPeriod
	err := scanner.Scan(
		&u.ID, &u.UserID, &u.WorkPeriodID, &u.RequiredMinutes,
		&u.CompletedMinutes, &u.CarryOverMinutes, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const workPeriodCols = `id, name, start_date, end_date, user_id, house_id, carry_over_processed_at, created_at, updated_at`
const userWorkPeriodCols = `id, user_id, work_period_id, required_minutes, completed_minutes, carry_over_minutes, created_at, updated_at`

// --- WorkPeriod methods ---

func (s *PeriodStore) CreateWorkPeriod(name string, start, end time.Time, userID, houseID *int64) (*model.WorkPeriod, error) {
	var uID, hID sql.NullInt64
	if userID != nil {
		uID = sql.NullInt64{Int64: *userID, Valid: true}
	}
	if houseID != nil {
		hID = sql.NullInt64{Int64: *houseID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO work_periods (name, start_date, end_date, user_id, house_id) VALUES (?, ?, ?, ?, ?)`,
		name, start.UTC(), end.UTC(), uID, hID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work period: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetWorkPeriodByID(id)
}

func (s *PeriodStore) GetWorkPeriodByID(id int64) (*model.WorkPeriod, error) {
	row := s.db.QueryRow(`SELECT `+workPeriodCols+` FROM work_periods WHERE id = ?`, id)
	p, err := scanWorkPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work period: %w", err)
	}
	return p, nil
}

// FindPersonalPeriod returns the user-owned period matching the exact window,
// if one exists. Used by the resolver's find-or-create.
func (s *PeriodStore) FindPersonalPeriod(userID int64, start, end time.Time) (*model.WorkPeriod, error) {
	row := s.db.QueryRow(
		`SELECT `+workPeriodCols+` FROM work_periods WHERE user_id = ? AND start_date = ? AND end_date = ?`,
		userID, start.UTC(), end.UTC(),
	)
	p, err := scanWorkPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find personal period: %w", err)
	}
	return p, nil
}

// GetHousePeriod returns the house's shared period, if configured. A house
// holds at most one period at a time; ReplaceHousePeriod enforces that.
func (s *PeriodStore) GetHousePeriod(houseID int64) (*model.WorkPeriod, error) {
	row := s.db.QueryRow(
		`SELECT `+workPeriodCols+` FROM work_periods WHERE house_id = ? ORDER BY start_date DESC LIMIT 1`,
		houseID,
	)
	p, err := scanWorkPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get house period: %w", err)
	}
	return p, nil
}

// ReplaceHousePeriod atomically removes any existing shared period for the
// house and installs the new one. Periods are never deleted elsewhere.
func (s *PeriodStore) ReplaceHousePeriod(houseID int64, name string, start, end time.Time) (*model.WorkPeriod, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM work_periods WHERE house_id = ?`, houseID); err != nil {
		return nil, fmt.Errorf("delete house period: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO work_periods (name, start_date, end_date, house_id) VALUES (?, ?, ?, ?)`,
		name, start.UTC(), end.UTC(), houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert house period: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetWorkPeriodByID(id)
}

// ListEndedUnprocessed returns periods whose end date has passed and whose
// carry-over sweep has not yet run.
func (s *PeriodStore) ListEndedUnprocessed(now time.Time) ([]model.WorkPeriod, error) {
	rows, err := s.db.Query(
		`SELECT `+workPeriodCols+` FROM work_periods
		 WHERE end_date < ? AND carry_over_processed_at IS NULL
		 ORDER BY end_date ASC`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list ended periods: %w", err)
	}
	defer rows.Close()

	var periods []model.WorkPeriod
	for rows.Next() {
		p, err := scanWorkPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work period: %w", err)
		}
		periods = append(periods, *p)
	}
	return periods, rows.Err()
}

func (s *PeriodStore) MarkCarryOverProcessed(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE work_periods SET carry_over_processed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark carry over processed: %w", err)
	}
	return nil
}

// --- UserWorkPeriod methods ---

// GetActiveUserWorkPeriod returns the user's ledger row whose parent period
// contains now, along with the period itself.
func (s *PeriodStore) GetActiveUserWorkPeriod(userID int64, now time.Time) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	row := s.db.QueryRow(
		`SELECT u.id, u.user_id, u.work_period_id, u.required_minutes, u.completed_minutes, u.carry_over_minutes, u.created_at, u.updated_at,
		        p.id, p.name, p.start_date, p.end_date, p.user_id, p.house_id, p.carry_over_processed_at, p.created_at, p.updated_at
		 FROM user_work_periods u
		 JOIN work_periods p ON p.id = u.work_period_id
		 WHERE u.user_id = ? AND ? BETWEEN p.start_date AND p.end_date
		 ORDER BY p.start_date DESC LIMIT 1`,
		userID, now.UTC(),
	)
	return scanUserPeriodJoin(row)
}

// GetPreviousUserWorkPeriod returns the user's most recent ledger row for a
// period that ended before the given instant.
func (s *PeriodStore) GetPreviousUserWorkPeriod(userID int64, before time.Time) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	row := s.db.QueryRow(
		`SELECT u.id, u.user_id, u.work_period_id, u.required_minutes, u.completed_minutes, u.carry_over_minutes, u.created_at, u.updated_at,
		        p.id, p.name, p.start_date, p.end_date, p.user_id, p.house_id, p.carry_over_processed_at, p.created_at, p.updated_at
		 FROM user_work_periods u
		 JOIN work_periods p ON p.id = u.work_period_id
		 WHERE u.user_id = ? AND p.end_date < ?
		 ORDER BY p.end_date DESC LIMIT 1`,
		userID, before.UTC(),
	)
	return scanUserPeriodJoin(row)
}

func scanUserPeriodJoin(row *sql.Row) (*model.UserWorkPeriod, *model.WorkPeriod, error) {
	var u model.UserWorkPeriod
	var p model.WorkPeriod
	var pUserID, pHouseID sql.NullInt64
	var processedAt sql.NullTime

	err := row.Scan(
		&u.ID, &u.UserID, &u.WorkPeriodID, &u.RequiredMinutes, &u.CompletedMinutes, &u.CarryOverMinutes, &u.CreatedAt, &u.UpdatedAt,
		&p.ID, &p.Name, &p.StartDate, &p.EndDate, &pUserID, &pHouseID, &processedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan user work period join: %w", err)
	}

	if pUserID.Valid {
		p.UserID = &pUserID.Int64
	}
	if pHouseID.Valid {
		p.HouseID = &pHouseID.Int64
	}
	if processedAt.Valid {
		p.CarryOverProcessedAt = &processedAt.Time
	}
	return &u, &p, nil
}

// EnsureUserWorkPeriod creates the (user, period) ledger row if absent and
// returns it. The insert relies on the unique constraint, so two concurrent
// resolutions converge on a single row instead of racing.
func (s *PeriodStore) EnsureUserWorkPeriod(userID, workPeriodID int64, requiredMinutes int) (*model.UserWorkPeriod, error) {
	_, err := s.db.Exec(
		`INSERT INTO user_work_periods (user_id, work_period_id, required_minutes)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, work_period_id) DO NOTHING`,
		userID, workPeriodID, requiredMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure user work period: %w", err)
	}
	return s.GetUserWorkPeriod(userID, workPeriodID)
}

func (s *PeriodStore) GetUserWorkPeriod(userID, workPeriodID int64) (*model.UserWorkPeriod, error) {
	row := s.db.QueryRow(
		`SELECT `+userWorkPeriodCols+` FROM user_work_periods WHERE user_id = ? AND work_period_id = ?`,
		userID, workPeriodID,
	)
	u, err := scanUserWorkPeriod(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user work period: %w", err)
	}
	return u, nil
}

func (s *PeriodStore) ListUserWorkPeriodsByPeriod(workPeriodID int64) ([]model.UserWorkPeriod, error) {
	rows, err := s.db.Query(
		`SELECT `+userWorkPeriodCols+` FROM user_work_periods WHERE work_period_id = ? ORDER BY user_id ASC`,
		workPeriodID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user work periods: %w", err)
	}
	defer rows.Close()

	var entries []model.UserWorkPeriod
	for rows.Next() {
		u, err := scanUserWorkPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user work period: %w", err)
		}
		entries = append(entries, *u)
	}
	return entries, rows.Err()
}

// SetCarryOver overwrites the carried balance on a ledger row. The carry-over
// sweep replaces rather than accumulates, which keeps re-runs idempotent.
func (s *PeriodStore) SetCarryOver(id int64, minutes int) error {
	_, err := s.db.Exec(
		`UPDATE user_work_periods SET carry_over_minutes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		minutes, id,
	)
	if err != nil {
		return fmt.Errorf("set carry over: %w", err)
	}
	return nil
}

// AddCompletedMinutes bumps the informational running total.
func (s *PeriodStore) AddCompletedMinutes(id int64, minutes int) error {
	_, err := s.db.Exec(
		`UPDATE user_work_periods SET completed_minutes = completed_minutes + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		minutes, id,
	)
	if err != nil {
		return fmt.Errorf("add completed minutes: %w", err)
	}
	return nil
}

// --- Chore log methods ---

func (s *PeriodStore) CreateChoreLog(userID int64, choreID *int64, workPeriodID int64, date time.Time, minutes int) (*model.ChoreLog, error) {
	var cID sql.NullInt64
	if choreID != nil {
		cID = sql.NullInt64{Int64: *choreID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chore_logs (user_id, chore_id, work_period_id, date, minutes) VALUES (?, ?, ?, ?, ?)`,
		userID, cID, workPeriodID, date.UTC(), minutes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT id, user_id, chore_id, work_period_id, date, minutes, created_at FROM chore_logs WHERE id = ?`, id,
	)
	var l model.ChoreLog
	var scannedChoreID sql.NullInt64
	if err := row.Scan(&l.ID, &l.UserID, &scannedChoreID, &l.WorkPeriodID, &l.Date, &l.Minutes, &l.CreatedAt); err != nil {
		return nil, fmt.Errorf("get chore log: %w", err)
	}
	if scannedChoreID.Valid {
		l.ChoreID = &scannedChoreID.Int64
	}
	return &l, nil
}

// SumLogMinutes returns the total logged minutes for a user with dates in the
// inclusive range [from, to].
func (s *PeriodStore) SumLogMinutes(userID int64, from, to time.Time) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(minutes), 0) FROM chore_logs WHERE user_id = ? AND date >= ? AND date <= ?`,
		userID, from.UTC(), to.UTC(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum log minutes: %w", err)
	}
	return total, nil
}

// SumLogMinutesByUser returns total logged minutes grouped by user for one
// work period. Input to the carry-over sweep.
func (s *PeriodStore) SumLogMinutesByUser(workPeriodID int64) (map[int64]int, error) {
	rows, err := s.db.Query(
		`SELECT user_id, COALESCE(SUM(minutes), 0) FROM chore_logs WHERE work_period_id = ? GROUP BY user_id`,
		workPeriodID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum log minutes by user: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var userID int64
		var minutes int
		if err := rows.Scan(&userID, &minutes); err != nil {
			return nil, fmt.Errorf("scan log total: %w", err)
		}
		totals[userID] = minutes
	}
	return totals, rows.Err()
}
