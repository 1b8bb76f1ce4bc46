package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ellisbray/homebase/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var houseID sql.NullInt64
	var periodStart, periodEnd sql.NullTime

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &houseID,
		&periodStart, &periodEnd, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if houseID.Valid {
		u.HouseID = &houseID.Int64
	}
	if periodStart.Valid {
		u.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		u.PeriodEnd = &periodEnd.Time
	}
	return &u, nil
}

const userCols = `id, email, name, role, house_id, period_start, period_end, created_at, updated_at`

func (s *UserStore) Create(email, passwordHash, name, role string, houseID *int64) (*model.User, error) {
	var hID sql.NullInt64
	if houseID != nil {
		hID = sql.NullInt64{Int64: *houseID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, name, role, house_id) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, name, role, hID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// PasswordHash returns the stored bcrypt hash for a user.
func (s *UserStore) PasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash, nil
}

// SetPeriod persists a personal work period window onto the user record.
func (s *UserStore) SetPeriod(id int64, start, end time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users SET period_start = ?, period_end = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		start.UTC(), end.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set user period: %w", err)
	}
	return nil
}

func (s *UserStore) SetHouse(id int64, houseID *int64) error {
	var hID sql.NullInt64
	if houseID != nil {
		hID = sql.NullInt64{Int64: *houseID, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE users SET house_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hID, id,
	)
	if err != nil {
		return fmt.Errorf("set user house: %w", err)
	}
	return nil
}

func (s *UserStore) ListByRole(role string) ([]model.User, error) {
	rows, err := s.db.Query(`SELECT `+userCols+` FROM users WHERE role = ? ORDER BY name ASC`, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ListManagersByHouse returns managers attached to a house, used for
// supervisory notifications.
func (s *UserStore) ListManagersByHouse(houseID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE role = ? AND house_id = ? ORDER BY name ASC`,
		model.RoleManager, houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list managers by house: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
