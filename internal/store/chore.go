package store

import (
	"database/sql"
	"fmt"

	"github.com/ellisbray/homebase/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var assignedTo sql.NullInt64
	var photoKey sql.NullString

	err := scanner.Scan(
		&c.ID, &c.HouseID, &c.Title, &c.Description, &assignedTo,
		&c.Minutes, &c.Status, &photoKey, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	if photoKey.Valid {
		c.PhotoKey = &photoKey.String
	}
	return &c, nil
}

const choreCols = `id, house_id, title, description, assigned_to, minutes, status, photo_key, created_at, updated_at`

func (s *ChoreStore) Create(houseID int64, title, description string, assignedTo *int64, minutes int) (*model.Chore, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO chores (house_id, title, description, assigned_to, minutes, status) VALUES (?, ?, ?, ?, ?, ?)`,
		houseID, title, description, aTo, minutes, model.ChoreStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id int64) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) List() ([]model.Chore, error) {
	rows, err := s.db.Query(`SELECT ` + choreCols + ` FROM chores ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()
	return collectChores(rows)
}

func (s *ChoreStore) ListByHouse(houseID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE house_id = ? ORDER BY created_at DESC`,
		houseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores by house: %w", err)
	}
	defer rows.Close()
	return collectChores(rows)
}

func (s *ChoreStore) ListByAssignee(userID int64) ([]model.Chore, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chores WHERE assigned_to = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores by assignee: %w", err)
	}
	defer rows.Close()
	return collectChores(rows)
}

func collectChores(rows *sql.Rows) ([]model.Chore, error) {
	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(id int64, title, description string, assignedTo *int64, minutes int) (*model.Chore, error) {
	var aTo sql.NullInt64
	if assignedTo != nil {
		aTo = sql.NullInt64{Int64: *assignedTo, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE chores SET title = ?, description = ?, assigned_to = ?, minutes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, aTo, minutes, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(id)
}

// SetStatus advances the chore through its lifecycle. A photo key may
// accompany the reviewing transition; pass nil to leave it untouched.
func (s *ChoreStore) SetStatus(id int64, status string, photoKey *string) (*model.Chore, error) {
	if photoKey != nil {
		_, err := s.db.Exec(
			`UPDATE chores SET status = ?, photo_key = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, *photoKey, id,
		)
		if err != nil {
			return nil, fmt.Errorf("set chore status: %w", err)
		}
	} else {
		_, err := s.db.Exec(
			`UPDATE chores SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
			status, id,
		)
		if err != nil {
			return nil, fmt.Errorf("set chore status: %w", err)
		}
	}
	return s.GetByID(id)
}

func (s *ChoreStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
