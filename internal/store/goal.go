package store

import (
	"database/sql"
	"fmt"
	"time"

	"famledger/internal/model"
)

type GoalStore struct {
	db *sql.DB
}

func NewGoalStore(db *sql.DB) *GoalStore {
	return &GoalStore{db: db}
}

const goalCols = `id, family_id, title, target_amount, current_amount, deadline, category, created_at, updated_at`
const contributionCols = `id, goal_id, user_id, amount, created_at`

func scanGoal(scanner interface{ Scan(...any) error }) (*model.Goal, error) {
	var g model.Goal
	err := scanner.Scan(&g.ID, &g.FamilyID, &g.Title, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.Category, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanContribution(scanner interface{ Scan(...any) error }) (*model.GoalContribution, error) {
	var c model.GoalContribution
	err := scanner.Scan(&c.ID, &c.GoalID, &c.UserID, &c.Amount, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *GoalStore) Create(familyID int64, title string, target float64, deadline *time.Time, category string) (*model.Goal, error) {
	result, err := s.db.Exec(
		`INSERT INTO goals (family_id, title, target_amount, deadline, category) VALUES (?, ?, ?, ?, ?)`,
		familyID, title, target, deadline, category,
	)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) GetByID(id int64) (*model.Goal, error) {
	row := s.db.QueryRow(`SELECT `+goalCols+` FROM goals WHERE id = ?`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *GoalStore) ListByFamily(familyID int64) ([]model.Goal, error) {
	rows, err := s.db.Query(
		`SELECT `+goalCols+` FROM goals WHERE family_id = ? ORDER BY created_at ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (s *GoalStore) Update(id int64, title string, target float64, deadline *time.Time, category string) (*model.Goal, error) {
	_, err := s.db.Exec(
		`UPDATE goals SET title = ?, target_amount = ?, deadline = ?, category = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, target, deadline, category, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return s.GetByID(id)
}

func (s *GoalStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

// Contribute appends an audit row and bumps the goal's running total in a
// single transaction. The audit row is never updated or deleted afterwards.
func (s *GoalStore) Contribute(goalID, userID int64, amount float64) (*model.GoalContribution, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO goal_contributions (goal_id, user_id, amount) VALUES (?, ?, ?)`,
		goalID, userID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert contribution: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE goals SET current_amount = current_amount + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount, goalID,
	); err != nil {
		return nil, fmt.Errorf("update goal total: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+contributionCols+` FROM goal_contributions WHERE id = ?`, id)
	return scanContribution(row)
}

func (s *GoalStore) ListContributions(goalID int64) ([]model.GoalContribution, error) {
	rows, err := s.db.Query(
		`SELECT `+contributionCols+` FROM goal_contributions WHERE goal_id = ? ORDER BY created_at ASC, id ASC`,
		goalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []model.GoalContribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, *c)
	}
	return contributions, rows.Err()
}
