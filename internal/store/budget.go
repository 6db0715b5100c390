package store

import (
	"database/sql"
	"fmt"

	"famledger/internal/model"
)

type BudgetStore struct {
	db *sql.DB
}

func NewBudgetStore(db *sql.DB) *BudgetStore {
	return &BudgetStore{db: db}
}

const budgetCols = `id, family_id, category, limit_amount, period, created_at, updated_at`

func scanBudget(scanner interface{ Scan(...any) error }) (*model.Budget, error) {
	var b model.Budget
	err := scanner.Scan(&b.ID, &b.FamilyID, &b.Category, &b.LimitAmount, &b.Period, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *BudgetStore) Create(familyID int64, category string, limit float64, period string) (*model.Budget, error) {
	result, err := s.db.Exec(
		`INSERT INTO budgets (family_id, category, limit_amount, period) VALUES (?, ?, ?, ?)`,
		familyID, category, limit, period,
	)
	if err != nil {
		return nil, fmt.Errorf("insert budget: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BudgetStore) GetByID(id int64) (*model.Budget, error) {
	row := s.db.QueryRow(`SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *BudgetStore) ListByFamily(familyID int64) ([]model.Budget, error) {
	rows, err := s.db.Query(
		`SELECT `+budgetCols+` FROM budgets WHERE family_id = ? ORDER BY category ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (s *BudgetStore) Update(id int64, category string, limit float64, period string) (*model.Budget, error) {
	_, err := s.db.Exec(
		`UPDATE budgets SET category = ?, limit_amount = ?, period = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		category, limit, period, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}
	return s.GetByID(id)
}

func (s *BudgetStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// CategoryExists reports whether the family already has a budget for the
// category/period pair, ignoring excludeID (0 to check all rows).
func (s *BudgetStore) CategoryExists(familyID int64, category, period string, excludeID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM budgets WHERE family_id = ? AND category = ? AND period = ? AND id != ?`,
		familyID, category, period, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("budget category exists: %w", err)
	}
	return n > 0, nil
}
