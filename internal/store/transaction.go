package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"famledger/internal/model"
)

// TransactionStore owns the personal transaction ledger. The family
// subsystem only reads from it, through SumExpenses.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionCols = `id, user_id, type, category, amount, description, occurred_at, created_at`

func scanTransaction(scanner interface{ Scan(...any) error }) (*model.Transaction, error) {
	var t model.Transaction
	err := scanner.Scan(&t.ID, &t.UserID, &t.Type, &t.Category, &t.Amount, &t.Description, &t.OccurredAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TransactionStore) Create(userID int64, txType, category string, amount float64, description string, occurredAt time.Time) (*model.Transaction, error) {
	result, err := s.db.Exec(
		`INSERT INTO transactions (user_id, type, category, amount, description, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, txType, category, amount, description, occurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TransactionStore) GetByID(id int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+transactionCols+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's most recent transactions, newest first.
func (s *TransactionStore) ListByUser(userID int64, limit int) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+transactionCols+` FROM transactions WHERE user_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

func (s *TransactionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// SumExpenses totals EXPENSE transactions for the given users and category
// dated on or after since. An empty user set sums to zero.
func (s *TransactionStore) SumExpenses(userIDs []int64, category string, since time.Time) (float64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?, ", len(userIDs)-1) + "?"
	args := make([]any, 0, len(userIDs)+3)
	args = append(args, model.TypeExpense, category, since)
	for _, id := range userIDs {
		args = append(args, id)
	}

	var total float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE type = ? AND category = ? AND occurred_at >= ? AND user_id IN (`+placeholders+`)`,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}
