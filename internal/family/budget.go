package family

import (
	"strings"
	"time"

	"famledger/internal/apperr"
	"famledger/internal/model"
	ws "famledger/internal/websocket"
)

// spent derives the live total of the accepted members' EXPENSE
// transactions for the budget's category since the start of its current
// period. The figure is never stored.
func (s *Service) spent(b *model.Budget, now time.Time) (float64, error) {
	userIDs, err := s.families.AcceptedUserIDs(b.FamilyID)
	if err != nil {
		return 0, apperr.Internal("failed to list members", err)
	}
	total, err := s.transactions.SumExpenses(userIDs, b.Category, PeriodStart(b.Period, now))
	if err != nil {
		return 0, apperr.Internal("failed to compute spending", err)
	}
	return total, nil
}

func (s *Service) withSpent(b *model.Budget) (*model.Budget, error) {
	total, err := s.spent(b, time.Now())
	if err != nil {
		return nil, err
	}
	b.Spent = total
	return b, nil
}

// CreateBudget creates a shared budget. Admin-gated (CREATOR or ADMIN).
func (s *Service) CreateBudget(userID, familyID int64, category string, limit float64, period string) (*model.Budget, error) {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return nil, err
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.InvalidState("category is required")
	}
	if limit <= 0 {
		return nil, apperr.InvalidState("limit must be positive")
	}
	if !validPeriod(period) {
		return nil, apperr.InvalidState("period must be WEEKLY, MONTHLY, or YEARLY")
	}

	exists, err := s.budgets.CategoryExists(familyID, category, period, 0)
	if err != nil {
		return nil, apperr.Internal("failed to check budget category", err)
	}
	if exists {
		return nil, apperr.Conflict("a budget for this category and period already exists")
	}

	b, err := s.budgets.Create(familyID, category, limit, period)
	if err != nil {
		return nil, apperr.Internal("failed to create budget", err)
	}
	if b, err = s.withSpent(b); err != nil {
		return nil, err
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("budget", "created", b.ID, map[string]any{
		"family_id": familyID,
	}))
	return b, nil
}

// ListBudgets returns the family's budgets with spent recomputed fresh on
// every read. Any accepted member.
func (s *Service) ListBudgets(userID, familyID int64) ([]model.Budget, error) {
	if _, err := s.requireMember(userID, familyID); err != nil {
		return nil, err
	}

	budgets, err := s.budgets.ListByFamily(familyID)
	if err != nil {
		return nil, apperr.Internal("failed to list budgets", err)
	}

	now := time.Now()
	for i := range budgets {
		total, err := s.spent(&budgets[i], now)
		if err != nil {
			return nil, err
		}
		budgets[i].Spent = total
	}
	return budgets, nil
}

// UpdateBudget updates a shared budget and re-derives spent. Admin-gated.
func (s *Service) UpdateBudget(userID, familyID, budgetID int64, category string, limit float64, period string) (*model.Budget, error) {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return nil, err
	}

	existing, err := s.budgets.GetByID(budgetID)
	if err != nil {
		return nil, apperr.Internal("failed to load budget", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return nil, apperr.NotFound("budget not found")
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.InvalidState("category is required")
	}
	if limit <= 0 {
		return nil, apperr.InvalidState("limit must be positive")
	}
	if !validPeriod(period) {
		return nil, apperr.InvalidState("period must be WEEKLY, MONTHLY, or YEARLY")
	}

	exists, err := s.budgets.CategoryExists(familyID, category, period, budgetID)
	if err != nil {
		return nil, apperr.Internal("failed to check budget category", err)
	}
	if exists {
		return nil, apperr.Conflict("a budget for this category and period already exists")
	}

	b, err := s.budgets.Update(budgetID, category, limit, period)
	if err != nil {
		return nil, apperr.Internal("failed to update budget", err)
	}
	if b, err = s.withSpent(b); err != nil {
		return nil, err
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("budget", "updated", b.ID, map[string]any{
		"family_id": familyID,
	}))
	return b, nil
}

// DeleteBudget removes a shared budget. Admin-gated.
func (s *Service) DeleteBudget(userID, familyID, budgetID int64) error {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return err
	}

	existing, err := s.budgets.GetByID(budgetID)
	if err != nil {
		return apperr.Internal("failed to load budget", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return apperr.NotFound("budget not found")
	}

	if err := s.budgets.Delete(budgetID); err != nil {
		return apperr.Internal("failed to delete budget", err)
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("budget", "deleted", budgetID, map[string]any{
		"family_id": familyID,
	}))
	return nil
}
