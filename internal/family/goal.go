package family

import (
	"strings"
	"time"

	"famledger/internal/apperr"
	"famledger/internal/model"
	ws "famledger/internal/websocket"
)

// CreateGoal creates a shared goal with a zero running total. Admin-gated.
func (s *Service) CreateGoal(userID, familyID int64, title string, target float64, deadline *time.Time, category string) (*model.Goal, error) {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidState("title is required")
	}
	if target <= 0 {
		return nil, apperr.InvalidState("target must be positive")
	}

	g, err := s.goals.Create(familyID, title, target, deadline, strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.Internal("failed to create goal", err)
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("goal", "created", g.ID, map[string]any{
		"family_id": familyID,
	}))
	return g, nil
}

// ListGoals returns the family's goals. Any accepted member.
func (s *Service) ListGoals(userID, familyID int64) ([]model.Goal, error) {
	if _, err := s.requireMember(userID, familyID); err != nil {
		return nil, err
	}
	goals, err := s.goals.ListByFamily(familyID)
	if err != nil {
		return nil, apperr.Internal("failed to list goals", err)
	}
	return goals, nil
}

// UpdateGoal updates a shared goal's definition. The running total is not
// touched. Admin-gated.
func (s *Service) UpdateGoal(userID, familyID, goalID int64, title string, target float64, deadline *time.Time, category string) (*model.Goal, error) {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return nil, err
	}

	existing, err := s.goals.GetByID(goalID)
	if err != nil {
		return nil, apperr.Internal("failed to load goal", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return nil, apperr.NotFound("goal not found")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidState("title is required")
	}
	if target <= 0 {
		return nil, apperr.InvalidState("target must be positive")
	}

	g, err := s.goals.Update(goalID, title, target, deadline, strings.TrimSpace(category))
	if err != nil {
		return nil, apperr.Internal("failed to update goal", err)
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("goal", "updated", g.ID, map[string]any{
		"family_id": familyID,
	}))
	return g, nil
}

// DeleteGoal removes a shared goal and its contribution history. Admin-gated.
func (s *Service) DeleteGoal(userID, familyID, goalID int64) error {
	if _, err := s.requireMember(userID, familyID, adminRoles...); err != nil {
		return err
	}

	existing, err := s.goals.GetByID(goalID)
	if err != nil {
		return apperr.Internal("failed to load goal", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return apperr.NotFound("goal not found")
	}

	if err := s.goals.Delete(goalID); err != nil {
		return apperr.Internal("failed to delete goal", err)
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("goal", "deleted", goalID, map[string]any{
		"family_id": familyID,
	}))
	return nil
}

// Contribute adds a positive amount to a goal on behalf of any accepted
// member and returns the audit record. Overshoot past the target is
// allowed.
func (s *Service) Contribute(userID, familyID, goalID int64, amount float64) (*model.GoalContribution, *model.Goal, error) {
	if _, err := s.requireMember(userID, familyID); err != nil {
		return nil, nil, err
	}
	if amount <= 0 {
		return nil, nil, apperr.InvalidState("contribution amount must be positive")
	}

	existing, err := s.goals.GetByID(goalID)
	if err != nil {
		return nil, nil, apperr.Internal("failed to load goal", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return nil, nil, apperr.NotFound("goal not found")
	}

	c, err := s.goals.Contribute(goalID, userID, amount)
	if err != nil {
		return nil, nil, apperr.Internal("failed to record contribution", err)
	}

	g, err := s.goals.GetByID(goalID)
	if err != nil {
		return nil, nil, apperr.Internal("failed to reload goal", err)
	}

	s.hub.EmitToFamily(familyID, ws.NewMessage("goal", "contributed", goalID, map[string]any{
		"family_id": familyID,
		"user_id":   userID,
		"amount":    amount,
		"current":   g.CurrentAmount,
	}))
	return c, g, nil
}

// ListContributions returns a goal's full contribution history, oldest
// first. Any accepted member.
func (s *Service) ListContributions(userID, familyID, goalID int64) ([]model.GoalContribution, error) {
	if _, err := s.requireMember(userID, familyID); err != nil {
		return nil, err
	}

	existing, err := s.goals.GetByID(goalID)
	if err != nil {
		return nil, apperr.Internal("failed to load goal", err)
	}
	if existing == nil || existing.FamilyID != familyID {
		return nil, apperr.NotFound("goal not found")
	}

	contributions, err := s.goals.ListContributions(goalID)
	if err != nil {
		return nil, apperr.Internal("failed to list contributions", err)
	}
	return contributions, nil
}
