// Package family implements the shared-family subsystem: the membership
// lifecycle (room-code join requests, accept/reject, removal), the
// role/permission gate in front of every shared mutation, and the shared
// budget and goal services with their live aggregates. State changes are
// fanned out over the websocket hub after the store write commits; delivery
// is best-effort and clients re-fetch for truth.
package family

import (
	"context"
	"log/slog"
	"strings"

	"famledger/internal/apperr"
	"famledger/internal/model"
	"famledger/internal/roomcode"
	"famledger/internal/store"
	ws "famledger/internal/websocket"
)

type Service struct {
	families     *store.FamilyStore
	budgets      *store.BudgetStore
	goals        *store.GoalStore
	transactions *store.TransactionStore
	hub          *ws.Hub
	logger       *slog.Logger
}

func NewService(
	families *store.FamilyStore,
	budgets *store.BudgetStore,
	goals *store.GoalStore,
	transactions *store.TransactionStore,
	hub *ws.Hub,
	logger *slog.Logger,
) *Service {
	return &Service{
		families:     families,
		budgets:      budgets,
		goals:        goals,
		transactions: transactions,
		hub:          hub,
		logger:       logger,
	}
}

// adminRoles may mutate shared budgets and goals. Any ACCEPTED member may
// read them and contribute to goals.
var adminRoles = []string{model.RoleCreator, model.RoleAdmin}

// requireMember is the permission gate: the user must hold an ACCEPTED
// membership in the family, and when roles are given, one of those roles.
func (s *Service) requireMember(userID, familyID int64, roles ...string) (*model.FamilyMember, error) {
	m, err := s.families.GetMember(familyID, userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if m == nil || m.Status != model.StatusAccepted {
		return nil, apperr.Unauthorized("not an accepted member of this family")
	}
	if len(roles) > 0 {
		for _, r := range roles {
			if m.Role == r {
				return m, nil
			}
		}
		return nil, apperr.Unauthorized("insufficient role for this operation")
	}
	return m, nil
}

// requireCreator loads the family and checks the acting user created it.
func (s *Service) requireCreator(userID, familyID int64) (*model.Family, error) {
	f, err := s.families.GetByID(familyID)
	if err != nil {
		return nil, apperr.Internal("failed to load family", err)
	}
	if f == nil {
		return nil, apperr.NotFound("family not found")
	}
	if f.CreatorID != userID {
		return nil, apperr.Unauthorized("only the family creator may do this")
	}
	return f, nil
}

// CreateFamily creates a family with a fresh room code and the caller as
// its CREATOR (ACCEPTED, VIEW_EDIT).
func (s *Service) CreateFamily(userID int64, name string) (*model.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidState("family name is required")
	}

	existing, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("already a member of a family")
	}

	code, err := roomcode.Generate(context.Background(), s.families.RoomCodeExists)
	if err != nil {
		return nil, apperr.Internal("failed to generate room code", err)
	}

	f, err := s.families.Create(name, code, userID)
	if err != nil {
		return nil, apperr.Internal("failed to create family", err)
	}

	s.logger.Info("family created", "family_id", f.ID, "creator_id", userID)
	return f, nil
}

// RequestToJoin creates (or re-opens) a PENDING membership for the family
// behind the room code and notifies the creator.
func (s *Service) RequestToJoin(userID int64, code, permissions string) (*model.FamilyMember, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !validPermissions(permissions) {
		return nil, apperr.InvalidState("permissions must be VIEW_ONLY or VIEW_EDIT")
	}

	f, err := s.families.GetByRoomCode(code)
	if err != nil {
		return nil, apperr.Internal("failed to look up room code", err)
	}
	if f == nil {
		return nil, apperr.NotFound("no family with that room code")
	}
	if !f.IsActive {
		return nil, apperr.InvalidState("family is no longer active")
	}

	accepted, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if accepted != nil && accepted.FamilyID != f.ID {
		return nil, apperr.Conflict("already a member of another family")
	}

	existing, err := s.families.GetMember(f.ID, userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}

	var member *model.FamilyMember
	switch {
	case existing == nil:
		member, err = s.families.CreateMember(f.ID, userID, model.RoleMember, permissions, model.StatusPending)
		if err != nil {
			return nil, apperr.Internal("failed to create join request", err)
		}
	case existing.Status == model.StatusAccepted:
		return nil, apperr.Conflict("already a member of this family")
	case existing.Status == model.StatusPending:
		return nil, apperr.Conflict("join request already pending")
	default: // REJECTED — re-request with the newly chosen permissions
		member, err = s.families.ReopenRequest(existing.ID, permissions)
		if err != nil {
			return nil, apperr.Internal("failed to re-open join request", err)
		}
	}

	s.hub.EmitToUser(f.CreatorID, ws.NewMessage("member", "request", member.ID, map[string]any{
		"family_id": f.ID,
		"user_id":   userID,
	}))
	return member, nil
}

// PendingRequests lists the PENDING join requests for the caller's family.
// Creator only.
func (s *Service) PendingRequests(userID int64) ([]model.MemberDetail, error) {
	m, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if m == nil || m.Role != model.RoleCreator {
		return nil, apperr.Unauthorized("only the family creator may list requests")
	}
	requests, err := s.families.ListMembers(m.FamilyID, model.StatusPending)
	if err != nil {
		return nil, apperr.Internal("failed to list requests", err)
	}
	return requests, nil
}

// AcceptRequest transitions a PENDING request to ACCEPTED, preserving the
// permission level the requester chose. Creator only.
func (s *Service) AcceptRequest(actingUserID, memberID int64) (*model.FamilyMember, error) {
	target, err := s.families.GetMemberByID(memberID)
	if err != nil {
		return nil, apperr.Internal("failed to load request", err)
	}
	if target == nil {
		return nil, apperr.NotFound("join request not found")
	}
	if _, err := s.requireCreator(actingUserID, target.FamilyID); err != nil {
		return nil, err
	}
	if target.Status != model.StatusPending {
		return nil, apperr.InvalidState("request already processed")
	}

	member, err := s.families.UpdateMemberStatus(target.ID, model.StatusAccepted)
	if err != nil {
		return nil, apperr.Internal("failed to accept request", err)
	}

	s.hub.EmitToUser(target.UserID, ws.NewMessage("member", "accepted", member.ID, map[string]any{
		"family_id": target.FamilyID,
	}))
	s.hub.EmitToFamily(target.FamilyID, ws.NewMessage("member", "joined", member.ID, map[string]any{
		"family_id": target.FamilyID,
		"user_id":   target.UserID,
	}))
	return member, nil
}

// RejectRequest transitions a PENDING request to REJECTED and notifies the
// requester. Creator only.
func (s *Service) RejectRequest(actingUserID, memberID int64) (*model.FamilyMember, error) {
	target, err := s.families.GetMemberByID(memberID)
	if err != nil {
		return nil, apperr.Internal("failed to load request", err)
	}
	if target == nil {
		return nil, apperr.NotFound("join request not found")
	}
	if _, err := s.requireCreator(actingUserID, target.FamilyID); err != nil {
		return nil, err
	}
	if target.Status != model.StatusPending {
		return nil, apperr.InvalidState("request already processed")
	}

	member, err := s.families.UpdateMemberStatus(target.ID, model.StatusRejected)
	if err != nil {
		return nil, apperr.Internal("failed to reject request", err)
	}

	s.hub.EmitToUser(target.UserID, ws.NewMessage("member", "rejected", member.ID, map[string]any{
		"family_id": target.FamilyID,
	}))
	return member, nil
}

// MyFamily returns the caller's family overview, or nil when the caller has
// no ACCEPTED membership.
func (s *Service) MyFamily(userID int64) (*model.FamilyOverview, error) {
	m, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if m == nil {
		return nil, nil
	}

	f, err := s.families.GetByID(m.FamilyID)
	if err != nil {
		return nil, apperr.Internal("failed to load family", err)
	}
	if f == nil {
		return nil, nil
	}

	members, err := s.families.ListMembers(f.ID, model.StatusAccepted)
	if err != nil {
		return nil, apperr.Internal("failed to list members", err)
	}

	return &model.FamilyOverview{Family: *f, Membership: *m, Members: members}, nil
}

// UpdateMyPermissions lets a member change their own permission level. The
// creator's permissions are fixed at VIEW_EDIT.
func (s *Service) UpdateMyPermissions(userID int64, permissions string) (*model.FamilyMember, error) {
	if !validPermissions(permissions) {
		return nil, apperr.InvalidState("permissions must be VIEW_ONLY or VIEW_EDIT")
	}

	m, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return nil, apperr.Internal("failed to check membership", err)
	}
	if m == nil {
		return nil, apperr.Unauthorized("not a member of any family")
	}
	if m.Role == model.RoleCreator {
		return nil, apperr.InvalidState("creator permissions cannot be changed")
	}

	member, err := s.families.UpdateMemberPermissions(m.ID, permissions)
	if err != nil {
		return nil, apperr.Internal("failed to update permissions", err)
	}

	s.hub.EmitToFamily(m.FamilyID, ws.NewMessage("member", "updated", member.ID, map[string]any{
		"family_id":   m.FamilyID,
		"permissions": permissions,
	}))
	return member, nil
}

// UpdateMemberPermissions lets the creator change another member's
// permission level. The creator's own row cannot be targeted.
func (s *Service) UpdateMemberPermissions(actingUserID, memberID int64, permissions string) (*model.FamilyMember, error) {
	if !validPermissions(permissions) {
		return nil, apperr.InvalidState("permissions must be VIEW_ONLY or VIEW_EDIT")
	}

	target, err := s.families.GetMemberByID(memberID)
	if err != nil {
		return nil, apperr.Internal("failed to load member", err)
	}
	if target == nil {
		return nil, apperr.NotFound("member not found")
	}
	if _, err := s.requireCreator(actingUserID, target.FamilyID); err != nil {
		return nil, err
	}
	if target.Role == model.RoleCreator {
		return nil, apperr.InvalidState("creator permissions cannot be changed")
	}

	member, err := s.families.UpdateMemberPermissions(target.ID, permissions)
	if err != nil {
		return nil, apperr.Internal("failed to update permissions", err)
	}

	msg := ws.NewMessage("member", "updated", member.ID, map[string]any{
		"family_id":   target.FamilyID,
		"permissions": permissions,
	})
	s.hub.EmitToUser(target.UserID, msg)
	s.hub.EmitToFamily(target.FamilyID, msg)
	return member, nil
}

// RemoveMember deletes a membership row. Creator only; the creator's own
// row cannot be removed.
func (s *Service) RemoveMember(actingUserID, memberID int64) error {
	target, err := s.families.GetMemberByID(memberID)
	if err != nil {
		return apperr.Internal("failed to load member", err)
	}
	if target == nil {
		return apperr.NotFound("member not found")
	}
	if _, err := s.requireCreator(actingUserID, target.FamilyID); err != nil {
		return err
	}
	if target.Role == model.RoleCreator {
		return apperr.InvalidState("the creator cannot be removed")
	}

	if err := s.families.DeleteMember(target.ID); err != nil {
		return apperr.Internal("failed to remove member", err)
	}

	s.hub.EmitToUser(target.UserID, ws.NewMessage("member", "removed", target.ID, map[string]any{
		"family_id": target.FamilyID,
	}))
	s.hub.EmitToFamily(target.FamilyID, ws.NewMessage("member", "left", target.ID, map[string]any{
		"family_id": target.FamilyID,
		"user_id":   target.UserID,
	}))
	return nil
}

// LeaveFamily deletes the caller's own membership. The creator cannot
// leave; they must delete the family instead.
func (s *Service) LeaveFamily(userID int64) error {
	m, err := s.families.GetAcceptedByUser(userID)
	if err != nil {
		return apperr.Internal("failed to check membership", err)
	}
	if m == nil {
		return apperr.NotFound("not a member of any family")
	}
	if m.Role == model.RoleCreator {
		return apperr.InvalidState("the creator cannot leave; delete the family instead")
	}

	if err := s.families.DeleteMember(m.ID); err != nil {
		return apperr.Internal("failed to leave family", err)
	}

	s.hub.EmitToFamily(m.FamilyID, ws.NewMessage("member", "left", m.ID, map[string]any{
		"family_id": m.FamilyID,
		"user_id":   userID,
	}))
	return nil
}

// DeleteFamily notifies every other accepted member, then deletes the
// family and everything attached to it. Creator only.
func (s *Service) DeleteFamily(actingUserID, familyID int64) error {
	f, err := s.requireCreator(actingUserID, familyID)
	if err != nil {
		return err
	}

	members, err := s.families.ListMembers(familyID, model.StatusAccepted)
	if err != nil {
		return apperr.Internal("failed to list members", err)
	}

	// Per-user notification goes out before the cascade; after it, the
	// membership rows identifying the audience are gone.
	for _, m := range members {
		if m.UserID == actingUserID {
			continue
		}
		s.hub.EmitToUser(m.UserID, ws.NewMessage("family", "deleted", familyID, map[string]any{
			"family_name": f.Name,
		}))
	}

	if err := s.families.Delete(familyID); err != nil {
		return apperr.Internal("failed to delete family", err)
	}

	s.logger.Info("family deleted", "family_id", familyID, "creator_id", actingUserID)
	return nil
}
