package family

import (
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famledger/internal/apperr"
	"famledger/internal/database"
	"famledger/internal/model"
	"famledger/internal/store"
	ws "famledger/internal/websocket"
)

type fixture struct {
	svc          *Service
	users        *store.UserStore
	families     *store.FamilyStore
	transactions *store.TransactionStore
	goals        *store.GoalStore
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })

	families := store.NewFamilyStore(db)
	budgets := store.NewBudgetStore(db)
	goals := store.NewGoalStore(db)
	transactions := store.NewTransactionStore(db)
	hub := ws.NewHub(slog.Default())

	return &fixture{
		svc:          NewService(families, budgets, goals, transactions, hub, slog.Default()),
		users:        store.NewUserStore(db),
		families:     families,
		transactions: transactions,
		goals:        goals,
	}
}

func (f *fixture) user(t *testing.T, email string) int64 {
	t.Helper()
	u, err := f.users.Create(email, email, "hash")
	require.NoError(t, err)
	return u.ID
}

var roomCodeRe = regexp.MustCompile(`^[A-Z0-9]{6}$`)

func TestSharedFamilyScenario(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")

	// U1 creates family Alpha.
	fam, err := f.svc.CreateFamily(u1, "Alpha")
	require.NoError(t, err)
	assert.Regexp(t, roomCodeRe, fam.RoomCode)
	assert.Equal(t, u1, fam.CreatorID)

	// U2 requests to join with VIEW_EDIT.
	req, err := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewEdit)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, req.Status)
	assert.Equal(t, model.RoleMember, req.Role)

	// Creator sees the pending request.
	pending, err := f.svc.PendingRequests(u1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, u2, pending[0].UserID)

	// Accept preserves the permission U2 chose.
	accepted, err := f.svc.AcceptRequest(u1, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, accepted.Status)
	assert.Equal(t, model.PermissionViewEdit, accepted.Permissions)

	// U1 creates a shared budget.
	budget, err := f.svc.CreateBudget(u1, fam.ID, "Food", 500, model.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, float64(0), budget.Spent)

	// U2 is a MEMBER with VIEW_EDIT, but not ADMIN/CREATOR: budget mutation denied.
	_, err = f.svc.UpdateBudget(u2, fam.ID, budget.ID, "Food", 600, model.PeriodMonthly)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// Any accepted member may contribute to a shared goal.
	goal, err := f.svc.CreateGoal(u1, fam.ID, "Vacation", 1000, nil, "Travel")
	require.NoError(t, err)

	contribution, updated, err := f.svc.Contribute(u2, fam.ID, goal.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, float64(50), contribution.Amount)
	assert.Equal(t, u2, contribution.UserID)
	assert.Equal(t, float64(50), updated.CurrentAmount)

	history, err := f.svc.ListContributions(u2, fam.ID, goal.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, float64(50), history[0].Amount)
}

func TestCreateFamilyValidation(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")

	_, err := f.svc.CreateFamily(u1, "  ")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	_, err = f.svc.CreateFamily(u1, "Alpha")
	require.NoError(t, err)

	// Already a member of a family.
	_, err = f.svc.CreateFamily(u1, "Beta")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRequestToJoinLifecycle(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")

	fam, err := f.svc.CreateFamily(u1, "Alpha")
	require.NoError(t, err)

	// Unknown room code.
	_, err = f.svc.RequestToJoin(u2, "ZZZZZ9", model.PermissionViewOnly)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// Invalid permission value.
	_, err = f.svc.RequestToJoin(u2, fam.RoomCode, "SUPER_ADMIN")
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// Room codes are matched case-insensitively (client may type lowercase).
	req, err := f.svc.RequestToJoin(u2, "  "+strings.ToLower(fam.RoomCode)+" ", model.PermissionViewOnly)
	require.NoError(t, err)

	// Duplicate while PENDING.
	_, err = f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	// Reject, then re-request: the same row flips back to PENDING with the
	// newly chosen permissions.
	_, err = f.svc.RejectRequest(u1, req.ID)
	require.NoError(t, err)

	reopened, err := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewEdit)
	require.NoError(t, err)
	assert.Equal(t, req.ID, reopened.ID)
	assert.Equal(t, model.StatusPending, reopened.Status)
	assert.Equal(t, model.PermissionViewEdit, reopened.Permissions)

	n, err := f.families.CountMemberRows(fam.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "re-request must reuse the existing row")

	// Accept, then a further join attempt conflicts.
	_, err = f.svc.AcceptRequest(u1, reopened.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAcceptRequestByNonCreator(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")
	u3 := f.user(t, "u3@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	req, err := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(u3, req.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	// Target row is untouched.
	m, err := f.families.GetMemberByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, m.Status)

	// Accepting twice fails the second time.
	_, err = f.svc.AcceptRequest(u1, req.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptRequest(u1, req.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
}

func TestCreatorPermissionsImmutable(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")

	// Self-service path.
	_, err := f.svc.UpdateMyPermissions(u1, model.PermissionViewOnly)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// Admin path targeting the creator row.
	creatorRow, err := f.families.GetMember(fam.ID, u1)
	require.NoError(t, err)
	_, err = f.svc.UpdateMemberPermissions(u1, creatorRow.ID, model.PermissionViewOnly)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	m, _ := f.families.GetMember(fam.ID, u1)
	assert.Equal(t, model.PermissionViewEdit, m.Permissions)
}

func TestUpdateMemberPermissions(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	req, _ := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	f.svc.AcceptRequest(u1, req.ID)

	// Member adjusts their own level.
	m, err := f.svc.UpdateMyPermissions(u2, model.PermissionViewEdit)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionViewEdit, m.Permissions)

	// Creator adjusts the member's level.
	m, err = f.svc.UpdateMemberPermissions(u1, req.ID, model.PermissionViewOnly)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionViewOnly, m.Permissions)

	// Non-creator cannot use the admin path.
	_, err = f.svc.UpdateMemberPermissions(u2, req.ID, model.PermissionViewEdit)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestLeaveAndRemove(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")
	u3 := f.user(t, "u3@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	for _, u := range []int64{u2, u3} {
		req, _ := f.svc.RequestToJoin(u, fam.RoomCode, model.PermissionViewOnly)
		f.svc.AcceptRequest(u1, req.ID)
	}

	// The creator cannot leave.
	err := f.svc.LeaveFamily(u1)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// A member can.
	require.NoError(t, f.svc.LeaveFamily(u2))
	m, _ := f.families.GetMember(fam.ID, u2)
	assert.Nil(t, m, "membership row deleted on leave")

	// Removal is creator-only and cannot target the creator.
	u3Row, _ := f.families.GetMember(fam.ID, u3)
	err = f.svc.RemoveMember(u3, u3Row.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	creatorRow, _ := f.families.GetMember(fam.ID, u1)
	err = f.svc.RemoveMember(u1, creatorRow.ID)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	require.NoError(t, f.svc.RemoveMember(u1, u3Row.ID))
	m, _ = f.families.GetMember(fam.ID, u3)
	assert.Nil(t, m)
}

func TestDeleteFamily(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	req, _ := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	f.svc.AcceptRequest(u1, req.ID)

	err := f.svc.DeleteFamily(u2, fam.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	require.NoError(t, f.svc.DeleteFamily(u1, fam.ID))

	overview, err := f.svc.MyFamily(u1)
	require.NoError(t, err)
	assert.Nil(t, overview)
}

func TestMyFamilyOverview(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")

	overview, err := f.svc.MyFamily(u1)
	require.NoError(t, err)
	assert.Nil(t, overview, "no membership yet")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	req, _ := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)

	// A pending request is not a membership.
	overview, err = f.svc.MyFamily(u2)
	require.NoError(t, err)
	assert.Nil(t, overview)

	f.svc.AcceptRequest(u1, req.ID)

	overview, err = f.svc.MyFamily(u2)
	require.NoError(t, err)
	require.NotNil(t, overview)
	assert.Equal(t, fam.ID, overview.Family.ID)
	assert.Equal(t, model.RoleMember, overview.Membership.Role)
	assert.Len(t, overview.Members, 2)
}

func TestBudgetSpentIsDerived(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	u2 := f.user(t, "u2@example.com")
	outsider := f.user(t, "x@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	req, _ := f.svc.RequestToJoin(u2, fam.RoomCode, model.PermissionViewOnly)
	f.svc.AcceptRequest(u1, req.ID)

	now := time.Now()
	monthStart := PeriodStart(model.PeriodMonthly, now)

	// In period: both members.
	f.transactions.Create(u1, model.TypeExpense, "Food", 100, "", now)
	f.transactions.Create(u2, model.TypeExpense, "Food", 40, "", monthStart)
	// Excluded: before the boundary, wrong category, income, non-member.
	f.transactions.Create(u1, model.TypeExpense, "Food", 999, "", monthStart.Add(-time.Minute))
	f.transactions.Create(u1, model.TypeExpense, "Rent", 999, "", now)
	f.transactions.Create(u2, model.TypeIncome, "Food", 999, "", now)
	f.transactions.Create(outsider, model.TypeExpense, "Food", 999, "", now)

	b, err := f.svc.CreateBudget(u1, fam.ID, "Food", 500, model.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, float64(140), b.Spent)

	// Reads recompute fresh: a new transaction shows up immediately.
	f.transactions.Create(u1, model.TypeExpense, "Food", 10, "", now)
	budgets, err := f.svc.ListBudgets(u2, fam.ID)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, float64(150), budgets[0].Spent)
}

func TestBudgetGating(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	stranger := f.user(t, "s@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")

	_, err := f.svc.CreateBudget(stranger, fam.ID, "Food", 500, model.PeriodMonthly)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.ListBudgets(stranger, fam.ID)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	b, err := f.svc.CreateBudget(u1, fam.ID, "Food", 500, model.PeriodMonthly)
	require.NoError(t, err)

	// Duplicate category+period.
	_, err = f.svc.CreateBudget(u1, fam.ID, "Food", 300, model.PeriodMonthly)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, f.svc.DeleteBudget(u1, fam.ID, b.ID))
	err = f.svc.DeleteBudget(u1, fam.ID, b.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestContributeRules(t *testing.T) {
	f := setup(t)
	u1 := f.user(t, "u1@example.com")
	stranger := f.user(t, "s@example.com")

	fam, _ := f.svc.CreateFamily(u1, "Alpha")
	goal, err := f.svc.CreateGoal(u1, fam.ID, "Vacation", 1000, nil, "Travel")
	require.NoError(t, err)

	_, _, err = f.svc.Contribute(stranger, fam.ID, goal.ID, 50)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, _, err = f.svc.Contribute(u1, fam.ID, goal.ID, 0)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	_, _, err = f.svc.Contribute(u1, fam.ID, goal.ID, -5)
	assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))

	// Overshoot past the target is allowed and visible.
	_, updated, err := f.svc.Contribute(u1, fam.ID, goal.ID, 1500)
	require.NoError(t, err)
	assert.Equal(t, float64(1500), updated.CurrentAmount)
	assert.Greater(t, updated.CurrentAmount, updated.TargetAmount)
}
