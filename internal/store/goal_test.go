package store

import (
	"testing"

	"famledger/internal/database"
)

func setupGoalTestDB(t *testing.T) (*GoalStore, *FamilyStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewGoalStore(db), NewFamilyStore(db), NewUserStore(db)
}

func TestGoalCRUD(t *testing.T) {
	gs, fs, us := setupGoalTestDB(t)

	u, _ := us.Create("c@example.com", "C", "h")
	f, _ := fs.Create("Alpha", "AAAA11", u.ID)

	g, err := gs.Create(f.ID, "Vacation", 1000, nil, "Travel")
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if g.CurrentAmount != 0 {
		t.Errorf("current = %v, want 0", g.CurrentAmount)
	}

	updated, err := gs.Update(g.ID, "Holiday", 1500, nil, "Travel")
	if err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if updated.Title != "Holiday" || updated.TargetAmount != 1500 {
		t.Errorf("updated = %+v, want Holiday/1500", updated)
	}

	goals, err := gs.ListByFamily(f.ID)
	if err != nil {
		t.Fatalf("list goals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("goals = %d, want 1", len(goals))
	}

	if err := gs.Delete(g.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	got, _ := gs.GetByID(g.ID)
	if got != nil {
		t.Error("expected goal gone")
	}
}

func TestContributeAppendsAuditRow(t *testing.T) {
	gs, fs, us := setupGoalTestDB(t)

	u, _ := us.Create("c@example.com", "C", "h")
	f, _ := fs.Create("Alpha", "AAAA11", u.ID)
	g, _ := gs.Create(f.ID, "Vacation", 1000, nil, "Travel")

	c, err := gs.Contribute(g.ID, u.ID, 50)
	if err != nil {
		t.Fatalf("contribute: %v", err)
	}
	if c.Amount != 50 || c.UserID != u.ID || c.GoalID != g.ID {
		t.Errorf("contribution = %+v", c)
	}

	got, _ := gs.GetByID(g.ID)
	if got.CurrentAmount != 50 {
		t.Errorf("current = %v, want 50", got.CurrentAmount)
	}

	// Overshoot past target is allowed.
	if _, err := gs.Contribute(g.ID, u.ID, 2000); err != nil {
		t.Fatalf("overshoot contribute: %v", err)
	}
	got, _ = gs.GetByID(g.ID)
	if got.CurrentAmount != 2050 {
		t.Errorf("current = %v, want 2050", got.CurrentAmount)
	}

	contributions, err := gs.ListContributions(g.ID)
	if err != nil {
		t.Fatalf("list contributions: %v", err)
	}
	if len(contributions) != 2 {
		t.Fatalf("contributions = %d, want 2", len(contributions))
	}
	if contributions[0].Amount != 50 || contributions[1].Amount != 2000 {
		t.Errorf("contribution amounts = %v, %v", contributions[0].Amount, contributions[1].Amount)
	}
}
