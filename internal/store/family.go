package store

import (
	"database/sql"
	"fmt"

	"famledger/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

const familyCols = `id, name, room_code, creator_id, is_active, created_at, updated_at`
const memberCols = `id, family_id, user_id, role, permissions, status, created_at, updated_at`

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.RoomCode, &f.CreatorID, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.FamilyMember, error) {
	var m model.FamilyMember
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.UserID, &m.Role, &m.Permissions, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMemberDetail(scanner interface{ Scan(...any) error }) (*model.MemberDetail, error) {
	var d model.MemberDetail
	err := scanner.Scan(
		&d.ID, &d.FamilyID, &d.UserID, &d.Role, &d.Permissions, &d.Status,
		&d.CreatedAt, &d.UpdatedAt, &d.UserName, &d.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a family and its creator membership (CREATOR, VIEW_EDIT,
// ACCEPTED) in one transaction.
func (s *FamilyStore) Create(name, roomCode string, creatorID int64) (*model.Family, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO families (name, room_code, creator_id) VALUES (?, ?, ?)`,
		name, roomCode, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	familyID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO family_members (family_id, user_id, role, permissions, status) VALUES (?, ?, ?, ?, ?)`,
		familyID, creatorID, model.RoleCreator, model.PermissionViewEdit, model.StatusAccepted,
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(familyID)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) GetByRoomCode(code string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE room_code = ?`, code)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family by room code: %w", err)
	}
	return f, nil
}

// RoomCodeExists reports whether an active family already holds the code.
func (s *FamilyStore) RoomCodeExists(code string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM families WHERE room_code = ? AND is_active = 1`, code,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("room code exists: %w", err)
	}
	return n > 0, nil
}

// Delete removes the family; memberships, budgets, goals, and contributions
// go with it via ON DELETE CASCADE.
func (s *FamilyStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}

func (s *FamilyStore) CreateMember(familyID, userID int64, role, permissions, status string) (*model.FamilyMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO family_members (family_id, user_id, role, permissions, status) VALUES (?, ?, ?, ?, ?)`,
		familyID, userID, role, permissions, status,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetMemberByID(id)
}

func (s *FamilyStore) GetMemberByID(id int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) GetMember(familyID, userID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// GetAcceptedByUser returns the user's ACCEPTED membership, if any. The
// schema permits several, but join-time checks keep it to at most one.
func (s *FamilyStore) GetAcceptedByUser(userID int64) (*model.FamilyMember, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM family_members WHERE user_id = ? AND status = ? ORDER BY id LIMIT 1`,
		userID, model.StatusAccepted,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get accepted membership: %w", err)
	}
	return m, nil
}

func (s *FamilyStore) UpdateMemberStatus(id int64, status string) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member status: %w", err)
	}
	return s.GetMemberByID(id)
}

// ReopenRequest flips a REJECTED row back to PENDING with freshly chosen
// permissions.
func (s *FamilyStore) ReopenRequest(id int64, permissions string) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET status = ?, permissions = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusPending, permissions, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reopen request: %w", err)
	}
	return s.GetMemberByID(id)
}

func (s *FamilyStore) UpdateMemberPermissions(id int64, permissions string) (*model.FamilyMember, error) {
	_, err := s.db.Exec(
		`UPDATE family_members SET permissions = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		permissions, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member permissions: %w", err)
	}
	return s.GetMemberByID(id)
}

func (s *FamilyStore) DeleteMember(id int64) error {
	_, err := s.db.Exec(`DELETE FROM family_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

// ListMembers returns memberships with the given status joined with user
// identity, oldest first.
func (s *FamilyStore) ListMembers(familyID int64, status string) ([]model.MemberDetail, error) {
	rows, err := s.db.Query(
		`SELECT fm.id, fm.family_id, fm.user_id, fm.role, fm.permissions, fm.status,
		        fm.created_at, fm.updated_at, u.name, u.email
		 FROM family_members fm
		 JOIN users u ON u.id = fm.user_id
		 WHERE fm.family_id = ? AND fm.status = ?
		 ORDER BY fm.created_at ASC`,
		familyID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberDetail
	for rows.Next() {
		d, err := scanMemberDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *d)
	}
	return members, rows.Err()
}

// AcceptedUserIDs returns the user ids of all ACCEPTED members, used by the
// budget aggregation queries.
func (s *FamilyStore) AcceptedUserIDs(familyID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM family_members WHERE family_id = ? AND status = ?`,
		familyID, model.StatusAccepted,
	)
	if err != nil {
		return nil, fmt.Errorf("accepted user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountMemberRows returns how many membership rows exist for the pair,
// regardless of status.
func (s *FamilyStore) CountMemberRows(familyID, userID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count member rows: %w", err)
	}
	return n, nil
}
