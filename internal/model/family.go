package model

import "time"

// Member roles. Exactly one CREATOR exists per family and the role never
// changes after creation.
const (
	RoleCreator = "CREATOR"
	RoleAdmin   = "ADMIN"
	RoleMember  = "MEMBER"
)

// Member permission levels. The creator is always VIEW_EDIT.
const (
	PermissionViewOnly = "VIEW_ONLY"
	PermissionViewEdit = "VIEW_EDIT"
)

// Membership states. REJECTED rows may transition back to PENDING on a
// re-request; ACCEPTED rows are deleted when a member leaves or is removed.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RoomCode  string    `json:"room_code"`
	CreatorID int64     `json:"creator_id"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FamilyMember struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	UserID      int64     `json:"user_id"`
	Role        string    `json:"role"`
	Permissions string    `json:"permissions"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberDetail is a membership row joined with the member's identity, used
// by request listings and the family overview.
type MemberDetail struct {
	FamilyMember
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// FamilyOverview is the "my family" view: the family, the caller's own
// membership, and all accepted members.
type FamilyOverview struct {
	Family     Family         `json:"family"`
	Membership FamilyMember   `json:"membership"`
	Members    []MemberDetail `json:"members"`
}
